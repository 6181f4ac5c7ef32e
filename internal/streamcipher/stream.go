package streamcipher

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// EncryptStream encrypts data from reader to writer block by block. The
// output is byte-identical to Encrypt over the whole input.
func (c *Cipher) EncryptStream(ctx context.Context, reader io.Reader, writer io.Writer) (int64, error) {
	return c.stream(ctx, reader, writer, false)
}

// DecryptStream decrypts data from reader to writer block by block.
func (c *Cipher) DecryptStream(ctx context.Context, reader io.Reader, writer io.Writer) (int64, error) {
	return c.stream(ctx, reader, writer, true)
}

func (c *Cipher) stream(ctx context.Context, reader io.Reader, writer io.Writer, decrypt bool) (int64, error) {
	ch := c.newChain(decrypt)
	in := make([]byte, c.blockSize)
	out := make([]byte, c.blockSize)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := io.ReadFull(reader, in)
		if n > 0 {
			ch.next(out[:n], in[:n])
			if _, werr := writer.Write(out[:n]); werr != nil {
				return total, fmt.Errorf("failed to write to output stream: %w", werr)
			}
			total += int64(n)
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return total, nil
			}
			return total, fmt.Errorf("failed to read from input stream: %w", err)
		}
	}
}
