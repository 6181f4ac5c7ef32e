package container

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hengadev/nqcrypt/internal/nqcerr"
	"github.com/hengadev/nqcrypt/internal/streamcipher"
)

// Binary layout, all integers big-endian:
//
//	magic "NQC" | version u8 | feedback mode u8
//	u32 len | encapsulated key
//	u32 len | salt
//	u64 data size
//	u32 block size
//	u32 count | (u32 len | field name)*
//	u64 len | encrypted data
//	u32 count | (u32 len | name | u32 len | value)*   sorted by name
const (
	binaryMagic   = "NQC"
	BinaryVersion = 1
)

// MarshalBinary encodes c in the binary container format.
func (c *Container) MarshalBinary() ([]byte, error) {
	if !c.Header.FeedbackMode.Valid() {
		return nil, nqcerr.NewInvalidFormatError("binary", nqcerr.Encode, fmt.Sprintf("unknown feedback mode %d", uint8(c.Header.FeedbackMode)))
	}

	var buf bytes.Buffer
	buf.WriteString(binaryMagic)
	buf.WriteByte(BinaryVersion)
	buf.WriteByte(byte(c.Header.FeedbackMode))

	writeBytes32(&buf, c.Header.EncapsulatedKey)
	writeBytes32(&buf, c.Header.Salt)
	buf.Write(binary.BigEndian.AppendUint64(nil, c.Header.DataSize))
	buf.Write(binary.BigEndian.AppendUint32(nil, c.Header.BlockSize))

	buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(c.Header.FieldNames))))
	for _, name := range c.Header.FieldNames {
		writeBytes32(&buf, []byte(name))
	}

	buf.Write(binary.BigEndian.AppendUint64(nil, uint64(len(c.EncryptedData))))
	buf.Write(c.EncryptedData)

	keys := c.sortedFieldKeys()
	buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(keys))))
	for _, name := range keys {
		writeBytes32(&buf, []byte(name))
		writeBytes32(&buf, c.HomomorphicData[name])
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes data produced by MarshalBinary into c.
func (c *Container) UnmarshalBinary(data []byte) error {
	r := &reader{data: data}

	magic := r.next(len(binaryMagic))
	if r.err == nil && string(magic) != binaryMagic {
		return nqcerr.NewInvalidFormatError("binary", nqcerr.Decode, "bad magic")
	}
	version := r.uint8()
	if r.err == nil && version != BinaryVersion {
		return nqcerr.NewInvalidFormatError("binary", nqcerr.Decode, fmt.Sprintf("unsupported version %d", version))
	}
	mode := streamcipher.FeedbackMode(r.uint8())

	var out Container
	out.Header.FeedbackMode = mode
	out.Header.EncapsulatedKey = r.bytes32()
	out.Header.Salt = r.bytes32()
	out.Header.DataSize = r.uint64()
	out.Header.BlockSize = r.uint32()

	nameCount := r.count()
	out.Header.FieldNames = make([]string, 0, nameCount)
	for i := 0; i < nameCount && r.err == nil; i++ {
		out.Header.FieldNames = append(out.Header.FieldNames, string(r.bytes32()))
	}

	dataLen := r.uint64()
	if r.err == nil && dataLen > uint64(r.remaining()) {
		r.fail("encrypted data length exceeds input")
	}
	out.EncryptedData = clone(r.next(int(dataLen)))

	entryCount := r.count()
	out.HomomorphicData = make(map[string][]byte, entryCount)
	for i := 0; i < entryCount && r.err == nil; i++ {
		name := string(r.bytes32())
		out.HomomorphicData[name] = r.bytes32()
	}

	if r.err != nil {
		return r.err
	}
	if r.remaining() != 0 {
		return nqcerr.NewInvalidFormatError("binary", nqcerr.Decode, fmt.Sprintf("%d trailing bytes", r.remaining()))
	}
	if !mode.Valid() {
		return nqcerr.NewInvalidFormatError("binary", nqcerr.Decode, fmt.Sprintf("unknown feedback mode %d", uint8(mode)))
	}

	*c = out
	return nil
}

func writeBytes32(buf *bytes.Buffer, b []byte) {
	buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(b))))
	buf.Write(b)
}

// reader is a bounds-checked cursor. After the first failure every read
// returns a zero value and err holds the cause.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) fail(details string) {
	if r.err == nil {
		r.err = nqcerr.NewInvalidFormatError("binary", nqcerr.Decode, details)
	}
}

func (r *reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.fail(fmt.Sprintf("truncated input at offset %d", r.off))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) uint8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) uint32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) uint64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) bytes32() []byte {
	n := r.uint32()
	if r.err != nil {
		return nil
	}
	return clone(r.next(int(n)))
}

// count reads a u32 element count. Every element takes at least four bytes,
// which bounds the allocation by the input size.
func (r *reader) count() int {
	n := r.uint32()
	if r.err == nil && uint64(n)*4 > uint64(r.remaining()) {
		r.fail("element count exceeds input")
		return 0
	}
	return int(n)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
