package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/nqcrypt"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "containers.db")
	s, err := Open(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func protect(t *testing.T, payload []byte, fields map[string]int64, opts ...nqcrypt.PipelineOption) *nqcrypt.Container {
	t.Helper()

	p, _ := nqcrypt.NewTestPipeline(t, opts...)
	c, err := p.Protect(context.Background(), payload, fields)
	require.NoError(t, err)
	return c
}

func TestStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()

	for _, codec := range []nqcrypt.Codec{nqcrypt.BinaryCodec{}, nqcrypt.JSONCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			s := openTestStore(t, WithCodec(codec))
			c := protect(t, []byte("sqlite payload"), map[string]int64{"a": 1, "b": -2})

			id, err := s.Save(ctx, c)
			require.NoError(t, err)
			_, err = uuid.Parse(id)
			require.NoError(t, err)

			loaded, err := s.Load(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, c, loaded)

			require.NoError(t, s.Delete(ctx, id))

			_, err = s.Load(ctx, id)
			assert.True(t, nqcrypt.IsNotFoundError(err))
			assert.True(t, nqcrypt.IsNotFoundError(s.Delete(ctx, id)))
		})
	}
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	first, err := s.Save(ctx, protect(t, []byte("one"), nil))
	require.NoError(t, err)
	second, err := s.Save(ctx, protect(t, make([]byte, 100), map[string]int64{"x": 1}, nqcrypt.WithFeedbackMode(nqcrypt.FeedbackSymmetric)))
	require.NoError(t, err)

	entries, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]Entry{}
	for _, e := range entries {
		byID[e.ID] = e
	}

	assert.Equal(t, uint64(3), byID[first].DataSize)
	assert.Equal(t, "asymmetric", byID[first].FeedbackMode)
	assert.Equal(t, 0, byID[first].FieldCount)

	assert.Equal(t, uint64(100), byID[second].DataSize)
	assert.Equal(t, "symmetric", byID[second].FeedbackMode)
	assert.Equal(t, 1, byID[second].FieldCount)
	assert.False(t, byID[second].CreatedAt.IsZero())
}

func TestStore_ReadsAcrossCodecs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "containers.db")

	jsonStore, err := Open(ctx, path, WithCodec(nqcrypt.JSONCodec{}))
	require.NoError(t, err)
	c := protect(t, []byte("written as json"), nil)
	id, err := jsonStore.Save(ctx, c)
	require.NoError(t, err)
	require.NoError(t, jsonStore.Close())

	binaryStore, err := Open(ctx, path)
	require.NoError(t, err)
	defer binaryStore.Close()

	loaded, err := binaryStore.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestNew_SharedDB(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer db.Close()

	s, err := New(ctx, db)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// The caller still owns db.
	require.NoError(t, db.PingContext(ctx))
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, nil)
	assert.ErrorIs(t, err, nqcrypt.ErrInvalidConfiguration)

	_, err = Open(ctx, filepath.Join(t.TempDir(), "x.db"), WithCodec(nil))
	assert.ErrorIs(t, err, nqcrypt.ErrInvalidConfiguration)
}

func TestStore_ClosedDatabase(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.db.Close())

	_, err := s.Save(ctx, protect(t, []byte("x"), nil))
	assert.True(t, nqcrypt.IsRetryableError(err))

	_, err = s.Load(ctx, "id")
	assert.True(t, nqcrypt.IsRetryableError(err))
}

func TestStore_SaveNilContainer(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Save(context.Background(), nil)
	assert.ErrorIs(t, err, nqcrypt.ErrInvalidContainer)

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
