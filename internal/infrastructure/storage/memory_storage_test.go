package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage_PutAndGet(t *testing.T) {
	store := NewMemoryObjectStorage()

	err := store.Put(context.Background(), "exports/a/1.csv", "text/csv; charset=utf-8", []byte("col1,col2"))
	require.NoError(t, err)

	body, contentType, ok := store.Get("exports/a/1.csv")
	require.True(t, ok)
	assert.Equal(t, "col1,col2", string(body))
	assert.Equal(t, "text/csv; charset=utf-8", contentType)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryObjectStorage_MissingKey(t *testing.T) {
	store := NewMemoryObjectStorage()

	_, _, ok := store.Get("exports/none.csv")
	assert.False(t, ok)
}

func TestMemoryObjectStorage_EmptyKeyRejected(t *testing.T) {
	store := NewMemoryObjectStorage()

	err := store.Put(context.Background(), "", "text/csv", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryObjectStorage_CopiesBody(t *testing.T) {
	store := NewMemoryObjectStorage()

	buf := []byte("original")
	require.NoError(t, store.Put(context.Background(), "k", "text/plain", buf))
	buf[0] = 'X'

	body, _, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "original", string(body))
}
