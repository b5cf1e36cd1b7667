package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kienpl96/kannel/buffer"
)

func TestAppendCopyDelete(t *testing.T) {
	b := buffer.New()
	defer b.Release()

	b.Append([]byte("hello world"))
	require.Equal(t, 11, b.Len())
	require.Equal(t, []byte("hello"), b.Copy(0, 5))

	b.DeletePrefix(6)
	require.Equal(t, "world", string(b.Bytes()))
}

func TestIndexByte(t *testing.T) {
	b := buffer.New()
	defer b.Release()

	b.Append([]byte("line1\nline2\n"))
	require.Equal(t, 5, b.IndexByte(0, '\n'))
	require.Equal(t, 11, b.IndexByte(6, '\n'))
	require.Equal(t, -1, b.IndexByte(12, '\n'))
}

func TestDeletePrefixBeyondLength(t *testing.T) {
	b := buffer.New()
	defer b.Release()

	b.Append([]byte("abc"))
	b.DeletePrefix(100)
	require.Equal(t, 0, b.Len())
}
