package persistence

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	in := &Header{
		Compression:    uint8(CompressionZSTD),
		NumHashes:      3,
		RowCount:       250_000,
		AccessionCount: 10,
	}
	require.NoError(t, NewWriter(&buf).WriteHeader(in))
	assert.Equal(t, HeaderSize, buf.Len())

	out, err := NewReader(&buf).ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, MagicNumber, out.Magic)
	assert.Equal(t, Version, out.Version)
	assert.Equal(t, in.Compression, out.Compression)
	assert.Equal(t, in.NumHashes, out.NumHashes)
	assert.Equal(t, in.RowCount, out.RowCount)
	assert.Equal(t, in.AccessionCount, out.AccessionCount)
}

func TestReadHeaderErrors(t *testing.T) {
	t.Run("BadMagic", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(&buf).WriteHeader(&Header{}))
		data := buf.Bytes()
		data[0] ^= 0xFF

		_, err := NewReader(bytes.NewReader(data)).ReadHeader()
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("BadVersion", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(&buf).WriteHeader(&Header{}))
		data := buf.Bytes()
		data[4] ^= 0xFF

		_, err := NewReader(bytes.NewReader(data)).ReadHeader()
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader([]byte{0x42})).ReadHeader()
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestUint64SliceRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	bw := NewWriter(&buf)

	in := []uint64{0, 1, 0xDEADBEEF, ^uint64(0)}
	require.NoError(t, bw.WriteUint64(uint64(len(in))))
	require.NoError(t, bw.WriteUint64Slice(in))

	br := NewReader(&buf)
	n, err := br.ReadUint64()
	require.NoError(t, err)
	out, err := br.ReadUint64Slice(int(n))
	require.NoError(t, err)

	assert.Equal(t, in, out)
}

func TestUint64SliceEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteUint64Slice(nil))
	assert.Zero(t, buf.Len())

	out, err := NewReader(&buf).ReadUint64Slice(0)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSaveToFile(t *testing.T) {
	t.Run("WritesContent", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "out.bin")

		err := SaveToFile(filename, func(w io.Writer) error {
			_, werr := w.Write([]byte("payload"))
			return werr
		})
		require.NoError(t, err)

		data, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("ReplacesExisting", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "out.bin")
		require.NoError(t, os.WriteFile(filename, []byte("old"), 0644))

		err := SaveToFile(filename, func(w io.Writer) error {
			_, werr := w.Write([]byte("new"))
			return werr
		})
		require.NoError(t, err)

		data, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data)
	})

	t.Run("NoTempLeftOnError", func(t *testing.T) {
		dir := t.TempDir()
		filename := filepath.Join(dir, "out.bin")

		err := SaveToFile(filename, func(io.Writer) error {
			return io.ErrClosedPipe
		})
		require.ErrorIs(t, err, io.ErrClosedPipe)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
