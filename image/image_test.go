package image_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapfs/pseudofat/image"
)

func TestMemoryImage_WriteThenRead(t *testing.T) {
	img := image.OpenMemory(make([]byte, 64))

	err := img.Write(10, []byte("hello"))
	require.NoError(t, err)

	data, err := img.Read(10, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestMemoryImage_Size(t *testing.T) {
	img := image.OpenMemory(make([]byte, 128))
	size, err := img.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 128, size)
}

func TestMemoryImage_ResetResizesAndZeroes(t *testing.T) {
	img := image.OpenMemory([]byte("garbage data that should vanish"))

	err := img.Reset(16)
	require.NoError(t, err)

	size, err := img.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 16, size)

	data, err := img.Read(0, 16)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), data)
}

func TestMemoryImage_ResetThenWrite(t *testing.T) {
	img := image.OpenMemory(nil)
	require.NoError(t, img.Reset(32))
	require.NoError(t, img.Write(0, []byte("ok")))

	data, err := img.Read(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
}
