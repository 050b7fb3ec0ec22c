package fat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapfs/pseudofat/image"
)

func TestDirectoryEntry_EncodeDecodeRoundTrip(t *testing.T) {
	e := DirectoryEntry{Name: "readme.txt", IsDirectory: false, Size: 42, StartCluster: 5000}
	buf := e.Encode()
	require.Len(t, buf, DirectoryEntrySize)

	decoded := DecodeDirectoryEntry(buf)
	assert.Equal(t, e, decoded)
}

func TestDirectoryEntry_Empty(t *testing.T) {
	var e DirectoryEntry
	assert.True(t, e.Empty())
	e.StartCluster = 1
	assert.False(t, e.Empty())
}

func newTestDirectoryLayer(t *testing.T) (*DirectoryLayer, *MetaData, ClusterID) {
	meta := &MetaData{
		ClusterSize:      1024,
		ClusterCount:     4,
		FATStartAddress:  29,
		DataStartAddress: 29 + 4*4,
	}
	img := image.OpenMemory(make([]byte, int(meta.DataStartAddress)+int(4*meta.ClusterSize)))
	cs := newClusterStore(img, meta)
	dl := newDirectoryLayer(cs, meta)
	addr := ClusterID(meta.DataStartAddress)
	require.NoError(t, cs.ZeroCluster(addr))
	return dl, meta, addr
}

func TestDirectoryLayer_AppendAndList(t *testing.T) {
	dl, _, addr := newTestDirectoryLayer(t)

	require.NoError(t, dl.AppendEntry(addr, DirectoryEntry{Name: ".", IsDirectory: true, StartCluster: addr}))
	require.NoError(t, dl.AppendEntry(addr, DirectoryEntry{Name: "..", IsDirectory: true, StartCluster: addr}))
	require.NoError(t, dl.AppendEntry(addr, DirectoryEntry{Name: "a.txt", IsDirectory: false, Size: 3, StartCluster: 9999}))

	entries, err := dl.ListEntries(addr)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ".", entries[0].Name)
	assert.Equal(t, "..", entries[1].Name)
	assert.Equal(t, "a.txt", entries[2].Name)
}

func TestDirectoryLayer_RemoveEntry(t *testing.T) {
	dl, _, addr := newTestDirectoryLayer(t)
	require.NoError(t, dl.AppendEntry(addr, DirectoryEntry{Name: "x", IsDirectory: false, StartCluster: 123}))

	require.NoError(t, dl.RemoveEntry(addr, 123))

	entries, err := dl.ListEntries(addr)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDirectoryLayer_FindChild(t *testing.T) {
	dl, _, addr := newTestDirectoryLayer(t)
	require.NoError(t, dl.AppendEntry(addr, DirectoryEntry{Name: "sub", IsDirectory: true, StartCluster: 2048}))

	entry, ok, err := dl.FindChild(addr, "sub")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 2048, entry.StartCluster)

	_, ok, err = dl.FindChild(addr, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectoryLayer_AppendEntry_FullDirectory(t *testing.T) {
	dl, meta, addr := newTestDirectoryLayer(t)
	slots := meta.DirentsPerCluster()

	for i := 0; i < slots; i++ {
		require.NoError(t, dl.AppendEntry(addr, DirectoryEntry{
			Name:         "f",
			IsDirectory:  false,
			StartCluster: ClusterID(i + 1),
		}))
	}

	err := dl.AppendEntry(addr, DirectoryEntry{Name: "overflow", StartCluster: 99999})
	assert.Error(t, err)
}
