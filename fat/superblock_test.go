package fat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaData_EncodeDecodeRoundTrip(t *testing.T) {
	m := &MetaData{
		DiskSize:         1048576,
		ClusterSize:      1024,
		ClusterCount:     1019,
		FATStartAddress:  29,
		DataStartAddress: 29 + 1019*4,
	}

	decoded, err := DecodeMetaData(m.Encode())
	require.NoError(t, err)

	assert.Equal(t, m.DiskSize, decoded.DiskSize)
	assert.Equal(t, m.ClusterSize, decoded.ClusterSize)
	assert.Equal(t, m.ClusterCount, decoded.ClusterCount)
	assert.Equal(t, m.FATStartAddress, decoded.FATStartAddress)
	assert.Equal(t, m.DataStartAddress, decoded.DataStartAddress)
	assert.EqualValues(t, m.ClusterCount*4, decoded.FATSize, "fat_size must be derived from cluster_count")
}

func TestDecodeMetaData_RejectsBadSignature(t *testing.T) {
	buf := make([]byte, SuperblockSize)
	copy(buf, "not-a-fat")

	_, err := DecodeMetaData(buf)
	assert.Error(t, err)
}

func TestDecodeMetaData_RejectsShortBuffer(t *testing.T) {
	_, err := DecodeMetaData(make([]byte, 10))
	assert.Error(t, err)
}

func TestMetaData_DirentsPerCluster(t *testing.T) {
	m := &MetaData{ClusterSize: 1024}
	assert.Equal(t, 1024/DirectoryEntrySize, m.DirentsPerCluster())
}

func TestSuperblockSize_Is29Bytes(t *testing.T) {
	m := &MetaData{}
	assert.Len(t, m.Encode(), 29)
}
