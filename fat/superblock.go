// Package fat implements the pseudo-FAT file system: a File Allocation Table chaining
// data clusters into files, a directory tree anchored at a fixed root cluster, and the
// path resolution and file operations that traverse and mutate them.
package fat

import (
	"encoding/binary"

	pferrors "github.com/zapfs/pseudofat/errors"
)

// Signature is the 9-byte magic that identifies a formatted image.
var Signature = [9]byte{'z', 'a', 'p', 'p', 'e', 'd', '9', '9', 0}

// SuperblockSize is the on-disk size of the superblock, in bytes. Pinned by the
// external binary format contract: signature(9) + disk_size(4) + cluster_size(4) +
// cluster_count(4) + fat_start_address(4) + data_start_address(4) = 29.
const SuperblockSize = 29

// DefaultClusterSize is the fixed cluster size `format` always uses.
const DefaultClusterSize = 1024

// MetaData is the in-memory model of the superblock. FATSize is a derived convenience
// field (cluster_count * 4 bytes, one FAT cell per cluster); it is never itself written
// to disk; see SPEC_FULL.md section 3 for why.
type MetaData struct {
	DiskSize        uint32
	ClusterSize     uint32
	ClusterCount    uint32
	FATStartAddress uint32
	FATSize         uint32
	DataStartAddress uint32
}

// Encode serializes the superblock field-by-field into its fixed 29-byte on-disk
// layout, the same hand-rolled-byte-offset style the teacher library uses to decode its
// own boot sector (common.go's NewFATBootSectorFromStream) rather than leaning on
// encoding/binary's struct mode, which would let Go's own padding rules silently
// diverge from the pinned size.
func (m *MetaData) Encode() []byte {
	buf := make([]byte, SuperblockSize)
	copy(buf[0:9], Signature[:])
	binary.LittleEndian.PutUint32(buf[9:13], m.DiskSize)
	binary.LittleEndian.PutUint32(buf[13:17], m.ClusterSize)
	binary.LittleEndian.PutUint32(buf[17:21], m.ClusterCount)
	binary.LittleEndian.PutUint32(buf[21:25], m.FATStartAddress)
	binary.LittleEndian.PutUint32(buf[25:29], m.DataStartAddress)
	return buf
}

// DecodeMetaData parses a 29-byte superblock. FATSize is recomputed from ClusterCount
// rather than read off the wire.
func DecodeMetaData(buf []byte) (*MetaData, error) {
	if len(buf) < SuperblockSize {
		return nil, pferrors.ErrFileSystemCorrupted.WithMessage("short superblock read")
	}
	if string(buf[0:9]) != string(Signature[:]) {
		return nil, pferrors.ErrFileSystemCorrupted.WithMessage("bad signature")
	}

	m := &MetaData{
		DiskSize:         binary.LittleEndian.Uint32(buf[9:13]),
		ClusterSize:      binary.LittleEndian.Uint32(buf[13:17]),
		ClusterCount:     binary.LittleEndian.Uint32(buf[17:21]),
		FATStartAddress:  binary.LittleEndian.Uint32(buf[21:25]),
		DataStartAddress: binary.LittleEndian.Uint32(buf[25:29]),
	}
	m.FATSize = m.ClusterCount * 4
	return m, nil
}

// DirentsPerCluster returns how many 21-byte DirectoryEntry slots fit in one cluster.
func (m *MetaData) DirentsPerCluster() int {
	return int(m.ClusterSize) / DirectoryEntrySize
}
