package fat

import (
	"encoding/binary"

	pferrors "github.com/zapfs/pseudofat/errors"
	"github.com/zapfs/pseudofat/image"
)

// ClusterID is the byte address of a cluster -- what FAT cells and DirectoryEntry's
// start_cluster field actually store. It is a byte address, not a cluster index; see
// SPEC_FULL.md section 12 for why that distinction matters.
type ClusterID uint32

// Cell sentinels. Any other int32 value is a ClusterID byte address.
const (
	Free int32 = -1
	EOF  int32 = -2
	Bad  int32 = -3

	// reclaiming is a transient sentinel defrag uses to mark clusters it has
	// provisionally claimed for a dense window but may still have to release. It is
	// never written to disk outside of an in-progress defrag call, and is distinct
	// from Free/EOF/Bad so a half-finished defrag can never be mistaken for a
	// consistent volume.
	reclaiming int32 = -4
)

// FATEngine reads and writes individual 32-bit FAT cells and translates between
// cluster indices and cluster byte addresses.
type FATEngine struct {
	img              *image.Image
	fatStartAddress  uint32
	dataStartAddress uint32
	clusterSize      uint32
	clusterCount     uint32
}

func newFATEngine(img *image.Image, meta *MetaData) *FATEngine {
	return &FATEngine{
		img:              img,
		fatStartAddress:  meta.FATStartAddress,
		dataStartAddress: meta.DataStartAddress,
		clusterSize:      meta.ClusterSize,
		clusterCount:     meta.ClusterCount,
	}
}

// ClusterIndexToAddress converts a 0-based cluster index into its byte address in the
// data region.
func (fe *FATEngine) ClusterIndexToAddress(index uint32) ClusterID {
	return ClusterID(fe.dataStartAddress + index*fe.clusterSize)
}

// AddressToClusterIndex converts a cluster byte address back into its 0-based index.
func (fe *FATEngine) AddressToClusterIndex(addr ClusterID) uint32 {
	return (uint32(addr) - fe.dataStartAddress) / fe.clusterSize
}

// ReadCell reads the raw FAT cell for the cluster at `index`.
func (fe *FATEngine) ReadCell(index uint32) (int32, error) {
	offset := int64(fe.fatStartAddress) + int64(index)*4
	raw, err := fe.img.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(raw)), nil
}

// WriteCell writes `value` into the FAT cell for the cluster at `index`.
func (fe *FATEngine) WriteCell(index uint32, value int32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(value))
	offset := int64(fe.fatStartAddress) + int64(index)*4
	return fe.img.Write(offset, buf)
}

// FindFreeCluster scans the FAT from index 0 upward and returns the first cell marked
// Free. The lowest index always wins, which is load-bearing for defrag determinism.
// The second return value is false if the volume is full.
func (fe *FATEngine) FindFreeCluster() (uint32, bool, error) {
	for i := uint32(0); i < fe.clusterCount; i++ {
		cell, err := fe.ReadCell(i)
		if err != nil {
			return 0, false, err
		}
		if cell == Free {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// WalkChain returns every cluster address in the chain starting at `start`, in order,
// and verifies the chain terminates at EOF within ClusterCount steps (guarding against
// a cyclic or corrupted FAT).
func (fe *FATEngine) WalkChain(start ClusterID) ([]ClusterID, error) {
	chain := []ClusterID{}
	current := start

	for i := uint32(0); i < fe.clusterCount+1; i++ {
		chain = append(chain, current)
		index := fe.AddressToClusterIndex(current)
		next, err := fe.ReadCell(index)
		if err != nil {
			return nil, err
		}
		if next == EOF {
			return chain, nil
		}
		if next == Free || next == Bad {
			return nil, pferrors.ErrFileSystemCorrupted.WithMessage("FAT chain hit a free or bad cluster")
		}
		current = ClusterID(next)
	}
	return nil, pferrors.ErrFileSystemCorrupted.WithMessage("FAT chain did not terminate")
}

// ClustersForSize returns how many clusters a file of `size` bytes needs.
func (fe *FATEngine) ClustersForSize(size uint32) uint32 {
	if size == 0 {
		return 1
	}
	return (size + fe.clusterSize - 1) / fe.clusterSize
}
