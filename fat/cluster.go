package fat

import (
	bitmap "github.com/boljen/go-bitmap"

	"github.com/zapfs/pseudofat/image"
)

// ClusterStore reads and writes whole cluster payloads. It stages reads and writes
// through a cache that tracks, per cluster index, whether the cluster's bytes are
// currently loaded and whether they've been modified since the last flush -- the same
// loaded/dirty bitmap design as the teacher library's blockcache package, adapted from
// an arbitrary block size over a generic stream to a cluster-sized view of the data
// region specifically.
//
// Because there is exactly one opener and no crash-recovery goal (SPEC_FULL.md section
// 5), the store flushes a cluster back to the image immediately after every write
// instead of batching dirty clusters for a later Flush/Sync call: "what's on disk is
// always current" is simpler to reason about than a deferred-write cache would be, at
// the cost of a little throughput.
type ClusterStore struct {
	img               *image.Image
	dataStartAddress  uint32
	clusterSize       uint32
	clusterCount      uint32
	loaded            bitmap.Bitmap
	dirty             bitmap.Bitmap
	data              [][]byte
}

func newClusterStore(img *image.Image, meta *MetaData) *ClusterStore {
	count := int(meta.ClusterCount)
	cs := &ClusterStore{
		img:              img,
		dataStartAddress: meta.DataStartAddress,
		clusterSize:      meta.ClusterSize,
		clusterCount:     meta.ClusterCount,
		loaded:           bitmap.NewSlice(count),
		dirty:            bitmap.NewSlice(count),
		data:             make([][]byte, count),
	}
	return cs
}

func (cs *ClusterStore) indexOf(addr ClusterID) int {
	return int((uint32(addr) - cs.dataStartAddress) / cs.clusterSize)
}

func (cs *ClusterStore) ensureLoaded(idx int) error {
	if cs.loaded.Get(idx) {
		return nil
	}
	addr := int64(cs.dataStartAddress) + int64(idx)*int64(cs.clusterSize)
	buf, err := cs.img.Read(addr, int(cs.clusterSize))
	if err != nil {
		return err
	}
	cs.data[idx] = buf
	cs.loaded.Set(idx, true)
	cs.dirty.Set(idx, false)
	return nil
}

func (cs *ClusterStore) flushOne(idx int) error {
	if !cs.dirty.Get(idx) {
		return nil
	}
	addr := int64(cs.dataStartAddress) + int64(idx)*int64(cs.clusterSize)
	if err := cs.img.Write(addr, cs.data[idx]); err != nil {
		return err
	}
	cs.dirty.Set(idx, false)
	return nil
}

// ReadCluster returns the first n bytes of the cluster at addr.
func (cs *ClusterStore) ReadCluster(addr ClusterID, n uint32) ([]byte, error) {
	idx := cs.indexOf(addr)
	if err := cs.ensureLoaded(idx); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, cs.data[idx][:n])
	return out, nil
}

// WriteCluster writes the first n bytes of `data` into the cluster at addr. Bytes in
// the cluster beyond n are left untouched, matching the "overwrite of an allocated
// cluster only touches what's written" contract in SPEC_FULL.md section 4.3.
func (cs *ClusterStore) WriteCluster(addr ClusterID, data []byte, n uint32) error {
	idx := cs.indexOf(addr)
	if err := cs.ensureLoaded(idx); err != nil {
		return err
	}
	copy(cs.data[idx][:n], data[:n])
	cs.dirty.Set(idx, true)
	return cs.flushOne(idx)
}

// ZeroCluster overwrites the full cluster at addr with NUL bytes, used when a cluster
// is freed.
func (cs *ClusterStore) ZeroCluster(addr ClusterID) error {
	idx := cs.indexOf(addr)
	cs.data[idx] = make([]byte, cs.clusterSize)
	cs.loaded.Set(idx, true)
	cs.dirty.Set(idx, true)
	return cs.flushOne(idx)
}
