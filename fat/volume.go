package fat

import (
	pferrors "github.com/zapfs/pseudofat/errors"
	"github.com/zapfs/pseudofat/image"
)

// WorkingDirectory is the in-memory cursor into the directory tree: the cluster
// address of the current directory, its absolute path (always ending in "/"), and a
// snapshot of its entries as of the last refresh.
type WorkingDirectory struct {
	Address ClusterID
	Path    string
	Entries []DirectoryEntry
}

// clone returns a copy of the working directory, used to save/restore state around a
// mutating operation that might fail partway through.
func (wd WorkingDirectory) clone() WorkingDirectory {
	entries := make([]DirectoryEntry, len(wd.Entries))
	copy(entries, wd.Entries)
	return WorkingDirectory{Address: wd.Address, Path: wd.Path, Entries: entries}
}

// Volume is the top-level handle for an open pseudo-FAT image: the image lifecycle
// state machine (CLOSED -> OPEN_UNFORMATTED -> OPEN_FORMATTED), plus every layer built
// on top of it once it's formatted.
type Volume struct {
	img     *image.Image
	Meta    *MetaData
	fat     *FATEngine
	cluster *ClusterStore
	dirs    *DirectoryLayer

	formatted   bool
	rootAddress ClusterID
	cwd         WorkingDirectory
}

// Open opens (or creates, if absent) the image file at path. If the file already holds
// a valid superblock, the volume transitions straight to OPEN_FORMATTED and the working
// directory is seeded at root; otherwise it's OPEN_UNFORMATTED until Format is called.
func Open(path string) (*Volume, error) {
	img, err := image.Open(path)
	if err != nil {
		return nil, err
	}
	return openVolume(img)
}

// OpenMemory is the in-memory equivalent of Open, used by tests.
func OpenMemory(data []byte) (*Volume, error) {
	return openVolume(image.OpenMemory(data))
}

func openVolume(img *image.Image) (*Volume, error) {
	v := &Volume{img: img}

	size, err := img.Size()
	if err != nil {
		return nil, err
	}
	if size < SuperblockSize {
		return v, nil
	}

	raw, err := img.Read(0, SuperblockSize)
	if err != nil {
		return nil, err
	}
	meta, err := DecodeMetaData(raw)
	if err != nil {
		// Not a recognizable superblock: treat as OPEN_UNFORMATTED rather than failing
		// outright, since an empty or foreign file is a valid starting point for format.
		return v, nil
	}

	v.mountFormatted(meta)
	return v, nil
}

func (v *Volume) mountFormatted(meta *MetaData) {
	v.Meta = meta
	v.fat = newFATEngine(v.img, meta)
	v.cluster = newClusterStore(v.img, meta)
	v.dirs = newDirectoryLayer(v.cluster, meta)
	v.formatted = true
	v.rootAddress = v.fat.ClusterIndexToAddress(0)
	v.resetCwdToRoot()
}

// IsFormatted reports whether the volume has a valid superblock (OPEN_FORMATTED).
func (v *Volume) IsFormatted() bool {
	return v.formatted
}

// FATCell exposes the raw FAT cell value at a cluster index, for the `fat`
// diagnostic dump.
func (v *Volume) FATCell(index uint32) (int32, error) {
	return v.fat.ReadCell(index)
}

// Close releases the backing image.
func (v *Volume) Close() error {
	return v.img.Close()
}

// Cwd returns a copy of the current working directory snapshot.
func (v *Volume) Cwd() WorkingDirectory {
	return v.cwd.clone()
}

func (v *Volume) resetCwdToRoot() {
	v.cwd = WorkingDirectory{Address: v.rootAddress, Path: "/"}
	v.refreshCwd()
}

func (v *Volume) refreshCwd() {
	entries, err := v.dirs.ListEntries(v.cwd.Address)
	if err != nil {
		// Can't happen on a consistent volume; leave the stale snapshot rather than
		// panicking mid-operation.
		return
	}
	v.cwd.Entries = entries
}

// Format rewrites the entire image as a fresh, empty pseudo-FAT volume of the given
// total size in bytes (superblock + FAT + data). See SPEC_FULL.md section 4.6.13.
func (v *Volume) Format(sizeBytes int64) error {
	if sizeBytes <= SuperblockSize {
		return pferrors.ErrInvalidArgument.WithMessage("image too small to hold a superblock")
	}

	clusterSize := uint32(DefaultClusterSize)
	remaining := sizeBytes - SuperblockSize
	clusterCount := uint32(remaining / int64(clusterSize+4))
	if clusterCount == 0 {
		return pferrors.ErrInvalidArgument.WithMessage("image too small to hold any clusters")
	}

	fatStart := uint32(SuperblockSize)
	fatSize := clusterCount * 4
	dataStart := fatStart + fatSize

	meta := &MetaData{
		DiskSize:         uint32(sizeBytes),
		ClusterSize:      clusterSize,
		ClusterCount:     clusterCount,
		FATStartAddress:  fatStart,
		FATSize:          fatSize,
		DataStartAddress: dataStart,
	}

	totalSize := int64(dataStart) + int64(clusterCount)*int64(clusterSize)
	if err := v.img.Reset(totalSize); err != nil {
		return err
	}
	if err := v.img.Write(0, meta.Encode()); err != nil {
		return err
	}

	v.mountFormatted(meta)

	for i := uint32(0); i < clusterCount; i++ {
		if err := v.fat.WriteCell(i, Free); err != nil {
			return err
		}
		if err := v.cluster.ZeroCluster(v.fat.ClusterIndexToAddress(i)); err != nil {
			return err
		}
	}

	if err := v.fat.WriteCell(0, EOF); err != nil {
		return err
	}

	root := v.rootAddress
	if err := v.writeDotEntries(root, root); err != nil {
		return err
	}

	v.resetCwdToRoot()
	return nil
}

// withWorkingDirectoryGuard implements the save/resolve/restore-or-refresh idiom every
// mutating file operation follows: it snapshots the working directory, runs fn, and on
// failure restores the snapshot; on success it refreshes the entries snapshot from disk
// instead, since fn may have changed the cwd cluster's contents.
func (v *Volume) withWorkingDirectoryGuard(fn func() error) error {
	saved := v.cwd.clone()
	if err := fn(); err != nil {
		v.cwd = saved
		return err
	}
	v.refreshCwd()
	return nil
}

// writeDotEntries writes the "." and ".." slots into a freshly allocated directory
// cluster at addr, whose parent is at parentAddr (for root, parentAddr == addr).
func (v *Volume) writeDotEntries(addr ClusterID, parentAddr ClusterID) error {
	if err := v.dirs.AppendEntry(addr, DirectoryEntry{
		Name: ".", IsDirectory: true, StartCluster: addr,
	}); err != nil {
		return err
	}
	return v.dirs.AppendEntry(addr, DirectoryEntry{
		Name: "..", IsDirectory: true, StartCluster: parentAddr,
	})
}
