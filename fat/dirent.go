package fat

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"

	pferrors "github.com/zapfs/pseudofat/errors"
)

// NameSize is the fixed width of the item_name field, NUL-padded.
const NameSize = 12

// DirectoryEntrySize is the fixed on-disk size of one directory entry: 12 (name) +
// 1 (is_directory) + 4 (size) + 4 (start_cluster) = 21 bytes.
const DirectoryEntrySize = NameSize + 1 + 4 + 4

// DirectoryEntry is the fixed-width record describing one child of a directory.
// StartCluster == 0 means the slot is empty.
type DirectoryEntry struct {
	Name         string
	IsDirectory  bool
	Size         uint32
	StartCluster ClusterID
}

// Empty reports whether this slot holds no entry.
func (e *DirectoryEntry) Empty() bool {
	return e.StartCluster == 0
}

// Encode serializes the entry into its fixed 21-byte on-disk form. It builds the
// buffer incrementally with bytewriter at precise cursor positions rather than
// encoding/binary's struct mode, the same tool the teacher library reaches for
// whenever it assembles a byte buffer piece by piece (utilities/compression,
// file_systems/unixv1/format.go).
func (e *DirectoryEntry) Encode() []byte {
	buf := make([]byte, DirectoryEntrySize)
	w := bytewriter.New(buf)

	var nameField [NameSize]byte
	copy(nameField[:], e.Name)
	w.Write(nameField[:])

	if e.IsDirectory {
		w.Write([]byte{1})
	} else {
		w.Write([]byte{0})
	}

	var sizeField [4]byte
	binary.LittleEndian.PutUint32(sizeField[:], e.Size)
	w.Write(sizeField[:])

	var clusterField [4]byte
	binary.LittleEndian.PutUint32(clusterField[:], uint32(e.StartCluster))
	w.Write(clusterField[:])

	return buf
}

// DecodeDirectoryEntry parses a 21-byte directory entry record.
func DecodeDirectoryEntry(buf []byte) DirectoryEntry {
	name := string(bytes.TrimRight(buf[0:NameSize], "\x00"))
	isDir := buf[NameSize] != 0
	size := binary.LittleEndian.Uint32(buf[NameSize+1 : NameSize+5])
	start := binary.LittleEndian.Uint32(buf[NameSize+5 : NameSize+9])

	return DirectoryEntry{
		Name:         name,
		IsDirectory:  isDir,
		Size:         size,
		StartCluster: ClusterID(start),
	}
}

// -----------------------------------------------------------------------------
// Directory layer: enumerate/append/remove entries within a single directory cluster.

// DirectoryLayer implements the Directory Layer component: it knows how to interpret a
// directory's single cluster as a sequence of fixed-width slots.
type DirectoryLayer struct {
	clusters *ClusterStore
	meta     *MetaData
}

func newDirectoryLayer(clusters *ClusterStore, meta *MetaData) *DirectoryLayer {
	return &DirectoryLayer{clusters: clusters, meta: meta}
}

// ListEntries returns every non-empty slot in the directory cluster at addr, including
// "." and "..".
func (dl *DirectoryLayer) ListEntries(addr ClusterID) ([]DirectoryEntry, error) {
	raw, err := dl.clusters.ReadCluster(addr, dl.meta.ClusterSize)
	if err != nil {
		return nil, err
	}

	entries := []DirectoryEntry{}
	slots := dl.meta.DirentsPerCluster()
	for i := 0; i < slots; i++ {
		offset := i * DirectoryEntrySize
		entry := DecodeDirectoryEntry(raw[offset : offset+DirectoryEntrySize])
		if !entry.Empty() {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// AppendEntry writes `entry` into the first empty slot of the directory cluster at
// addr. Returns ErrNoSpaceOnDevice if the directory is full.
func (dl *DirectoryLayer) AppendEntry(addr ClusterID, entry DirectoryEntry) error {
	raw, err := dl.clusters.ReadCluster(addr, dl.meta.ClusterSize)
	if err != nil {
		return err
	}

	slots := dl.meta.DirentsPerCluster()
	for i := 0; i < slots; i++ {
		offset := i * DirectoryEntrySize
		existing := DecodeDirectoryEntry(raw[offset : offset+DirectoryEntrySize])
		if existing.Empty() {
			encoded := entry.Encode()
			copy(raw[offset:offset+DirectoryEntrySize], encoded)
			return dl.clusters.WriteCluster(addr, raw, dl.meta.ClusterSize)
		}
	}
	return pferrors.ErrNoSpaceOnDevice.WithMessage("directory is full")
}

// RemoveEntry zeroes out the slot whose StartCluster matches `startCluster`.
func (dl *DirectoryLayer) RemoveEntry(addr ClusterID, startCluster ClusterID) error {
	raw, err := dl.clusters.ReadCluster(addr, dl.meta.ClusterSize)
	if err != nil {
		return err
	}

	slots := dl.meta.DirentsPerCluster()
	empty := make([]byte, DirectoryEntrySize)
	for i := 0; i < slots; i++ {
		offset := i * DirectoryEntrySize
		existing := DecodeDirectoryEntry(raw[offset : offset+DirectoryEntrySize])
		if !existing.Empty() && existing.StartCluster == startCluster {
			copy(raw[offset:offset+DirectoryEntrySize], empty)
			return dl.clusters.WriteCluster(addr, raw, dl.meta.ClusterSize)
		}
	}
	return pferrors.ErrNotFound.WithMessage("no entry with that start cluster")
}

// FindChild looks up a child entry by name within the directory cluster at addr.
func (dl *DirectoryLayer) FindChild(addr ClusterID, name string) (DirectoryEntry, bool, error) {
	entries, err := dl.ListEntries(addr)
	if err != nil {
		return DirectoryEntry{}, false, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, true, nil
		}
	}
	return DirectoryEntry{}, false, nil
}
