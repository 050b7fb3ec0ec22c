package fat

import (
	pferrors "github.com/zapfs/pseudofat/errors"
)

// Rm deletes a file at path, freeing its entire cluster chain. See SPEC_FULL.md
// section 4.6.3.
func (v *Volume) Rm(path string) error {
	return v.withWorkingDirectoryGuard(func() error {
		result, err := v.Resolve(path, v.cwd.Address)
		if err != nil {
			return err
		}

		entry, exists, err := v.dirs.FindChild(result.ParentAddress, result.Leaf)
		if err != nil {
			return err
		}
		if !exists {
			return pferrors.ErrNotFound
		}
		if entry.IsDirectory {
			return pferrors.ErrIsADirectory
		}

		if err := v.freeChain(entry.StartCluster); err != nil {
			return err
		}

		return v.dirs.RemoveEntry(result.ParentAddress, entry.StartCluster)
	})
}

// freeChain walks the chain starting at start, zeroing and freeing every cluster in
// it.
func (v *Volume) freeChain(start ClusterID) error {
	current := start
	for {
		index := v.fat.AddressToClusterIndex(current)
		next, err := v.fat.ReadCell(index)
		if err != nil {
			return err
		}

		if err := v.cluster.ZeroCluster(current); err != nil {
			return err
		}
		if err := v.fat.WriteCell(index, Free); err != nil {
			return err
		}

		if next == EOF {
			return nil
		}
		current = ClusterID(next)
	}
}

// Cat returns the full contents of the file at path. See SPEC_FULL.md section 4.6.4.
func (v *Volume) Cat(path string) ([]byte, error) {
	result, err := v.Resolve(path, v.cwd.Address)
	if err != nil {
		return nil, err
	}

	entry, exists, err := v.dirs.FindChild(result.ParentAddress, result.Leaf)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pferrors.ErrNotFound
	}
	if entry.IsDirectory {
		return nil, pferrors.ErrIsADirectory
	}

	return v.readFileChain(entry.StartCluster, entry.Size)
}

// readFileChain reads every cluster of a file's chain, truncating the final cluster
// to its valid tail length.
func (v *Volume) readFileChain(start ClusterID, size uint32) ([]byte, error) {
	chain, err := v.fat.WalkChain(start)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, size)
	clusterSize := v.Meta.ClusterSize
	for i, addr := range chain {
		n := clusterSize
		if i == len(chain)-1 {
			tail := size % clusterSize
			if tail != 0 || size == 0 {
				n = tail
			}
		}
		buf, err := v.cluster.ReadCluster(addr, n)
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}
	return out, nil
}

// FileInfo is the result of Info: an entry plus the full chain of cluster addresses
// backing it.
type FileInfo struct {
	Entry DirectoryEntry
	Chain []ClusterID
}

// Info reports name, kind, size, start cluster, and the full cluster chain of the
// entry at path. See SPEC_FULL.md section 4.6.7.
func (v *Volume) Info(path string) (FileInfo, error) {
	result, err := v.Resolve(path, v.cwd.Address)
	if err != nil {
		return FileInfo{}, err
	}

	entry, exists, err := v.dirs.FindChild(result.ParentAddress, result.Leaf)
	if err != nil {
		return FileInfo{}, err
	}
	if !exists {
		return FileInfo{}, pferrors.ErrNotFound
	}

	chain, err := v.fat.WalkChain(entry.StartCluster)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{Entry: entry, Chain: chain}, nil
}
