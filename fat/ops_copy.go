package fat

import (
	"os"

	pferrors "github.com/zapfs/pseudofat/errors"
)

// allocateChainWriting allocates a fresh chain of n clusters and writes each one via
// chunkAt(i), following the ordering constraint from SPEC_FULL.md section 4.6.8: every
// new cluster is marked EOF before the previous cluster is rewritten to point at it, so
// FindFreeCluster never re-selects an in-flight cluster on a later iteration. Returns
// the address of the first cluster in the chain.
func (v *Volume) allocateChainWriting(n int, chunkAt func(i int) ([]byte, uint32, error)) (ClusterID, error) {
	var firstAddr ClusterID
	var prevIndex uint32
	havePrev := false

	for i := 0; i < n; i++ {
		index, ok, err := v.fat.FindFreeCluster()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, pferrors.ErrNoSpaceOnDevice
		}
		addr := v.fat.ClusterIndexToAddress(index)

		if err := v.fat.WriteCell(index, EOF); err != nil {
			return 0, err
		}
		if i == 0 {
			firstAddr = addr
		}
		if havePrev {
			if err := v.fat.WriteCell(prevIndex, int32(addr)); err != nil {
				return 0, err
			}
		}

		data, length, err := chunkAt(i)
		if err != nil {
			return 0, err
		}
		if err := v.cluster.WriteCluster(addr, data, length); err != nil {
			return 0, err
		}

		prevIndex = index
		havePrev = true
	}

	return firstAddr, nil
}

// Incp imports a host file into the image. See SPEC_FULL.md section 4.6.8.
func (v *Volume) Incp(hostSrc string, imageDst string) error {
	return v.withWorkingDirectoryGuard(func() error {
		data, err := os.ReadFile(hostSrc)
		if err != nil {
			return pferrors.ErrNotFound.WithMessage(err.Error())
		}

		result, err := v.Resolve(imageDst, v.cwd.Address)
		if err != nil {
			return err
		}
		if _, exists, err := v.dirs.FindChild(result.ParentAddress, result.Leaf); err != nil {
			return err
		} else if exists {
			return pferrors.ErrExists
		}

		size := uint32(len(data))
		clusterSize := v.Meta.ClusterSize
		n := int(v.fat.ClustersForSize(size))

		firstAddr, err := v.allocateChainWriting(n, func(i int) ([]byte, uint32, error) {
			start := i * int(clusterSize)
			end := start + int(clusterSize)
			if end > len(data) {
				end = len(data)
			}
			buf := make([]byte, clusterSize)
			copy(buf, data[start:end])
			return buf, uint32(end - start), nil
		})
		if err != nil {
			return err
		}

		return v.dirs.AppendEntry(result.ParentAddress, DirectoryEntry{
			Name:         result.Leaf,
			IsDirectory:  false,
			Size:         size,
			StartCluster: firstAddr,
		})
	})
}

// Outcp exports a file from the image to the host file system. See SPEC_FULL.md
// section 4.6.9.
func (v *Volume) Outcp(imageSrc string, hostDst string) error {
	result, err := v.Resolve(imageSrc, v.cwd.Address)
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

	data, err := v.readFileChain(entry.StartCluster, entry.Size)
	if err != nil {
		return err
	}

	if err := os.WriteFile(hostDst, data, 0o644); err != nil {
		return pferrors.ErrPathNotFound.WithMessage(err.Error())
	}
	return nil
}

// Cp copies a file within the image to a new path, allocating a parallel cluster
// chain rather than sharing the source's. See SPEC_FULL.md section 4.6.10.
func (v *Volume) Cp(imageSrc string, imageDst string) error {
	return v.withWorkingDirectoryGuard(func() error {
		srcResult, err := v.Resolve(imageSrc, v.cwd.Address)
		if err != nil {
			return err
		}
		srcEntry, exists, err := v.dirs.FindChild(srcResult.ParentAddress, srcResult.Leaf)
		if err != nil {
			return err
		}
		if !exists {
			return pferrors.ErrNotFound
		}
		if srcEntry.IsDirectory {
			return pferrors.ErrIsADirectory
		}

		dstResult, err := v.Resolve(imageDst, v.cwd.Address)
		if err != nil {
			return err
		}
		if _, exists, err := v.dirs.FindChild(dstResult.ParentAddress, dstResult.Leaf); err != nil {
			return err
		} else if exists {
			return pferrors.ErrExists
		}

		chain, err := v.fat.WalkChain(srcEntry.StartCluster)
		if err != nil {
			return err
		}
		clusterSize := v.Meta.ClusterSize

		firstAddr, err := v.allocateChainWriting(len(chain), func(i int) ([]byte, uint32, error) {
			length := clusterSize
			if i == len(chain)-1 {
				tail := srcEntry.Size % clusterSize
				if tail != 0 || srcEntry.Size == 0 {
					length = tail
				}
			}
			buf, err := v.cluster.ReadCluster(chain[i], clusterSize)
			if err != nil {
				return nil, 0, err
			}
			return buf, length, nil
		})
		if err != nil {
			return err
		}

		return v.dirs.AppendEntry(dstResult.ParentAddress, DirectoryEntry{
			Name:         dstResult.Leaf,
			IsDirectory:  false,
			Size:         srcEntry.Size,
			StartCluster: firstAddr,
		})
	})
}

// Mv renames/relocates an entry within the image. No data or FAT cells are touched.
// See SPEC_FULL.md section 4.6.11.
func (v *Volume) Mv(imageSrc string, imageDst string) error {
	return v.withWorkingDirectoryGuard(func() error {
		srcResult, err := v.Resolve(imageSrc, v.cwd.Address)
		if err != nil {
			return err
		}
		srcEntry, exists, err := v.dirs.FindChild(srcResult.ParentAddress, srcResult.Leaf)
		if err != nil {
			return err
		}
		if !exists {
			return pferrors.ErrNotFound
		}

		dstResult, err := v.Resolve(imageDst, v.cwd.Address)
		if err != nil {
			return err
		}
		if _, exists, err := v.dirs.FindChild(dstResult.ParentAddress, dstResult.Leaf); err != nil {
			return err
		} else if exists {
			return pferrors.ErrExists
		}

		if err := v.dirs.RemoveEntry(srcResult.ParentAddress, srcEntry.StartCluster); err != nil {
			return err
		}

		return v.dirs.AppendEntry(dstResult.ParentAddress, DirectoryEntry{
			Name:         dstResult.Leaf,
			IsDirectory:  srcEntry.IsDirectory,
			Size:         srcEntry.Size,
			StartCluster: srcEntry.StartCluster,
		})
	})
}
