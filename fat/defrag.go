package fat

import (
	pferrors "github.com/zapfs/pseudofat/errors"
)

// Defrag relocates a file's cluster chain so its indices are consecutive and
// ascending. See SPEC_FULL.md section 4.6.12.
func (v *Volume) Defrag(path string) error {
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

		oldChain, err := v.fat.WalkChain(entry.StartCluster)
		if err != nil {
			return err
		}
		if isConsecutiveAscending(v.fat, oldChain) {
			return nil
		}

		newIndices, err := v.reserveConsecutiveFreeIndices(len(oldChain))
		if err != nil {
			return err
		}

		clusterSize := v.Meta.ClusterSize
		for i, oldAddr := range oldChain {
			newAddr := v.fat.ClusterIndexToAddress(newIndices[i])
			buf, err := v.cluster.ReadCluster(oldAddr, clusterSize)
			if err != nil {
				return err
			}
			if err := v.cluster.WriteCluster(newAddr, buf, clusterSize); err != nil {
				return err
			}
		}

		for i, idx := range newIndices {
			if i == len(newIndices)-1 {
				if err := v.fat.WriteCell(idx, EOF); err != nil {
					return err
				}
				continue
			}
			nextAddr := v.fat.ClusterIndexToAddress(newIndices[i+1])
			if err := v.fat.WriteCell(idx, int32(nextAddr)); err != nil {
				return err
			}
		}

		for _, oldAddr := range oldChain {
			index := v.fat.AddressToClusterIndex(oldAddr)
			if err := v.fat.WriteCell(index, Free); err != nil {
				return err
			}
			if err := v.cluster.ZeroCluster(oldAddr); err != nil {
				return err
			}
		}

		newFirstAddr := v.fat.ClusterIndexToAddress(newIndices[0])
		if err := v.dirs.RemoveEntry(result.ParentAddress, entry.StartCluster); err != nil {
			return err
		}
		entry.StartCluster = newFirstAddr
		return v.dirs.AppendEntry(result.ParentAddress, entry)
	})
}

// isConsecutiveAscending reports whether chain already occupies consecutive, ascending
// cluster indices -- the fast path that lets defrag be a no-op.
func isConsecutiveAscending(fe *FATEngine, chain []ClusterID) bool {
	for i := 1; i < len(chain); i++ {
		prev := fe.AddressToClusterIndex(chain[i-1])
		cur := fe.AddressToClusterIndex(chain[i])
		if cur != prev+1 {
			return false
		}
	}
	return true
}

// reserveConsecutiveFreeIndices claims n consecutive free cluster indices using a
// sliding window: each scanned candidate is provisionally marked EOF so it's excluded
// from further scans; whenever a new candidate doesn't extend the run, the whole
// window is released back to a transient `reclaiming` sentinel (never FREE directly,
// since FindFreeCluster would then risk handing the same index back out mid-scan) and
// the window restarts at the new candidate. Once a dense window of size n is found,
// every cell still holding `reclaiming` is converted back to FREE.
func (v *Volume) reserveConsecutiveFreeIndices(n int) ([]uint32, error) {
	var window []uint32

	for len(window) < n {
		idx, ok, err := v.fat.FindFreeCluster()
		if err != nil {
			return nil, err
		}
		if !ok {
			if releaseErr := v.releaseWindow(window); releaseErr != nil {
				return nil, releaseErr
			}
			return nil, pferrors.ErrNoSpaceOnDevice
		}

		if err := v.fat.WriteCell(idx, EOF); err != nil {
			return nil, err
		}

		if len(window) > 0 && idx != window[len(window)-1]+1 {
			if err := v.releaseWindow(window); err != nil {
				return nil, err
			}
			window = []uint32{idx}
		} else {
			window = append(window, idx)
		}
	}

	for i := uint32(0); i < v.Meta.ClusterCount; i++ {
		cell, err := v.fat.ReadCell(i)
		if err != nil {
			return nil, err
		}
		if cell == reclaiming {
			if err := v.fat.WriteCell(i, Free); err != nil {
				return nil, err
			}
		}
	}

	return window, nil
}

// releaseWindow marks every claimed index in window with the transient reclaiming
// sentinel.
func (v *Volume) releaseWindow(window []uint32) error {
	for _, idx := range window {
		if err := v.fat.WriteCell(idx, reclaiming); err != nil {
			return err
		}
	}
	return nil
}
