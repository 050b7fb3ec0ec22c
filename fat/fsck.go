package fat

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Check walks the entire volume and re-derives every invariant named in
// SPEC_FULL.md section 3, collecting every violation it finds rather than stopping at
// the first. It returns nil if the volume is fully consistent.
func (v *Volume) Check() error {
	var result *multierror.Error

	dataEnd := uint64(v.Meta.DataStartAddress) + uint64(v.Meta.ClusterCount)*uint64(v.Meta.ClusterSize)
	if dataEnd > uint64(v.Meta.DiskSize) {
		result = multierror.Append(result, fmt.Errorf("data region end %d exceeds disk size %d", dataEnd, v.Meta.DiskSize))
	}

	visited := make(map[ClusterID]bool)
	v.checkDirectory(v.rootAddress, v.rootAddress, &result, visited)

	for i := uint32(0); i < v.Meta.ClusterCount; i++ {
		cell, err := v.fat.ReadCell(i)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		switch cell {
		case Free:
			addr := v.fat.ClusterIndexToAddress(i)
			raw, err := v.cluster.ReadCluster(addr, v.Meta.ClusterSize)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			if !allZero(raw) {
				result = multierror.Append(result, fmt.Errorf("free cluster %d is not zeroed", i))
			}
		case Bad:
			result = multierror.Append(result, fmt.Errorf("cluster %d is marked BAD", i))
		case EOF:
			// terminal cluster of some chain; nothing more to check here.
		default:
			next := uint32(cell)
			if next < v.Meta.DataStartAddress || (next-v.Meta.DataStartAddress)%v.Meta.ClusterSize != 0 {
				result = multierror.Append(result, fmt.Errorf("cluster %d has an invalid next-pointer %d", i, next))
			}
		}
	}

	return result.ErrorOrNil()
}

// checkDirectory recursively verifies the "." / ".." invariant and every child's data
// chain, starting at addr whose parent is parentAddr (root's parent is itself).
func (v *Volume) checkDirectory(addr ClusterID, parentAddr ClusterID, result **multierror.Error, visited map[ClusterID]bool) {
	if visited[addr] {
		return
	}
	visited[addr] = true

	entries, err := v.dirs.ListEntries(addr)
	if err != nil {
		*result = multierror.Append(*result, err)
		return
	}

	if len(entries) < 2 ||
		entries[0].Name != "." || entries[0].StartCluster != addr ||
		entries[1].Name != ".." || entries[1].StartCluster != parentAddr {
		*result = multierror.Append(*result, fmt.Errorf("directory at cluster %d has missing or malformed . / .. entries", addr))
	}

	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		if e.IsDirectory {
			v.checkDirectory(e.StartCluster, addr, result, visited)
			continue
		}

		chain, err := v.fat.WalkChain(e.StartCluster)
		if err != nil {
			*result = multierror.Append(*result, fmt.Errorf("file %q: %w", e.Name, err))
			continue
		}
		if expected := v.fat.ClustersForSize(e.Size); uint32(len(chain)) != expected {
			*result = multierror.Append(*result, fmt.Errorf(
				"file %q: chain length %d does not match size %d (expected %d clusters)",
				e.Name, len(chain), e.Size, expected))
		}
	}
}

func allZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
