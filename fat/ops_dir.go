package fat

import (
	"strings"

	pferrors "github.com/zapfs/pseudofat/errors"
)

// Mkdir creates an empty directory at path. See SPEC_FULL.md section 4.6.1.
func (v *Volume) Mkdir(path string) error {
	return v.withWorkingDirectoryGuard(func() error {
		result, err := v.Resolve(path, v.cwd.Address)
		if err != nil {
			return err
		}
		if result.Leaf == "" || result.Leaf == "." || result.Leaf == ".." {
			return pferrors.ErrInvalidArgument.WithMessage("bad directory name")
		}

		if _, exists, err := v.dirs.FindChild(result.ParentAddress, result.Leaf); err != nil {
			return err
		} else if exists {
			return pferrors.ErrDirExists
		}

		clusterIndex, ok, err := v.fat.FindFreeCluster()
		if err != nil {
			return err
		}
		if !ok {
			return pferrors.ErrNoSpaceOnDevice
		}
		newAddr := v.fat.ClusterIndexToAddress(clusterIndex)

		if err := v.fat.WriteCell(clusterIndex, EOF); err != nil {
			return err
		}
		if err := v.writeDotEntries(newAddr, result.ParentAddress); err != nil {
			return err
		}

		return v.dirs.AppendEntry(result.ParentAddress, DirectoryEntry{
			Name:         result.Leaf,
			IsDirectory:  true,
			StartCluster: newAddr,
		})
	})
}

// Rmdir removes an empty directory at path. See SPEC_FULL.md section 4.6.2.
func (v *Volume) Rmdir(path string) error {
	return v.withWorkingDirectoryGuard(func() error {
		result, err := v.Resolve(path, v.cwd.Address)
		if err != nil {
			return err
		}
		if result.Leaf == "." || result.Leaf == "" {
			return pferrors.ErrCannotRemoveCurrentDir
		}

		entry, exists, err := v.dirs.FindChild(result.ParentAddress, result.Leaf)
		if err != nil {
			return err
		}
		if !exists {
			return pferrors.ErrDirNotFound
		}
		if !entry.IsDirectory {
			return pferrors.ErrNotADirectory
		}

		children, err := v.dirs.ListEntries(entry.StartCluster)
		if err != nil {
			return err
		}
		if len(children) > 2 {
			return pferrors.ErrDirectoryNotEmpty
		}

		index := v.fat.AddressToClusterIndex(entry.StartCluster)
		if err := v.fat.WriteCell(index, Free); err != nil {
			return err
		}
		if err := v.cluster.ZeroCluster(entry.StartCluster); err != nil {
			return err
		}

		return v.dirs.RemoveEntry(result.ParentAddress, entry.StartCluster)
	})
}

// Cd changes the working directory. No argument or "/" jumps to root. See
// SPEC_FULL.md section 4.6.6.
func (v *Volume) Cd(path string) error {
	return v.withWorkingDirectoryGuard(func() error {
		if path == "" || path == "/" {
			v.cwd.Address = v.rootAddress
			v.cwd.Path = "/"
			return nil
		}

		addr, err := v.ResolvePath(path, v.cwd.Address)
		if err != nil {
			return err
		}

		v.cwd.Address = addr
		v.cwd.Path = joinPath(v.cwd.Path, path)
		return nil
	})
}

// joinPath applies a cd-style path change against the current absolute path, handling
// "..", ".", and multi-component relative/absolute paths, always returning a path
// ending in "/".
func joinPath(current string, path string) string {
	stack := []string{}
	if !strings.HasPrefix(path, "/") {
		for _, p := range splitPath(current) {
			stack = append(stack, p)
		}
	}

	for _, part := range splitPath(path) {
		switch part {
		case ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, part)
		}
	}

	if len(stack) == 0 {
		return "/"
	}
	return "/" + strings.Join(stack, "/") + "/"
}

// Ls lists the entries of path, or the working directory if path is empty. See
// SPEC_FULL.md section 4.6.5.
func (v *Volume) Ls(path string) ([]DirectoryEntry, error) {
	addr := v.cwd.Address
	if path != "" {
		resolved, err := v.ResolvePath(path, v.cwd.Address)
		if err != nil {
			return nil, err
		}
		addr = resolved
	}
	return v.dirs.ListEntries(addr)
}
