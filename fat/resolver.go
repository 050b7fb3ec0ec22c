package fat

import (
	"strings"

	pferrors "github.com/zapfs/pseudofat/errors"
)

// ResolveResult is the outcome of resolving a path: the address of the parent
// directory and the unconsumed trailing component ("leaf").
type ResolveResult struct {
	ParentAddress ClusterID
	Leaf          string
}

// Resolve is a pure function: it never mutates working-directory state. It walks every
// component but the last against either the root or `cwdAddress` (depending on whether
// path is absolute), following "." and ".." as it goes, and returns the parent of the
// final component plus that component's name, unconsumed.
func (v *Volume) Resolve(path string, cwdAddress ClusterID) (ResolveResult, error) {
	current := cwdAddress
	if strings.HasPrefix(path, "/") {
		current = v.rootAddress
	}

	parts := splitPath(path)
	if len(parts) == 0 {
		return ResolveResult{ParentAddress: current, Leaf: ""}, nil
	}

	for _, part := range parts[:len(parts)-1] {
		next, err := v.stepInto(current, part)
		if err != nil {
			return ResolveResult{}, err
		}
		current = next
	}

	return ResolveResult{ParentAddress: current, Leaf: parts[len(parts)-1]}, nil
}

// ResolvePath is like Resolve but treats every component as non-leaf, used by `cd` to
// walk an entire path. It returns the address of the directory the path points to.
func (v *Volume) ResolvePath(path string, cwdAddress ClusterID) (ClusterID, error) {
	current := cwdAddress
	if strings.HasPrefix(path, "/") {
		current = v.rootAddress
	}

	for _, part := range splitPath(path) {
		next, err := v.stepInto(current, part)
		if err != nil {
			return 0, err
		}
		current = next
	}
	return current, nil
}

// stepInto resolves a single path component ("." / ".." / a name) against the
// directory at `dirAddress`, returning the cluster address of the named child.
func (v *Volume) stepInto(dirAddress ClusterID, component string) (ClusterID, error) {
	if component == "." || component == "" {
		return dirAddress, nil
	}

	entries, err := v.dirs.ListEntries(dirAddress)
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		if e.Name == component && e.IsDirectory {
			return e.StartCluster, nil
		}
	}
	return 0, pferrors.ErrPathNotFound.WithMessage(component)
}

// splitPath splits a path on "/", dropping empty components (the leading slash of an
// absolute path and any doubled slashes).
func splitPath(path string) []string {
	rawParts := strings.Split(path, "/")
	parts := make([]string, 0, len(rawParts))
	for _, p := range rawParts {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
