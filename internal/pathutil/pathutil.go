// Package pathutil parses and manipulates Azure object paths of the form
// "container/dir/file".
package pathutil

import (
	"strings"

	"github.com/jmgilman/go/fs/azure/internal/errs"
)

// Separator is the path component separator.
const Separator = "/"

// Path identifies a position within a storage account: a container and an
// optional path below it.
//
// Values are only produced by Parse and Parent, so every Path has passed
// validation. The zero value is the empty (root) path.
type Path struct {
	full      string
	container string
	relative  string
	segments  []string
}

// Parse converts s into a Path.
//
// URIs and strings starting with a separator are rejected. Trailing
// separators are stripped. A string without a separator names a container.
func Parse(s string) (Path, error) {
	if IsLikelyURI(s) {
		return Path{}, errs.Invalidf(
			"Expected an Azure object path of the form 'container/path...', got a URI: '%s'", s)
	}

	src := RemoveTrailingSlash(s)
	sep := strings.Index(src, Separator)
	if sep == 0 {
		return Path{}, errs.Invalidf("Path cannot start with a separator ('%s')", s)
	}
	if sep < 0 {
		return Path{full: src, container: src}, nil
	}

	p := Path{
		full:      src,
		container: src[:sep],
		relative:  src[sep+1:],
	}
	p.segments = SplitAbstractPath(p.relative)

	if err := ValidateAbstractPathParts(p.segments); err != nil {
		return Path{}, errs.Invalidf("%s in path %s", err.Error(), p.full)
	}

	return p, nil
}

// String returns the normalized full path.
func (p Path) String() string { return p.full }

// Container returns the container name.
func (p Path) Container() string { return p.container }

// Relative returns the path below the container, possibly empty.
func (p Path) Relative() string { return p.relative }

// Segments returns the components of the relative path.
func (p Path) Segments() []string {
	if len(p.segments) == 0 {
		return nil
	}
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// HasParent reports whether the path names something below a container.
func (p Path) HasParent() bool { return p.relative != "" }

// Empty reports whether the path is the root of the account.
func (p Path) Empty() bool { return p.container == "" && p.relative == "" }

// Parent returns the path with its last segment removed.
// It panics if p has no parent; check HasParent first.
func (p Path) Parent() Path {
	if !p.HasParent() {
		panic("pathutil: Parent called on path without parent: " + p.full)
	}

	parent := Path{container: p.container}
	if n := len(p.segments) - 1; n > 0 {
		parent.segments = make([]string, n)
		copy(parent.segments, p.segments[:n])
	}
	parent.relative = JoinAbstractPath(parent.segments)

	if parent.relative == "" {
		parent.full = parent.container
	} else {
		parent.full = parent.container + Separator + parent.relative
	}
	return parent
}

// Equal reports whether p and other name the same container and relative path.
func (p Path) Equal(other Path) bool {
	return p.container == other.container && p.relative == other.relative
}
