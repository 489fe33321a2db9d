// Package workspace implements the two addressing forms a PageBuilderWorker's
// output location can take (spec.md §6): a disk path under the app's local
// data directory, or an opaque VFS reference of the form
// "vfs:<vfs_id>:<page_id>". The core's only contract on these references is
// that they round-trip verbatim through a creation request (spec.md §8).
package workspace

import (
	"fmt"
	"strings"
)

// Kind discriminates the two reference forms.
type Kind int

const (
	// KindDisk addresses a workspace by filesystem path.
	KindDisk Kind = iota
	// KindVFS addresses a workspace by an opaque VFS session + page id.
	KindVFS
)

// Ref is a parsed workspace reference. The zero value is not a valid
// reference; use ParseRef or NewDiskRef/NewVFSRef to construct one.
type Ref struct {
	kind  Kind
	path  string // KindDisk
	vfsID string // KindVFS
	page  string // KindVFS
}

// NewDiskRef builds a disk-path reference.
func NewDiskRef(path string) Ref {
	return Ref{kind: KindDisk, path: path}
}

// NewVFSRef builds a VFS reference addressing pageID within vfsID.
func NewVFSRef(vfsID, pageID string) Ref {
	return Ref{kind: KindVFS, vfsID: vfsID, page: pageID}
}

// Kind reports which addressing form ref uses.
func (r Ref) Kind() Kind { return r.kind }

// Path returns the disk path. Only meaningful when Kind() == KindDisk.
func (r Ref) Path() string { return r.path }

// VFSID returns the VFS session identifier. Only meaningful when
// Kind() == KindVFS.
func (r Ref) VFSID() string { return r.vfsID }

// PageID returns the page identifier within the VFS. Only meaningful when
// Kind() == KindVFS.
func (r Ref) PageID() string { return r.page }

// IsZero reports whether r is the unconstructed zero value.
func (r Ref) IsZero() bool {
	return r.kind == KindDisk && r.path == "" && r.vfsID == "" && r.page == ""
}

const vfsPrefix = "vfs:"

// String renders ref in the form it was constructed from, byte-identical
// to what ParseRef would consume (spec.md §8's round-trip property).
func (r Ref) String() string {
	if r.kind == KindVFS {
		return fmt.Sprintf("%s%s:%s", vfsPrefix, r.vfsID, r.page)
	}
	return r.path
}

// ParseRef parses s into a Ref. Strings of the form "vfs:<id>:<page>" parse
// as KindVFS; anything else is treated as a disk path. A VFS reference must
// have at least three colon-delimited fields; fewer is a parse error, and
// additional colons are folded into the page id (page ids are allowed to
// contain ':' since the VFS namespace is opaque to this module).
func ParseRef(s string) (Ref, error) {
	if strings.HasPrefix(s, vfsPrefix) {
		rest := strings.TrimPrefix(s, vfsPrefix)
		idx := strings.IndexByte(rest, ':')
		if idx < 0 {
			return Ref{}, fmt.Errorf("workspace: malformed vfs reference %q: missing page id", s)
		}
		vfsID, page := rest[:idx], rest[idx+1:]
		if vfsID == "" || page == "" {
			return Ref{}, fmt.Errorf("workspace: malformed vfs reference %q: empty id or page", s)
		}
		return NewVFSRef(vfsID, page), nil
	}
	if s == "" {
		return Ref{}, fmt.Errorf("workspace: empty reference")
	}
	return NewDiskRef(s), nil
}
