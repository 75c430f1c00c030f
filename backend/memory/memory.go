// Package memory provides an in-memory vfs.Backend, in the spirit of the
// teacher's MountableFileSystem virtual directory tree
// (dp_mountablefilesystem.go) repurposed from mount routing to leaf storage.
// It deliberately declares no append and no range-write capability, so the
// core's read-modify-write emulation path is always exercised by at least
// one reference backend; range-read is native, to exercise that fast path
// against a non-local backend too.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vfscore/vfs"
)

type node struct {
	id      uuid.UUID
	dir     bool
	data    []byte
	props   vfs.Props
	modTime time.Time
	deleted *time.Time
	kids    map[string]*node
}

// Backend is an in-memory vfs.Backend. Zero value is not usable; use New.
type Backend struct {
	mu   sync.Mutex
	root *node
}

// New returns an empty in-memory Backend wrapped as a *vfs.Backend.
func New() *vfs.Backend {
	b := &Backend{root: &node{id: uuid.New(), dir: true, kids: map[string]*node{}, modTime: time.Now()}}
	return &vfs.Backend{
		Name: "memory",
		Capabilities: vfs.Capabilities{
			Append:       false,
			RangeRead:    true,
			RangeWrite:   false,
			Directory:    true,
			NativeStream: false,
		},
		Head:  b.head,
		List:  b.list,
		Mkcol: b.mkcol,
		Rm:    b.rm,
		Rmdir: b.rm,
		Load:  b.load,
		Save:  b.save,
		Patch: b.patch,
	}
}

func segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (b *Backend) find(path string) (*node, bool) {
	n := b.root
	for _, seg := range segments(path) {
		if n.kids == nil {
			return nil, false
		}
		next, ok := n.kids[seg]
		if !ok {
			return nil, false
		}
		n = next
	}
	return n, true
}

func (b *Backend) findParent(path string, create bool) (*node, string, bool) {
	segs := segments(path)
	if len(segs) == 0 {
		return nil, "", false
	}
	n := b.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := n.kids[seg]
		if !ok {
			if !create {
				return nil, "", false
			}
			next = &node{id: uuid.New(), dir: true, kids: map[string]*node{}, modTime: time.Now()}
			n.kids[seg] = next
		}
		n = next
	}
	return n, segs[len(segs)-1], true
}

func (b *Backend) head(ctx context.Context, path string) (vfs.Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.find(path)
	if !ok {
		return vfs.Stats{}, &vfs.Error{Kind: vfs.KindNotFound, Path: path}
	}
	return statOf(path, n), nil
}

func statOf(path string, n *node) vfs.Stats {
	return vfs.Stats{
		Path:    path,
		Size:    int64(len(n.data)),
		Dir:     n.dir,
		ModTime: n.modTime,
		ETag:    n.id.String(),
		Deleted: n.deleted,
		Props:   n.props.Clone(),
	}
}

func (b *Backend) list(ctx context.Context, path string) ([]vfs.Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.find(path)
	if !ok || !n.dir {
		return nil, &vfs.Error{Kind: vfs.KindNotFound, Path: path}
	}
	names := make([]string, 0, len(n.kids))
	for name := range n.kids {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]vfs.Stats, 0, len(names))
	for _, name := range names {
		childPath := strings.TrimRight(path, "/") + "/" + name
		if path == "/" {
			childPath = "/" + name
		}
		out = append(out, statOf(childPath, n.kids[name]))
	}
	return out, nil
}

func (b *Backend) mkcol(ctx context.Context, path string, opts vfs.MkcolOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent, name, ok := b.findParent(path, true)
	if !ok {
		return &vfs.Error{Kind: vfs.KindSyntax, Path: path}
	}
	if existing, ok := parent.kids[name]; ok {
		if !existing.dir {
			return &vfs.Error{Kind: vfs.KindTypeMismatch, Path: path}
		}
		return nil
	}
	parent.kids[name] = &node{id: uuid.New(), dir: true, kids: map[string]*node{}, modTime: time.Now()}
	return nil
}

func (b *Backend) rm(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent, name, ok := b.findParent(path, false)
	if !ok {
		return &vfs.Error{Kind: vfs.KindNotFound, Path: path}
	}
	delete(parent.kids, name)
	return nil
}

func (b *Backend) load(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.find(path)
	if !ok || n.dir {
		return nil, &vfs.Error{Kind: vfs.KindNotFound, Path: path}
	}
	if offset == 0 && length == 0 {
		out := make([]byte, len(n.data))
		copy(out, n.data)
		return out, nil
	}
	end := offset + length
	if length == 0 || end > int64(len(n.data)) {
		end = int64(len(n.data))
	}
	if offset > end {
		offset = end
	}
	out := make([]byte, end-offset)
	copy(out, n.data[offset:end])
	return out, nil
}

func (b *Backend) save(ctx context.Context, path string, data []byte, offset int64, append bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent, name, ok := b.findParent(path, true)
	if !ok {
		return &vfs.Error{Kind: vfs.KindSyntax, Path: path}
	}
	n, exists := parent.kids[name]
	if !exists {
		n = &node{id: uuid.New()}
		parent.kids[name] = n
	}
	if n.dir {
		return &vfs.Error{Kind: vfs.KindTypeMismatch, Path: path}
	}
	if append {
		n.data = append2(n.data, data)
	} else {
		n.data = append([]byte(nil), data...)
	}
	n.modTime = time.Now()
	return nil
}

func append2(base, more []byte) []byte {
	out := make([]byte, len(base)+len(more))
	copy(out, base)
	copy(out[len(base):], more)
	return out
}

func (b *Backend) patch(ctx context.Context, path string, props vfs.Props, merge bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.find(path)
	if !ok {
		return &vfs.Error{Kind: vfs.KindNotFound, Path: path}
	}
	if deleted, ok := props["__deleted"]; ok {
		if t, ok := deleted.(time.Time); ok {
			n.deleted = &t
		}
		return nil
	}
	if merge {
		merged := n.props.Clone()
		if merged == nil {
			merged = vfs.Props{}
		}
		for k, v := range props {
			merged[k] = v
		}
		n.props = merged
	} else {
		n.props = props.Clone()
	}
	return nil
}
