// Package mount provides a composite vfs.Backend that routes each path to
// one of several mounted backends by longest-matching-prefix, generalizing
// the teacher's Router pattern matching (router.go) and MountableFileSystem
// mount-point dispatch (dp_mountablefilesystem.go) into a single Backend
// implementation the core can use without knowing mounts exist.
package mount

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/vfscore/vfs"
)

type entry struct {
	prefix  string
	backend *vfs.Backend
}

// Table is a mutable mount table: New returns one pre-wired as a
// *vfs.Backend, and callers keep the *Table to add further mounts.
type Table struct {
	mounts []entry
}

// New returns an empty mount table plus the *vfs.Backend view over it.
// Mount "/" to something before using it, or every call on a path no mount
// covers will fail with NotFound.
func New() (*Table, *vfs.Backend) {
	t := &Table{}
	return t, &vfs.Backend{
		Name: "mount",
		Capabilities: vfs.Capabilities{
			Append:       true,
			RangeRead:    true,
			RangeWrite:   true,
			Directory:    true,
			NativeStream: true,
		},
		Head:        t.head,
		List:        t.list,
		Mkcol:       t.mkcol,
		Rm:          t.rm,
		Rmdir:       t.rmdir,
		Load:        t.load,
		Save:        t.save,
		Patch:       t.patch,
		ReadStream:  t.readStream,
		WriteStream: t.writeStream,
		ToURL:       t.toURL,
	}
}

// Mount attaches backend at prefix (an already-normalized absolute path).
// Longer prefixes take precedence over shorter ones regardless of mount
// order, mirroring the Router's most-specific-pattern-wins matching.
func (t *Table) Mount(prefix string, backend *vfs.Backend) {
	t.mounts = append(t.mounts, entry{prefix: prefix, backend: backend})
	sort.Slice(t.mounts, func(i, j int) bool {
		return len(t.mounts[i].prefix) > len(t.mounts[j].prefix)
	})
}

// resolve finds the most specific mount covering path and returns the
// backend plus the path with that mount's prefix stripped.
func (t *Table) resolve(path string) (*vfs.Backend, string, error) {
	for _, m := range t.mounts {
		if m.prefix == "/" {
			return m.backend, path, nil
		}
		if path == m.prefix || strings.HasPrefix(path, m.prefix+"/") {
			rel := strings.TrimPrefix(path, m.prefix)
			if rel == "" {
				rel = "/"
			}
			return m.backend, rel, nil
		}
	}
	return nil, "", &vfs.Error{Kind: vfs.KindNotFound, Path: path, Message: "no mount covers this path"}
}

func (t *Table) head(ctx context.Context, path string) (vfs.Stats, error) {
	b, rel, err := t.resolve(path)
	if err != nil {
		return vfs.Stats{}, err
	}
	st, err := b.Head(ctx, rel)
	st.Path = path
	return st, err
}

func (t *Table) list(ctx context.Context, path string) ([]vfs.Stats, error) {
	b, rel, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := b.List(ctx, rel)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Path = path + "/" + vfs.Basename(entries[i].Path)
	}
	return entries, nil
}

func (t *Table) mkcol(ctx context.Context, path string, opts vfs.MkcolOptions) error {
	b, rel, err := t.resolve(path)
	if err != nil {
		return err
	}
	return b.Mkcol(ctx, rel, opts)
}

func (t *Table) rm(ctx context.Context, path string) error {
	b, rel, err := t.resolve(path)
	if err != nil {
		return err
	}
	return b.Rm(ctx, rel)
}

func (t *Table) rmdir(ctx context.Context, path string) error {
	b, rel, err := t.resolve(path)
	if err != nil {
		return err
	}
	return b.Rmdir(ctx, rel)
}

func (t *Table) load(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	b, rel, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	return b.Load(ctx, rel, offset, length)
}

func (t *Table) save(ctx context.Context, path string, data []byte, offset int64, append bool) error {
	b, rel, err := t.resolve(path)
	if err != nil {
		return err
	}
	return b.Save(ctx, rel, data, offset, append)
}

func (t *Table) patch(ctx context.Context, path string, props vfs.Props, merge bool) error {
	b, rel, err := t.resolve(path)
	if err != nil {
		return err
	}
	return b.Patch(ctx, rel, props, merge)
}

func (t *Table) readStream(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	b, rel, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	if !b.Capabilities.NativeStream {
		return nil, &vfs.Error{Kind: vfs.KindNotSupported, Path: path, Message: "mounted backend has no native stream"}
	}
	return b.ReadStream(ctx, rel, offset, length)
}

func (t *Table) writeStream(ctx context.Context, path string, offset int64, append bool) (io.WriteCloser, error) {
	b, rel, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	if !b.Capabilities.NativeStream {
		return nil, &vfs.Error{Kind: vfs.KindNotSupported, Path: path, Message: "mounted backend has no native stream"}
	}
	return b.WriteStream(ctx, rel, offset, append)
}

func (t *Table) toURL(ctx context.Context, path string, kind vfs.URLKind) (string, error) {
	b, rel, err := t.resolve(path)
	if err != nil {
		return "", err
	}
	if b.ToURL == nil {
		return "", &vfs.Error{Kind: vfs.KindNotSupported, Path: path, Message: "mounted backend has no toURL"}
	}
	return b.ToURL(ctx, rel, kind)
}
