// Package scoped provides a ChRoot-style vfs.Backend decorator, generalizing
// the teacher's ChRoot (dp_changeroot.go): it prefixes every path before
// delegating, letting one physical backend host multiple independent
// repository roots without a second backend implementation. The prefix is
// joined against an already-normalized path, so a ".." can never escape it.
package scoped

import (
	"context"
	"io"

	"github.com/vfscore/vfs"
)

// To wraps delegate so every path is resolved as prefix+path before the
// delegate ever sees it. prefix must itself be a normalized absolute path.
func To(prefix string, delegate *vfs.Backend) *vfs.Backend {
	s := &scope{prefix: prefix, delegate: delegate}
	b := &vfs.Backend{
		Name:         "scoped(" + delegate.Name + ")",
		Capabilities: delegate.Capabilities,
		Head:         s.wrapHead,
		List:         s.wrapList,
		Mkcol:        s.wrapMkcol,
		Rm:           s.wrapRm,
		Rmdir:        s.wrapRmdir,
		Load:         s.wrapLoad,
		Save:         s.wrapSave,
		Patch:        s.wrapPatch,
	}
	if delegate.Capabilities.NativeStream {
		b.ReadStream = s.wrapReadStream
		b.WriteStream = s.wrapWriteStream
	}
	if delegate.Modify != nil {
		b.Modify = s.wrapModify
	}
	if delegate.ToURL != nil {
		b.ToURL = s.wrapToURL
	}
	return b
}

type scope struct {
	prefix   string
	delegate *vfs.Backend
}

func (s *scope) resolve(path string) string {
	p, err := vfs.Normalize(s.prefix + vfs.PathSeparator + path)
	if err != nil {
		return s.prefix
	}
	return p
}

func (s *scope) wrapHead(ctx context.Context, path string) (vfs.Stats, error) {
	st, err := s.delegate.Head(ctx, s.resolve(path))
	st.Path = path
	return st, err
}

func (s *scope) wrapList(ctx context.Context, path string) ([]vfs.Stats, error) {
	entries, err := s.delegate.List(ctx, s.resolve(path))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Path = path + "/" + vfs.Basename(entries[i].Path)
	}
	return entries, nil
}

func (s *scope) wrapMkcol(ctx context.Context, path string, opts vfs.MkcolOptions) error {
	return s.delegate.Mkcol(ctx, s.resolve(path), opts)
}

func (s *scope) wrapRm(ctx context.Context, path string) error {
	return s.delegate.Rm(ctx, s.resolve(path))
}

func (s *scope) wrapRmdir(ctx context.Context, path string) error {
	return s.delegate.Rmdir(ctx, s.resolve(path))
}

func (s *scope) wrapLoad(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	return s.delegate.Load(ctx, s.resolve(path), offset, length)
}

func (s *scope) wrapSave(ctx context.Context, path string, data []byte, offset int64, append bool) error {
	return s.delegate.Save(ctx, s.resolve(path), data, offset, append)
}

func (s *scope) wrapPatch(ctx context.Context, path string, props vfs.Props, merge bool) error {
	return s.delegate.Patch(ctx, s.resolve(path), props, merge)
}

func (s *scope) wrapReadStream(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	return s.delegate.ReadStream(ctx, s.resolve(path), offset, length)
}

func (s *scope) wrapWriteStream(ctx context.Context, path string, offset int64, append bool) (io.WriteCloser, error) {
	return s.delegate.WriteStream(ctx, s.resolve(path), offset, append)
}

func (s *scope) wrapModify(ctx context.Context, path string) (vfs.RandomAccessor, error) {
	return s.delegate.Modify(ctx, s.resolve(path))
}

func (s *scope) wrapToURL(ctx context.Context, path string, kind vfs.URLKind) (string, error) {
	return s.delegate.ToURL(ctx, s.resolve(path), kind)
}
