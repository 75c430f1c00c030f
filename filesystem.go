// Package vfs provides a uniform, path-addressed virtual filesystem core:
// metadata, directory listing, whole/ranged/streaming file I/O, hashing,
// copy/move/delete and patch, dispatched through a single Backend trait so
// callers can swap local disk, in-memory, mounted or scoped storage without
// touching call sites.
package vfs

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/vfscore/vfs/internal/vfslog"
)

// nowFunc is a seam so tests can freeze deletion timestamps.
var nowFunc = time.Now

// Repository is the C9 façade: one named root over one Backend, dispatching
// every path-addressed operation through the hook registry and translating
// backend failures into the package's own Error taxonomy. It is the single
// entry point this package exposes; nothing here talks to a Backend except
// through a Repository.
type Repository struct {
	name          string
	backend       *Backend
	hooks         *HookSet
	logicalDelete bool
	bufferSize    int
}

// Option configures a Repository at construction, a fluent-builder idiom
// collapsed into functional options over a single constructor.
type Option func(*Repository)

// WithHooks attaches a HookSet. Without this option, an empty HookSet is used
// and no operation is ever short-circuited.
func WithHooks(h *HookSet) Option {
	return func(r *Repository) { r.hooks = h }
}

// WithLogicalDelete enables delete-as-tombstone: Delete sets a Deleted
// timestamp instead of removing the entry, and Head hides a tombstoned entry
// as NotFound.
func WithLogicalDelete(enabled bool) Option {
	return func(r *Repository) { r.logicalDelete = enabled }
}

// WithDefaultBufferSize sets the buffer size Copy and Move use when streaming
// each file from source to destination (default 96 KiB).
func WithDefaultBufferSize(n int) Option {
	return func(r *Repository) { r.bufferSize = n }
}

const defaultBufferSize = 96 * 1024

// New builds a Repository named name over backend.
func New(name string, backend *Backend, opts ...Option) *Repository {
	r := &Repository{
		name:       name,
		backend:    backend,
		hooks:      NewHookSet(),
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the repository's configured name.
func (r *Repository) Name() string {
	return r.name
}

func (r *Repository) logger() *logrus.Entry {
	return vfslog.Logger(r.name)
}

// wrap runs ctx's before-hooks, then fn if none short-circuited, then the
// after-hooks on success. Every façade method funnels through this so hook
// injection is uniform across the whole API. Hook dispatch itself is skipped
// entirely when ctx.IgnoreHook is set (§3), enforced inside
// HookSet.runBefore/runAfter rather than here so a caller reaching into the
// HookSet directly gets the same guarantee.
func (r *Repository) wrap(ctx *OpContext, fn func() (interface{}, error)) (interface{}, error) {
	if v, ok, err := r.hooks.runBefore(ctx); ok {
		return v, err
	}
	result, err := fn()
	if err != nil {
		return result, err
	}
	r.hooks.runAfter(ctx, result)
	return result, nil
}

// translate converts a raw backend error into a tagged *Error of kind,
// passing an already-tagged *Error through unchanged.
func (r *Repository) translate(kind Kind, path string, err error) error {
	if err == nil {
		return nil
	}
	if verr, ok := err.(*Error); ok {
		return verr
	}
	return &Error{Kind: kind, Repository: r.name, Path: path, Cause: err}
}

// Head returns the Stats for path. A logically-deleted entry is surfaced as
// NotFound when the repository has logicalDelete enabled.
func (r *Repository) Head(ctx context.Context, path string) (Stats, error) {
	path, err := Normalize(path)
	if err != nil {
		return Stats{}, err
	}
	v, err := r.wrap(&OpContext{Repository: r.name, Op: "head", Path: path}, func() (interface{}, error) {
		st, err := r.backend.Head(ctx, path)
		if err != nil {
			return Stats{}, r.translate(KindNotFound, path, err)
		}
		if r.logicalDelete && st.IsDeleted() {
			return Stats{}, &Error{Kind: KindNotFound, Repository: r.name, Path: path, Message: "logically deleted"}
		}
		return st, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

// Exists is a convenience wrapper over Head.
func (r *Repository) Exists(ctx context.Context, path string) (bool, error) {
	_, err := r.Head(ctx, path)
	if err == nil {
		return true, nil
	}
	if IsKind(err, KindNotFound) {
		return false, nil
	}
	return false, err
}

// Patch merges or replaces an entry's Props.
func (r *Repository) Patch(ctx context.Context, path string, props Props, opts PatchOptions) error {
	path, err := Normalize(path)
	if err != nil {
		return err
	}
	_, err = r.wrap(&OpContext{Repository: r.name, Op: "patch", Path: path, IgnoreHook: opts.IgnoreHook}, func() (interface{}, error) {
		if err := r.backend.Patch(ctx, path, props, opts.Merge); err != nil {
			return nil, r.translate(KindNoModificationAllowed, path, err)
		}
		return nil, nil
	})
	return err
}

// softDelete marks an entry deleted-in-place, used by Delete when
// logicalDelete is enabled instead of a hard Rm/Rmdir.
func (r *Repository) softDelete(ctx context.Context, path string) error {
	return r.backend.Patch(ctx, path, Props{"__deleted": nowFunc()}, true)
}

// accumulate folds err into acc, the idiom the xmit engine and directory
// delete use to build an accumulated error list.
func accumulate(acc *multierror.Error, err error) *multierror.Error {
	if err == nil {
		return acc
	}
	return multierror.Append(acc, err)
}

// errorsOrNil returns nil when acc accumulated nothing, so "no failures"
// comes back as a plain nil error rather than a non-nil-but-empty one.
func errorsOrNil(acc *multierror.Error) error {
	if acc == nil || len(acc.Errors) == 0 {
		return nil
	}
	return acc
}
