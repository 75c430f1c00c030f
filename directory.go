package vfs

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// List returns the direct children of path (§4.7). path must be a
// directory; listing a file fails with KindTypeMismatch.
func (r *Repository) List(ctx context.Context, path string, opts ListOptions) ([]Stats, error) {
	path, err := Normalize(path)
	if err != nil {
		return nil, err
	}
	if !r.backend.Capabilities.Directory {
		return nil, &Error{Kind: KindNotSupported, Repository: r.name, Path: path, Message: "backend has no directory concept"}
	}
	v, err := r.wrap(&OpContext{Repository: r.name, Op: "list", Path: path, IgnoreHook: opts.IgnoreHook}, func() (interface{}, error) {
		if st, err := r.backend.Head(ctx, path); err == nil && !st.IsDir() {
			return nil, &Error{Kind: KindTypeMismatch, Repository: r.name, Path: path, Message: "not a directory"}
		}
		entries, err := r.backend.List(ctx, path)
		if err != nil {
			return nil, r.translate(KindNotReadable, path, err)
		}
		if r.logicalDelete {
			visible := entries[:0]
			for _, e := range entries {
				if !e.IsDeleted() {
					visible = append(visible, e)
				}
			}
			entries = visible
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Stats), nil
}

// Mkcol creates a directory at path (§4.7). With MkcolOptions.Parents, any
// missing intermediate directories are created first (mkdir -p). By default
// an already-existing directory is rejected with KindPathExist; set
// MkcolOptions.Force to make mkcol idempotent against one.
func (r *Repository) Mkcol(ctx context.Context, path string, opts MkcolOptions) error {
	path, err := Normalize(path)
	if err != nil {
		return err
	}
	if !r.backend.Capabilities.Directory {
		return &Error{Kind: KindNotSupported, Repository: r.name, Path: path, Message: "backend has no directory concept"}
	}
	_, err = r.wrap(&OpContext{Repository: r.name, Op: "mkcol", Path: path, IgnoreHook: opts.IgnoreHook}, func() (interface{}, error) {
		if opts.Parents {
			if err := r.mkcolParents(ctx, Parent(path)); err != nil {
				return nil, err
			}
		} else if parent := Parent(path); parent != PathSeparator {
			pst, err := r.backend.Head(ctx, parent)
			if err != nil {
				return nil, r.translate(KindNotFound, parent, err)
			}
			if !pst.IsDir() {
				return nil, &Error{Kind: KindTypeMismatch, Repository: r.name, Path: parent, Message: "parent is not a directory"}
			}
		}
		st, statErr := r.backend.Head(ctx, path)
		if statErr == nil {
			if st.IsDir() {
				if opts.Force {
					return nil, nil
				}
				return nil, &Error{Kind: KindPathExist, Repository: r.name, Path: path}
			}
			return nil, &Error{Kind: KindTypeMismatch, Repository: r.name, Path: path, Message: "exists and is not a directory"}
		}
		if err := r.backend.Mkcol(ctx, path, opts); err != nil {
			return nil, r.translate(KindNoModificationAllowed, path, err)
		}
		return nil, nil
	})
	return err
}

func (r *Repository) mkcolParents(ctx context.Context, path string) error {
	if path == PathSeparator {
		return nil
	}
	if st, err := r.backend.Head(ctx, path); err == nil {
		if !st.IsDir() {
			return &Error{Kind: KindTypeMismatch, Repository: r.name, Path: path}
		}
		return nil
	}
	if err := r.mkcolParents(ctx, Parent(path)); err != nil {
		return err
	}
	return r.translate(KindNoModificationAllowed, path, r.backend.Mkcol(ctx, path, MkcolOptions{Parents: false}))
}

// Delete removes path (§4.6, §4.7). A directory requires
// DeleteOptions.Recursive unless it is already empty. Deleting a
// non-existent path raises KindNotFound unless DeleteOptions.Force is set,
// in which case it is silently swallowed.
func (r *Repository) Delete(ctx context.Context, path string, opts DeleteOptions) error {
	path, err := Normalize(path)
	if err != nil {
		return err
	}
	_, err = r.wrap(&OpContext{Repository: r.name, Op: "delete", Path: path, IgnoreHook: opts.IgnoreHook}, func() (interface{}, error) {
		st, statErr := r.backend.Head(ctx, path)
		if statErr != nil {
			if opts.Force {
				return nil, nil
			}
			return nil, r.translate(KindNotFound, path, statErr)
		}
		if st.IsDir() {
			return nil, errorsOrNil(r.deleteDir(ctx, path, opts))
		}
		if r.logicalDelete {
			return nil, r.softDelete(ctx, path)
		}
		if err := r.backend.Rm(ctx, path); err != nil {
			return nil, r.translate(KindNoModificationAllowed, path, err)
		}
		return nil, nil
	})
	return err
}

// deleteDir walks a directory subtree with an explicit stack rather than
// recursion, the same iterative-traversal shape the xmit engine uses, so an
// arbitrarily deep tree can't blow the call stack.
func (r *Repository) deleteDir(ctx context.Context, root string, opts DeleteOptions) *multierror.Error {
	var acc *multierror.Error
	children, err := r.backend.List(ctx, root)
	if err != nil {
		return accumulate(acc, r.translate(KindNotReadable, root, err))
	}
	if len(children) > 0 && !opts.Recursive {
		return accumulate(acc, &Error{Kind: KindInvalidModification, Repository: r.name, Path: root, Message: "directory not empty"})
	}

	stack := []string{root}
	var order []string
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, p)
		st, err := r.backend.Head(ctx, p)
		if err != nil {
			acc = accumulate(acc, r.translate(KindNotReadable, p, err))
			if !opts.Force {
				return acc
			}
			continue
		}
		if !st.IsDir() {
			continue
		}
		kids, err := r.backend.List(ctx, p)
		if err != nil {
			acc = accumulate(acc, r.translate(KindNotReadable, p, err))
			if !opts.Force {
				return acc
			}
			continue
		}
		for _, k := range kids {
			stack = append(stack, k.Path)
		}
	}

	// Remove leaves before their parents by walking the visited order in
	// reverse: every child was pushed after its parent, so reversing
	// guarantees children are removed first.
	for i := len(order) - 1; i >= 0; i-- {
		p := order[i]
		st, err := r.backend.Head(ctx, p)
		if err != nil {
			continue
		}
		if r.logicalDelete && !st.IsDir() {
			if err := r.softDelete(ctx, p); err != nil {
				acc = accumulate(acc, r.translate(KindNoModificationAllowed, p, err))
				if !opts.Force {
					return acc
				}
			}
			continue
		}
		var rmErr error
		if st.IsDir() {
			rmErr = r.backend.Rmdir(ctx, p)
		} else {
			rmErr = r.backend.Rm(ctx, p)
		}
		if rmErr != nil {
			acc = accumulate(acc, r.translate(KindNoModificationAllowed, p, rmErr))
			if !opts.Force {
				return acc
			}
		}
	}
	return acc
}

// childPath joins a directory's normalized path with a bare child name, used
// by the xmit walker to build destination paths.
func childPath(dir, name string) string {
	if dir == PathSeparator {
		return PathSeparator + name
	}
	return dir + PathSeparator + strings.TrimPrefix(name, PathSeparator)
}
