package vfs

import (
	"context"
	"errors"
	"io"

	"github.com/hashicorp/go-multierror"
)

// xmitJob is one pending unit of work on the transfer stack: copy (or,
// for the final step of a move, delete) of a single entry from src to dst.
type xmitJob struct {
	src, dst string
}

// Copy transfers src to dst (§4.6, §9 "xmit"). A directory source requires
// XmitOptions.Recursive. For a file source without XmitOptions.Overwrite, a
// destination that already exists fails with KindSecurity rather than being
// silently replaced; a directory source is copied into an existing
// destination directory.
func (r *Repository) Copy(ctx context.Context, src, dst string, opts XmitOptions) error {
	return r.xmit(ctx, src, dst, opts, false)
}

// Move transfers src to dst and removes src once every file has been copied
// successfully (§4.6). If any part of the transfer fails and Force was not
// set, the source is left untouched.
func (r *Repository) Move(ctx context.Context, src, dst string, opts XmitOptions) error {
	return r.xmit(ctx, src, dst, opts, true)
}

func (r *Repository) xmit(ctx context.Context, src, dst string, opts XmitOptions, remove bool) error {
	src, err := Normalize(src)
	if err != nil {
		return err
	}
	dst, err = Normalize(dst)
	if err != nil {
		return err
	}
	op := "copy"
	if remove {
		op = "move"
	}
	_, err = r.wrap(&OpContext{Repository: r.name, Op: op, Path: src, To: dst, IgnoreHook: opts.IgnoreHook}, func() (interface{}, error) {
		return nil, errorsOrNil(r.runXmit(ctx, src, dst, opts, remove))
	})
	return err
}

// runXmit drives the transfer with an explicit stack of xmitJobs rather than
// recursive calls (§5, §9 "recursive transfer via explicit stack"), so an
// arbitrarily deep source tree can't blow the call stack. At most one source
// stream and one destination stream are open at a time per §5's resource
// model: each job fully copies one file before the next job starts.
func (r *Repository) runXmit(ctx context.Context, src, dst string, opts XmitOptions, remove bool) *multierror.Error {
	var acc *multierror.Error

	srcStat, err := r.backend.Head(ctx, src)
	if err != nil {
		return accumulate(acc, r.translate(KindNotFound, src, err))
	}

	// The destination-exists collision check is a file-transfer policy only
	// (§4.7 "_xmit (file variant)"): a directory transfer's destination is
	// expected to already exist on a re-run (the raw backend Mkcol below
	// treats an existing directory as a no-op, §4.6 "_xmit (directory
	// variant)") and is never itself rejected as a security violation.
	if !srcStat.IsDir() {
		if dstStat, dstErr := r.backend.Head(ctx, dst); dstErr == nil {
			if !opts.Overwrite {
				return accumulate(acc, &Error{Kind: KindSecurity, Repository: r.name, From: src, To: dst, Message: "destination exists"})
			}
			if dstStat.IsDir() != srcStat.IsDir() {
				return accumulate(acc, &Error{Kind: KindTypeMismatch, Repository: r.name, From: src, To: dst})
			}
		}
	}

	if srcStat.IsDir() && !opts.Recursive {
		return accumulate(acc, &Error{Kind: KindInvalidModification, Repository: r.name, Path: src, Message: "source is a directory, Recursive not set"})
	}

	stack := []xmitJob{{src: src, dst: dst}}
	var transferred []xmitJob
	for len(stack) > 0 {
		job := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		st, err := r.backend.Head(ctx, job.src)
		if err != nil {
			acc = accumulate(acc, r.translate(KindNotFound, job.src, err))
			if !opts.Force {
				return acc
			}
			continue
		}

		if st.IsDir() {
			if err := r.backend.Mkcol(ctx, job.dst, MkcolOptions{Parents: true}); err != nil {
				acc = accumulate(acc, r.translate(KindNoModificationAllowed, job.dst, err))
				if !opts.Force {
					return acc
				}
				continue
			}
			children, err := r.backend.List(ctx, job.src)
			if err != nil {
				acc = accumulate(acc, r.translate(KindNotReadable, job.src, err))
				if !opts.Force {
					return acc
				}
				continue
			}
			for _, c := range children {
				name := Basename(c.Path)
				stack = append(stack, xmitJob{src: c.Path, dst: childPath(job.dst, name)})
			}
			transferred = append(transferred, job)
			continue
		}

		if err := r.xmitFile(ctx, job.src, job.dst); err != nil {
			acc = accumulate(acc, err)
			if !opts.Force {
				return acc
			}
			continue
		}
		transferred = append(transferred, job)
	}

	if !remove {
		return acc
	}

	// Only remove sources once every job has transferred; a partial failure
	// without Force already returned above, so reaching here means the
	// whole tree is safe to delete from the source side. Children are
	// deleted before their parent directories by walking in reverse, the
	// same trick deleteDir uses.
	for i := len(transferred) - 1; i >= 0; i-- {
		j := transferred[i]
		st, err := r.backend.Head(ctx, j.src)
		if err != nil {
			continue
		}
		var rmErr error
		if st.IsDir() {
			rmErr = r.backend.Rmdir(ctx, j.src)
		} else {
			rmErr = r.backend.Rm(ctx, j.src)
		}
		if rmErr != nil {
			acc = accumulate(acc, r.translate(KindNoModificationAllowed, j.src, rmErr))
			if !opts.Force {
				return acc
			}
		}
	}
	return acc
}

// xmitFile copies a single file, opening at most one source stream and one
// destination stream as §5 requires.
func (r *Repository) xmitFile(ctx context.Context, src, dst string) error {
	rs, err := r.OpenReadStream(ctx, src, OpenReadOptions{})
	if err != nil {
		return r.translate(KindNotReadable, src, err)
	}
	defer rs.Close()

	ws, err := r.OpenWriteStream(ctx, dst, OpenWriteOptions{Truncate: true})
	if err != nil {
		return r.translate(KindNoModificationAllowed, dst, err)
	}
	if _, err := copyStream(ws, rs, r.bufferSize); err != nil {
		ws.Close()
		return &Error{Kind: KindNoModificationAllowed, Repository: r.name, From: src, To: dst, Cause: err}
	}
	return ws.Close()
}

// copyStream copies src to dst like io.Copy, through a buffer of size bytes
// (defaultBufferSize when size is not positive).
func copyStream(dst *WriteStream, src *ReadStream, size int) (int64, error) {
	if size <= 0 {
		size = defaultBufferSize
	}
	buf := make([]byte, size)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return total, nil
			}
			return total, rerr
		}
	}
}
