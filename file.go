package vfs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Read returns the whole content of path, or the [Offset, Offset+Length)
// range when OpenReadOptions requests one (§4.8). Length 0 means "to end of
// file".
func (r *Repository) Read(ctx context.Context, path string, opts OpenReadOptions) ([]byte, error) {
	path, err := Normalize(path)
	if err != nil {
		return nil, err
	}
	ranged := opts.Offset != 0 || opts.Length != 0
	v, err := r.wrap(&OpContext{Repository: r.name, Op: "get", Path: path, IgnoreHook: opts.IgnoreHook}, func() (interface{}, error) {
		if ranged && !r.backend.Capabilities.RangeRead {
			// Range-read emulation (§4.7/§9): load the whole entry and slice
			// in memory, since the backend can't select a sub-range itself.
			whole, err := r.backend.Load(ctx, path, 0, 0)
			if err != nil {
				return nil, r.translate(KindNotReadable, path, err)
			}
			start := opts.Offset
			if start > int64(len(whole)) {
				start = int64(len(whole))
			}
			end := start + opts.Length
			if opts.Length == 0 || end > int64(len(whole)) {
				end = int64(len(whole))
			}
			return whole[start:end], nil
		}
		data, err := r.backend.Load(ctx, path, opts.Offset, opts.Length)
		if err != nil {
			return nil, r.translate(KindNotReadable, path, err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Write stores data at path under the shape selected by OpenWriteOptions:
// whole write, ranged write or append (§4.8). When the
// backend lacks the requested capability, the core emulates it with a
// read-modify-write cycle.
//
// Before writing, a preliminary Head resolves the create/update precondition
// (§4.7): if the path exists and opts.Create points at true, the write fails
// with KindPathExist; if it's missing and opts.Create points at false, it
// fails with KindNotFound; otherwise the write proceeds and fires its
// "post" hook (newly created) or "put" hook (pre-existing path) accordingly.
func (r *Repository) Write(ctx context.Context, path string, data []byte, opts OpenWriteOptions) error {
	path, err := Normalize(path)
	if err != nil {
		return err
	}
	op, err := r.resolveWriteOp(ctx, path, opts)
	if err != nil {
		return err
	}
	_, err = r.wrap(&OpContext{Repository: r.name, Op: op, Path: path, IgnoreHook: opts.IgnoreHook}, func() (interface{}, error) {
		return nil, r.writeBytes(ctx, path, data, opts)
	})
	return err
}

// resolveWriteOp implements §4.7's create/update decision tree: a
// preliminary Head determines whether the target path already exists, then
// enforces opts.Create's tri-state precondition and reports which of
// "post"/"put" the eventual write (or write stream) should dispatch.
func (r *Repository) resolveWriteOp(ctx context.Context, path string, opts OpenWriteOptions) (string, error) {
	_, err := r.backend.Head(ctx, path)
	exists := err == nil
	if opts.Create != nil {
		if *opts.Create && exists {
			return "", &Error{Kind: KindPathExist, Repository: r.name, Path: path}
		}
		if !*opts.Create && !exists {
			return "", &Error{Kind: KindNotFound, Repository: r.name, Path: path}
		}
	}
	if exists {
		return "put", nil
	}
	return "post", nil
}

func (r *Repository) writeBytes(ctx context.Context, path string, data []byte, opts OpenWriteOptions) error {
	caps := r.backend.Capabilities
	switch {
	case opts.Append && caps.Append:
		if err := r.backend.Save(ctx, path, data, 0, true); err != nil {
			return r.translate(KindNoModificationAllowed, path, err)
		}
		return nil
	case opts.Append && !caps.Append:
		// Append emulation: read current length, then write at that offset.
		cur, err := r.backend.Head(ctx, path)
		var offset int64
		if err == nil {
			offset = cur.Size
		}
		return r.rangeWrite(ctx, path, data, offset)
	case opts.Offset != 0 && !opts.Truncate:
		return r.rangeWrite(ctx, path, data, opts.Offset)
	default:
		if err := r.backend.Save(ctx, path, data, 0, false); err != nil {
			return r.translate(KindNoModificationAllowed, path, err)
		}
		return nil
	}
}

// rangeWrite writes data at offset, natively if the backend supports it, or
// by splicing into a full read-modify-write cycle otherwise (§4.7, §9
// "Append/range emulation").
func (r *Repository) rangeWrite(ctx context.Context, path string, data []byte, offset int64) error {
	if r.backend.Capabilities.RangeWrite {
		if err := r.backend.Save(ctx, path, data, offset, false); err != nil {
			return r.translate(KindNoModificationAllowed, path, err)
		}
		return nil
	}
	whole, err := r.backend.Load(ctx, path, 0, 0)
	if err != nil && !IsKind(err, KindNotFound) {
		return r.translate(KindNotReadable, path, err)
	}
	spliced := spliceRange(whole, data, offset)
	if err := r.backend.Save(ctx, path, spliced, 0, false); err != nil {
		return r.translate(KindNoModificationAllowed, path, err)
	}
	return nil
}

// spliceRange returns base with patch written at offset, growing base with
// zero bytes if offset lies past its current end.
func spliceRange(base, patch []byte, offset int64) []byte {
	end := offset + int64(len(patch))
	out := base
	if end > int64(len(out)) {
		grown := make([]byte, end)
		copy(grown, out)
		out = grown
	} else {
		out = append([]byte(nil), out...)
	}
	copy(out[offset:end], patch)
	return out
}

// Hash returns the hex-encoded SHA-256 digest of path's content (§4.8),
// streaming through the entry rather than materializing it twice.
func (r *Repository) Hash(ctx context.Context, path string) (string, error) {
	path, err := Normalize(path)
	if err != nil {
		return "", err
	}
	rs, err := r.OpenReadStream(ctx, path, OpenReadOptions{})
	if err != nil {
		return "", err
	}
	defer rs.Close()
	h := sha256.New()
	if _, err := io.Copy(h, rs); err != nil {
		return "", r.translate(KindNotReadable, path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// OpenReadStream opens a streaming reader over path (§4.8, §9 "Stream state
// machine"), preferring the backend's native stream when available and
// otherwise serving the requested range from a single Load (repeated after
// every Seek).
func (r *Repository) OpenReadStream(ctx context.Context, path string, opts OpenReadOptions) (*ReadStream, error) {
	path, err := Normalize(path)
	if err != nil {
		return nil, err
	}
	st, err := r.backend.Head(ctx, path)
	if err != nil {
		return nil, r.translate(KindNotFound, path, err)
	}
	if r.logicalDelete && st.IsDeleted() {
		return nil, &Error{Kind: KindNotFound, Repository: r.name, Path: path, Message: "logically deleted"}
	}
	end := int64(-1)
	if opts.Length != 0 {
		end = opts.Offset + opts.Length
	} else if opts.Offset != 0 {
		end = st.Size
	}

	var reopen reopenReader
	if r.backend.Capabilities.NativeStream {
		reopen = func(ctx context.Context, off int64) (io.ReadCloser, error) {
			length := int64(0)
			if end >= 0 {
				length = end - off
			}
			rc, err := r.backend.ReadStream(ctx, path, off, length)
			if err != nil {
				return nil, r.translate(KindNotReadable, path, err)
			}
			return rc, nil
		}
	} else {
		reopen = func(ctx context.Context, off int64) (io.ReadCloser, error) {
			length := int64(0)
			if end >= 0 {
				length = end - off
			}
			data, err := r.backend.Load(ctx, path, off, length)
			if err != nil {
				return nil, r.translate(KindNotReadable, path, err)
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}
	return newReadStream(ctx, r.name, path, opts.Offset, end, reopen, r.hooks, opts.IgnoreHook)
}

// OpenWriteStream opens a streaming writer over path (§4.8). It uses the
// backend's native stream when the backend also supports the requested
// append or offset natively; otherwise it buffers the written bytes and
// flushes them on Close as described on OpenWriteOptions.Truncate.
func (r *Repository) OpenWriteStream(ctx context.Context, path string, opts OpenWriteOptions) (*WriteStream, error) {
	path, err := Normalize(path)
	if err != nil {
		return nil, err
	}
	op, err := r.resolveWriteOp(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	size := func(ctx context.Context) (int64, error) {
		st, err := r.backend.Head(ctx, path)
		if err != nil {
			return 0, nil
		}
		return st.Size, nil
	}

	if r.backend.Capabilities.NativeStream && (r.backend.Capabilities.Append || !opts.Append) && (r.backend.Capabilities.RangeWrite || opts.Offset == 0) {
		reopen := func(ctx context.Context, off int64, append bool) (io.WriteCloser, error) {
			wc, err := r.backend.WriteStream(ctx, path, off, append)
			if err != nil {
				return nil, r.translate(KindNoModificationAllowed, path, err)
			}
			return wc, nil
		}
		return newWriteStream(ctx, r.name, path, opts.Offset, opts.Append, reopen, size, r.hooks, op, opts.IgnoreHook)
	}

	// Emulated path: buffer writes in memory and flush the spliced result on
	// Close, the streaming analogue of writeBytes' range/append emulation.
	buf := &bytes.Buffer{}
	wholeReplace := opts.Truncate && !opts.Append && opts.Offset == 0
	reopen := func(ctx context.Context, off int64, append bool) (io.WriteCloser, error) {
		buf.Reset()
		return emulatedWriteCloser{buf: buf, flush: func() error {
			if wholeReplace {
				if err := r.backend.Save(ctx, path, buf.Bytes(), 0, false); err != nil {
					return r.translate(KindNoModificationAllowed, path, err)
				}
				return nil
			}
			if append {
				cur, _ := size(ctx)
				return r.rangeWrite(ctx, path, buf.Bytes(), cur)
			}
			return r.rangeWrite(ctx, path, buf.Bytes(), off)
		}}, nil
	}
	return newWriteStream(ctx, r.name, path, opts.Offset, opts.Append, reopen, size, r.hooks, op, opts.IgnoreHook)
}

// emulatedWriteCloser buffers writes and runs flush once on Close, backing
// OpenWriteStream's emulation path.
type emulatedWriteCloser struct {
	buf   *bytes.Buffer
	flush func() error
}

func (w emulatedWriteCloser) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w emulatedWriteCloser) Close() error                { return w.flush() }
