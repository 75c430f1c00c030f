package vfs

import (
	"context"
	"io"

	"github.com/vfscore/vfs/internal/vfslog"
)

// reopenReader returns a fresh io.ReadCloser starting at absolute byte
// offset off. It is how ReadStream.Seek is implemented regardless of whether
// the underlying backend supports native seeking: seeking a stream is always
// "close the current handle, open a new one at the target offset" (§9
// "Stream state machine").
type reopenReader func(ctx context.Context, off int64) (io.ReadCloser, error)

// ReadStream is the C5 stream core's read-side state machine: a position, an
// optional end bound, and lazy reopen-on-seek. Backends never implement Seek
// themselves; the core synthesizes it uniformly on top of Load or
// ReadStream.
type ReadStream struct {
	ctx        context.Context
	repository string
	path       string
	reopen     reopenReader

	cur    io.ReadCloser
	pos    int64 // absolute position of the next byte Read will return
	end    int64 // absolute exclusive upper bound, -1 if unbounded
	closed bool

	hooks      *HookSet
	ignoreHook bool
}

func newReadStream(ctx context.Context, repository, path string, start, end int64, reopen reopenReader, hooks *HookSet, ignoreHook bool) (*ReadStream, error) {
	rs := &ReadStream{ctx: ctx, repository: repository, path: path, reopen: reopen, pos: start, end: end, hooks: hooks, ignoreHook: ignoreHook}
	cur, err := reopen(ctx, start)
	if err != nil {
		return nil, err
	}
	rs.cur = cur
	return rs, nil
}

// Read implements io.Reader, clamping to the stream's addressed range when
// one was requested (§4.8 ranged read).
func (r *ReadStream) Read(p []byte) (int, error) {
	if r.closed {
		return 0, &Error{Kind: KindInvalidState, Path: r.path, Message: "read on closed stream"}
	}
	if r.end >= 0 {
		remaining := r.end - r.pos
		if remaining <= 0 {
			return 0, io.EOF
		}
		if int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}
	n, err := r.cur.Read(p)
	r.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker by reopening at the target absolute offset. This
// is correct but not free: every Seek costs a backend round trip, same as a
// real filesystem reopening a handle.
func (r *ReadStream) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, &Error{Kind: KindInvalidState, Path: r.path, Message: "seek on closed stream"}
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		if r.end < 0 {
			return 0, &Error{Kind: KindNotSupported, Path: r.path, Message: "seek from end on unbounded stream"}
		}
		target = r.end + offset
	default:
		return 0, &Error{Kind: KindSyntax, Path: r.path, Message: "invalid whence"}
	}
	if target < 0 {
		target = 0
	}
	if err := r.cur.Close(); err != nil {
		vfslog.Logger(r.repository).WithField("path", r.path).Warnf("close during seek: %v", err)
	}
	cur, err := r.reopen(r.ctx, target)
	if err != nil {
		return 0, err
	}
	r.cur = cur
	r.pos = target
	return target, nil
}

// Position reports the stream's current absolute offset.
func (r *ReadStream) Position() int64 {
	return r.pos
}

// Close fires afterGet once the underlying handle is released, unless the
// stream was opened with ignoreHook. Idempotent: closing twice is a no-op.
func (r *ReadStream) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.cur.Close()
	if r.hooks != nil {
		r.hooks.runAfter(&OpContext{Repository: r.repository, Op: "get", Path: r.path, IgnoreHook: r.ignoreHook}, nil)
	}
	return err
}

// reopenWriter returns a fresh io.WriteCloser positioned to write starting at
// absolute offset off (or at end-of-file, when append is true).
type reopenWriter func(ctx context.Context, off int64, append bool) (io.WriteCloser, error)

// sizer reports the entry's current length, used to clamp Truncate to
// never-grow (§9 "truncate never grows").
type sizer func(ctx context.Context) (int64, error)

// WriteStream is the C5 stream core's write-side state machine.
type WriteStream struct {
	ctx        context.Context
	repository string
	path       string
	reopen     reopenWriter
	size       sizer

	cur    io.WriteCloser
	pos    int64
	append bool
	closed bool
	// dirty tracks whether Write ever wrote a byte or Truncate succeeded on
	// this stream. Close only
	// fires its after-hook when dirty is true (§4.4 "write stream close");
	// opening a stream and closing it without writing anything is a no-op as
	// far as hooks are concerned.
	dirty bool

	hooks *HookSet
	// op is "post" or "put" (§4.3), decided once at open time by whichever
	// caller resolved the create/update precondition.
	op         string
	ignoreHook bool
}

func newWriteStream(ctx context.Context, repository, path string, start int64, append bool, reopen reopenWriter, size sizer, hooks *HookSet, op string, ignoreHook bool) (*WriteStream, error) {
	ws := &WriteStream{ctx: ctx, repository: repository, path: path, reopen: reopen, size: size, pos: start, append: append, hooks: hooks, op: op, ignoreHook: ignoreHook}
	cur, err := reopen(ctx, start, append)
	if err != nil {
		return nil, err
	}
	ws.cur = cur
	return ws, nil
}

// Write implements io.Writer.
func (w *WriteStream) Write(p []byte) (int, error) {
	if w.closed {
		return 0, &Error{Kind: KindInvalidState, Path: w.path, Message: "write on closed stream"}
	}
	n, err := w.cur.Write(p)
	w.pos += int64(n)
	if n > 0 {
		w.dirty = true
	}
	return n, err
}

// Seek repositions the write stream the same way ReadStream.Seek does:
// close and reopen at the target offset. Seeking cancels append mode, since
// append and an explicit position are mutually exclusive (§4.8).
func (w *WriteStream) Seek(offset int64, whence int) (int64, error) {
	if w.closed {
		return 0, &Error{Kind: KindInvalidState, Path: w.path, Message: "seek on closed stream"}
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = w.pos + offset
	case io.SeekEnd:
		cur, err := w.size(w.ctx)
		if err != nil {
			return 0, err
		}
		target = cur + offset
	default:
		return 0, &Error{Kind: KindSyntax, Path: w.path, Message: "invalid whence"}
	}
	if target < 0 {
		target = 0
	}
	if err := w.cur.Close(); err != nil {
		vfslog.Logger(w.repository).WithField("path", w.path).Warnf("close during seek: %v", err)
	}
	cur, err := w.reopen(w.ctx, target, false)
	if err != nil {
		return 0, err
	}
	w.cur = cur
	w.pos = target
	w.append = false
	return target, nil
}

// Truncate shrinks the entry to size, clamped to never grow past the
// current length (§9 Open Question: truncate never-grows). Requesting a
// larger size is not an error; it is silently clamped down to the current
// length. Truncate works only when the underlying handle has a Truncate
// method (backend/local's *os.File); on any other stream, including every
// buffered stream such as those of backend/memory, it fails with
// KindNotSupported.
func (w *WriteStream) Truncate(size int64) error {
	if w.closed {
		return &Error{Kind: KindInvalidState, Path: w.path, Message: "truncate on closed stream"}
	}
	cur, err := w.size(w.ctx)
	if err != nil {
		return err
	}
	target := size
	if target > cur {
		target = cur
	}
	if tr, ok := w.cur.(interface{ Truncate(int64) error }); ok {
		if err := tr.Truncate(target); err != nil {
			return err
		}
		w.dirty = true
		if target < w.pos {
			w.pos = target
		}
		return nil
	}
	return &Error{Kind: KindNotSupported, Path: w.path, Message: "truncate not supported by this stream"}
}

// Position reports the stream's current absolute offset.
func (w *WriteStream) Position() int64 {
	return w.pos
}

// Close fires afterPost/afterPut once the underlying handle is released, but
// only when the stream is dirty (something was actually written) and
// ignoreHook was not set (§4.4 "write stream close"). Idempotent.
func (w *WriteStream) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.cur.Close()
	if w.hooks != nil && w.dirty {
		w.hooks.runAfter(&OpContext{Repository: w.repository, Op: w.op, Path: w.path, IgnoreHook: w.ignoreHook}, nil)
	}
	return err
}
