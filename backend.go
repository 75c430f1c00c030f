package vfs

import (
	"context"
	"io"
)

// RandomAccessor groups the basic Read, Write, Seek and Close methods a
// native stream handle must support; *os.File satisfies it directly, which
// is why backend/local hands one straight through instead of wrapping it.
type RandomAccessor interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// Backend is the single trait a storage implementation must satisfy (§1,
// §9 "polymorphism without inheritance"). The core never special-cases a
// backend by type; it only ever asks Capabilities and falls back to
// read-modify-write emulation (§4.7, §9 "Append/range emulation") for
// whatever a backend's flags say it lacks.
type Backend struct {
	// Name identifies the backend in error messages and logs.
	Name string

	Capabilities Capabilities

	Head   func(ctx context.Context, path string) (Stats, error)
	List   func(ctx context.Context, path string) ([]Stats, error)
	Mkcol  func(ctx context.Context, path string, opts MkcolOptions) error
	Rm     func(ctx context.Context, path string) error
	Rmdir  func(ctx context.Context, path string) error
	Load   func(ctx context.Context, path string, offset, length int64) ([]byte, error)
	Save   func(ctx context.Context, path string, data []byte, offset int64, append bool) error
	Patch  func(ctx context.Context, path string, props Props, merge bool) error

	// ReadStream and WriteStream are set only when Capabilities.NativeStream
	// is true; otherwise the core synthesizes streaming from Load/Save.
	ReadStream  func(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error)
	WriteStream func(ctx context.Context, path string, offset int64, append bool) (io.WriteCloser, error)

	// Modify opens a RandomAccessor for in-place delta updates, mirroring
	// the teacher's RandomAccessProvider. Optional: nil when a backend has
	// no efficient in-place path. The core itself never calls Modify; when
	// RangeWrite is false, range-write emulation reads the whole entry,
	// splices, and rewrites it through Load and Save.
	Modify func(ctx context.Context, path string) (RandomAccessor, error)

	// ToURL renders a presigned/addressable URL for path appropriate to kind
	// (§6 "URL kinds"). Optional: nil when the backend has no notion of a
	// URL; Entry.ToURL then reports KindNotSupported without ever calling
	// this field.
	ToURL func(ctx context.Context, path string, kind URLKind) (string, error)
}

// URLKind is one of the HTTP-shaped verbs a caller may request a URL for via
// Entry.ToURL (§6). Not every backend supports every kind.
type URLKind int

const (
	URLKindGet URLKind = iota
	URLKindPost
	URLKindPut
	URLKindDelete
)

func (k URLKind) String() string {
	switch k {
	case URLKindGet:
		return "GET"
	case URLKindPost:
		return "POST"
	case URLKindPut:
		return "PUT"
	case URLKindDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Capabilities declares which of the core's optional fast paths a backend
// implements natively. Every flag defaults to false (emulated) so a minimal
// Backend only needs to fill in Head/List/Mkcol/Rm/Rmdir/Load/Save.
type Capabilities struct {
	// Append: Save can be called with append=true and land the bytes at the
	// current end of file without the caller supplying an offset.
	Append bool
	// RangeRead: Load can be called with a sub-range instead of the whole
	// entry.
	RangeRead bool
	// RangeWrite: Save can be called with a non-zero offset without
	// truncating or rewriting the rest of the entry.
	RangeWrite bool
	// Directory: the backend distinguishes directories from files at all
	// (§3). A backend without this capability is a flat object store; the
	// core then rejects List and Mkcol with KindNotSupported. Delete, Copy
	// and Move do not consult this flag.
	Directory bool
	// NativeStream: ReadStream/WriteStream are implemented and should be
	// preferred over Load/Save for streaming callers.
	NativeStream bool
}
