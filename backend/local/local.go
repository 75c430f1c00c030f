// Package local provides a vfs.Backend over the real local filesystem,
// generalizing the teacher's LocalFileSystem/FilesystemDataProvider
// (dp_localfilesystem.go, dp_filesystemprovider.go, vfslocal.go) to the full
// capability set: native range read/write via os.File.ReadAt/WriteAt,
// native append via O_APPEND, and native streaming backed directly by an
// *os.File handle.
package local

import (
	"context"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/vfscore/vfs"
)

// deletedTime extracts the tombstone timestamp Repository.softDelete stores
// under the "__deleted" prop key, falling back to now if it's some other
// shape than time.Time.
func deletedTime(v interface{}) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Now()
}

// New returns a *vfs.Backend rooted at dir on the local disk. Every path
// handed to it by the core is already normalized (leading slash, no ".."),
// so Resolve only needs to strip the leading separator and join it under
// dir.
func New(dir string) *vfs.Backend {
	l := &local{root: dir}
	return &vfs.Backend{
		Name: "local",
		Capabilities: vfs.Capabilities{
			Append:       true,
			RangeRead:    true,
			RangeWrite:   true,
			Directory:    true,
			NativeStream: true,
		},
		Head:        l.head,
		List:        l.list,
		Mkcol:       l.mkcol,
		Rm:          l.rm,
		Rmdir:       l.rm,
		Load:        l.load,
		Save:        l.save,
		Patch:       l.patch,
		ReadStream:  l.readStream,
		WriteStream: l.writeStream,
		Modify:      l.modify,
		ToURL:       l.toURL,
	}
}

type local struct {
	root string
}

// resolve maps a normalized vfs path ("/a/b") onto a real filesystem path
// under root, mirroring LocalFileSystem.Resolve.
func (l *local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *local) head(ctx context.Context, path string) (vfs.Stats, error) {
	info, err := os.Stat(l.resolve(path))
	if err != nil {
		return vfs.Stats{}, err
	}
	return vfs.Stats{
		Path:    path,
		Size:    info.Size(),
		Mode:    uint32(info.Mode()),
		Dir:     info.IsDir(),
		ModTime: info.ModTime(),
	}, nil
}

func (l *local) list(ctx context.Context, path string) ([]vfs.Stats, error) {
	entries, err := ioutil.ReadDir(l.resolve(path))
	if err != nil {
		return nil, err
	}
	out := make([]vfs.Stats, len(entries))
	for i, e := range entries {
		out[i] = vfs.Stats{
			Path:    childPath(path, e.Name()),
			Size:    e.Size(),
			Mode:    uint32(e.Mode()),
			Dir:     e.IsDir(),
			ModTime: e.ModTime(),
		}
	}
	return out, nil
}

func childPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func (l *local) mkcol(ctx context.Context, path string, opts vfs.MkcolOptions) error {
	return os.MkdirAll(l.resolve(path), os.ModePerm)
}

func (l *local) rm(ctx context.Context, path string) error {
	return os.Remove(l.resolve(path))
}

func (l *local) load(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if length == 0 {
		if offset != 0 {
			if _, err := f.Seek(offset, io.SeekStart); err != nil {
				return nil, err
			}
		}
		return ioutil.ReadAll(f)
	}
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func (l *local) save(ctx context.Context, path string, data []byte, offset int64, append bool) error {
	flag := os.O_WRONLY | os.O_CREATE
	switch {
	case append:
		flag |= os.O_APPEND
	case offset == 0:
		flag |= os.O_TRUNC
	}
	if err := os.MkdirAll(filepath.Dir(l.resolve(path)), os.ModePerm); err != nil {
		return err
	}
	f, err := os.OpenFile(l.resolve(path), flag, 0644)
	if err != nil {
		return err
	}
	if append {
		_, err = f.Write(data)
	} else {
		_, err = f.WriteAt(data, offset)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// patch keeps only the "__deleted" tombstone, and only as the file's access
// and modification times; every other prop is dropped. head never reports
// Stats.Deleted or Props, so a tombstoned local file is not hidden by a
// Repository with logical delete enabled.
func (l *local) patch(ctx context.Context, path string, props vfs.Props, merge bool) error {
	if deleted, ok := props["__deleted"]; ok {
		return os.Chtimes(l.resolve(path), deletedTime(deleted), deletedTime(deleted))
	}
	return nil
}

func (l *local) readStream(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, err
	}
	if offset != 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}
	if length > 0 {
		return limitedReadCloser{Reader: io.LimitReader(f, length), Closer: f}, nil
	}
	return f, nil
}

func (l *local) writeStream(ctx context.Context, path string, offset int64, append bool) (io.WriteCloser, error) {
	flag := os.O_WRONLY | os.O_CREATE
	switch {
	case append:
		flag |= os.O_APPEND
	case offset == 0:
		flag |= os.O_TRUNC
	}
	if err := os.MkdirAll(filepath.Dir(l.resolve(path)), os.ModePerm); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(l.resolve(path), flag, 0644)
	if err != nil {
		return nil, err
	}
	if !append && offset != 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (l *local) modify(ctx context.Context, path string) (vfs.RandomAccessor, error) {
	return os.OpenFile(l.resolve(path), os.O_RDWR, 0644)
}

// toURL renders a file:// URL over the resolved on-disk path. GET and PUT
// are meaningful against a local path (read or overwrite the file in
// place); DELETE and POST have no distinct local representation, so they
// report KindNotSupported rather than returning a misleading URL.
func (l *local) toURL(ctx context.Context, path string, kind vfs.URLKind) (string, error) {
	switch kind {
	case vfs.URLKindGet, vfs.URLKindPut:
		return "file://" + filepath.ToSlash(l.resolve(path)), nil
	default:
		return "", &vfs.Error{Kind: vfs.KindNotSupported, Path: path, Message: "local backend has no " + kind.String() + " URL"}
	}
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}
