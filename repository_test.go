package vfs_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/vfscore/vfs"
	"github.com/vfscore/vfs/backend/memory"
)

func newRepo(t *testing.T) *vfs.Repository {
	t.Helper()
	return vfs.New("test", memory.New())
}

func TestWriteReadWholeFile(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	want := []byte("hello, world")
	if err := repo.Write(ctx, "/a.txt", want, vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := repo.Read(ctx, "/a.txt", vfs.OpenReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHeadNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, err := repo.Head(ctx, "/missing")
	if !vfs.IsKind(err, vfs.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestRangeWriteEmulation(t *testing.T) {
	// backend/memory declares RangeWrite = false, so this exercises the
	// core's read-modify-write emulation path.
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Write(ctx, "/b.txt", []byte("0123456789"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Write(ctx, "/b.txt", []byte("XYZ"), vfs.OpenWriteOptions{Offset: 4}); err != nil {
		t.Fatalf("ranged Write: %v", err)
	}
	got, err := repo.Read(ctx, "/b.txt", vfs.OpenReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "0123XYZ789" {
		t.Fatalf("got %q", got)
	}
}

func TestAppendEmulation(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Write(ctx, "/c.txt", []byte("abc"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Write(ctx, "/c.txt", []byte("def"), vfs.OpenWriteOptions{Append: true}); err != nil {
		t.Fatalf("append Write: %v", err)
	}
	got, err := repo.Read(ctx, "/c.txt", vfs.OpenReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "abcdef" {
		t.Fatalf("got %q", got)
	}
}

func TestMkcolAndList(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Mkcol(ctx, "/dir", vfs.MkcolOptions{Parents: true}); err != nil {
		t.Fatalf("Mkcol: %v", err)
	}
	if err := repo.Write(ctx, "/dir/f.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := repo.List(ctx, "/dir", vfs.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "/dir/f.txt" {
		t.Fatalf("unexpected listing: %+v", entries)
	}
}

func TestDeleteNonEmptyRequiresRecursive(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Mkcol(ctx, "/dir", vfs.MkcolOptions{}); err != nil {
		t.Fatalf("Mkcol: %v", err)
	}
	if err := repo.Write(ctx, "/dir/f.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Delete(ctx, "/dir", vfs.DeleteOptions{}); !vfs.IsKind(err, vfs.KindInvalidModification) {
		t.Fatalf("expected KindInvalidModification, got %v", err)
	}
	if err := repo.Delete(ctx, "/dir", vfs.DeleteOptions{Recursive: true}); err != nil {
		t.Fatalf("recursive Delete: %v", err)
	}
	if _, err := repo.Head(ctx, "/dir"); !vfs.IsKind(err, vfs.KindNotFound) {
		t.Fatalf("expected directory gone, got %v", err)
	}
}

func TestRecursiveCopyThenMove(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Mkcol(ctx, "/src", vfs.MkcolOptions{}); err != nil {
		t.Fatalf("Mkcol: %v", err)
	}
	if err := repo.Write(ctx, "/src/f.txt", []byte("payload"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Copy(ctx, "/src", "/copy", vfs.XmitOptions{Recursive: true}); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := repo.Move(ctx, "/copy", "/moved", vfs.XmitOptions{Recursive: true}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := repo.Read(ctx, "/moved/f.txt", vfs.OpenReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q", got)
	}
	if _, err := repo.Head(ctx, "/copy"); !vfs.IsKind(err, vfs.KindNotFound) {
		t.Fatalf("expected move source gone, got %v", err)
	}
	if _, err := repo.Head(ctx, "/src"); err != nil {
		t.Fatalf("copy must not remove original source: %v", err)
	}
}

func TestCopyWithoutOverwriteFailsOnExistingDestination(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Write(ctx, "/a.txt", []byte("a"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Write(ctx, "/b.txt", []byte("b"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Copy(ctx, "/a.txt", "/b.txt", vfs.XmitOptions{}); !vfs.IsKind(err, vfs.KindSecurity) {
		t.Fatalf("expected KindSecurity, got %v", err)
	}
	if err := repo.Copy(ctx, "/a.txt", "/b.txt", vfs.XmitOptions{Overwrite: true}); err != nil {
		t.Fatalf("Copy with Overwrite: %v", err)
	}
}

func TestHashStableAcrossIdenticalContent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	data := bytes.Repeat([]byte{0x42}, 1<<15)
	if err := repo.Write(ctx, "/h1.bin", data, vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Write(ctx, "/h2.bin", data, vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	h1, err := repo.Hash(ctx, "/h1.bin")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := repo.Hash(ctx, "/h2.bin")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash mismatch: %s != %s", h1, h2)
	}
}

func TestReadStreamSeek(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Write(ctx, "/s.txt", []byte("0123456789"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rs, err := repo.OpenReadStream(ctx, "/s.txt", vfs.OpenReadOptions{})
	if err != nil {
		t.Fatalf("OpenReadStream: %v", err)
	}
	defer rs.Close()
	if _, err := rs.Seek(5, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, 3)
	n, err := rs.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "567" {
		t.Fatalf("got %q after seek", buf[:n])
	}
}

func TestHookBeforeShortCircuits(t *testing.T) {
	ctx := context.Background()
	hooks := vfs.NewHookSet()
	hooks.Before(func(op *vfs.OpContext) (interface{}, bool, error) {
		if op.Op == "delete" {
			return nil, true, &vfs.Error{Kind: vfs.KindNoModificationAllowed, Path: op.Path, Message: "blocked by policy"}
		}
		return nil, false, nil
	})
	repo := vfs.New("guarded", memory.New(), vfs.WithHooks(hooks))
	if err := repo.Write(ctx, "/a.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Delete(ctx, "/a.txt", vfs.DeleteOptions{}); !vfs.IsKind(err, vfs.KindNoModificationAllowed) {
		t.Fatalf("expected delete to be blocked, got %v", err)
	}
	if _, err := repo.Head(ctx, "/a.txt"); err != nil {
		t.Fatalf("file should still exist after blocked delete: %v", err)
	}
}

func TestAfterHookFiresOnSuccess(t *testing.T) {
	ctx := context.Background()
	hooks := vfs.NewHookSet()
	var fired []string
	hooks.After(func(op *vfs.OpContext, result interface{}) {
		fired = append(fired, op.Op+":"+op.Path)
	})
	repo := vfs.New("observed", memory.New(), vfs.WithHooks(hooks))
	if err := repo.Write(ctx, "/a.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(fired) != 1 || fired[0] != "post:/a.txt" {
		t.Fatalf("expected after-hook to fire for post:/a.txt (new path), got %v", fired)
	}
}

func TestWritePutVsPostHookNaming(t *testing.T) {
	ctx := context.Background()
	hooks := vfs.NewHookSet()
	var fired []string
	hooks.After(func(op *vfs.OpContext, result interface{}) {
		fired = append(fired, op.Op)
	})
	repo := vfs.New("observed", memory.New(), vfs.WithHooks(hooks))
	if err := repo.Write(ctx, "/a.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := repo.Write(ctx, "/a.txt", []byte("y"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if len(fired) != 2 || fired[0] != "post" || fired[1] != "put" {
		t.Fatalf("expected [post put], got %v", fired)
	}
}

func TestWriteCreateTriState(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	mustNotExist := vfs.CreateNew()
	if err := repo.Write(ctx, "/new.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true, Create: mustNotExist}); err != nil {
		t.Fatalf("create on absent path: %v", err)
	}
	if err := repo.Write(ctx, "/new.txt", []byte("y"), vfs.OpenWriteOptions{Truncate: true, Create: mustNotExist}); !vfs.IsKind(err, vfs.KindPathExist) {
		t.Fatalf("expected KindPathExist, got %v", err)
	}
	mustExist := vfs.UpdateExisting()
	if err := repo.Write(ctx, "/missing.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true, Create: mustExist}); !vfs.IsKind(err, vfs.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
	if err := repo.Write(ctx, "/new.txt", []byte("z"), vfs.OpenWriteOptions{Truncate: true, Create: mustExist}); err != nil {
		t.Fatalf("update on existing path: %v", err)
	}
}

func TestWriteStreamCloseHookOnlyFiresWhenDirty(t *testing.T) {
	ctx := context.Background()
	hooks := vfs.NewHookSet()
	var fired int
	hooks.After(func(op *vfs.OpContext, result interface{}) {
		fired++
	})
	repo := vfs.New("observed", memory.New(), vfs.WithHooks(hooks))
	ws, err := repo.OpenWriteStream(ctx, "/empty.txt", vfs.OpenWriteOptions{Truncate: true})
	if err != nil {
		t.Fatalf("OpenWriteStream: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fired != 0 {
		t.Fatalf("expected no after-hook for a stream that was never written to, got %d", fired)
	}

	ws2, err := repo.OpenWriteStream(ctx, "/written.txt", vfs.OpenWriteOptions{Truncate: true})
	if err != nil {
		t.Fatalf("OpenWriteStream: %v", err)
	}
	if _, err := ws2.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := ws2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected exactly one after-hook for a dirty stream, got %d", fired)
	}
}

func TestIgnoreHookSuppressesBeforeAndAfter(t *testing.T) {
	ctx := context.Background()
	hooks := vfs.NewHookSet()
	var beforeCalls, afterCalls int
	hooks.Before(func(op *vfs.OpContext) (interface{}, bool, error) {
		beforeCalls++
		return nil, false, nil
	})
	hooks.After(func(op *vfs.OpContext, result interface{}) {
		afterCalls++
	})
	repo := vfs.New("observed", memory.New(), vfs.WithHooks(hooks))
	if err := repo.Write(ctx, "/a.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true, CommonOptions: vfs.CommonOptions{IgnoreHook: true}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if beforeCalls != 0 || afterCalls != 0 {
		t.Fatalf("expected hooks skipped, got before=%d after=%d", beforeCalls, afterCalls)
	}
}

func TestDeleteMissingRequiresForce(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Delete(ctx, "/gone.txt", vfs.DeleteOptions{}); !vfs.IsKind(err, vfs.KindNotFound) {
		t.Fatalf("expected KindNotFound without Force, got %v", err)
	}
	if err := repo.Delete(ctx, "/gone.txt", vfs.DeleteOptions{CommonOptions: vfs.CommonOptions{Force: true}}); err != nil {
		t.Fatalf("expected Force to swallow missing path, got %v", err)
	}
}

func TestMkcolDefaultRejectsExistingDirectory(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Mkcol(ctx, "/dir", vfs.MkcolOptions{}); err != nil {
		t.Fatalf("Mkcol: %v", err)
	}
	if err := repo.Mkcol(ctx, "/dir", vfs.MkcolOptions{}); !vfs.IsKind(err, vfs.KindPathExist) {
		t.Fatalf("expected KindPathExist on re-Mkcol, got %v", err)
	}
	if err := repo.Mkcol(ctx, "/dir", vfs.MkcolOptions{CommonOptions: vfs.CommonOptions{Force: true}}); err != nil {
		t.Fatalf("expected Force to make Mkcol idempotent, got %v", err)
	}
}

func TestCopyDirectoryIntoExistingDestinationSucceeds(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Mkcol(ctx, "/src", vfs.MkcolOptions{}); err != nil {
		t.Fatalf("Mkcol /src: %v", err)
	}
	if err := repo.Write(ctx, "/src/f.txt", []byte("payload"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Mkcol(ctx, "/dst", vfs.MkcolOptions{}); err != nil {
		t.Fatalf("Mkcol /dst: %v", err)
	}
	if err := repo.Copy(ctx, "/src", "/dst", vfs.XmitOptions{Recursive: true}); err != nil {
		t.Fatalf("expected directory copy into a pre-existing destination directory to succeed, got %v", err)
	}
	got, err := repo.Read(ctx, "/dst/f.txt", vfs.OpenReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q", got)
	}
}

func TestEntryStringFormat(t *testing.T) {
	repo := vfs.New("photos", memory.New())
	e, err := repo.GetEntry("/a/b.txt")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got := e.String(); got != "photos:/a/b.txt" {
		t.Fatalf("String() = %q, want %q", got, "photos:/a/b.txt")
	}
}

func TestEntryToURLNotSupportedWithoutBackendField(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Write(ctx, "/a.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	e, err := repo.GetEntry("/a.txt")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if _, err := e.ToURL(ctx, vfs.URLKindGet); !vfs.IsKind(err, vfs.KindNotSupported) {
		t.Fatalf("expected KindNotSupported, got %v", err)
	}
}

func TestLogicalDelete(t *testing.T) {
	ctx := context.Background()
	repo := vfs.New("soft", memory.New(), vfs.WithLogicalDelete(true))
	if err := repo.Write(ctx, "/a.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := repo.Delete(ctx, "/a.txt", vfs.DeleteOptions{}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Head(ctx, "/a.txt"); !vfs.IsKind(err, vfs.KindNotFound) {
		t.Fatalf("expected logically-deleted entry to be masked as NotFound, got %v", err)
	}
}

func TestWalkVisitsWholeTree(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.Mkcol(ctx, "/dir", vfs.MkcolOptions{}); err != nil {
		t.Fatalf("Mkcol: %v", err)
	}
	if err := repo.Write(ctx, "/dir/f.txt", []byte("x"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var visited []string
	err := repo.Walk(ctx, "/", func(path string, st vfs.Stats) error {
		visited = append(visited, path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := map[string]bool{"/": true, "/dir": true, "/dir/f.txt": true}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %d entries", visited, len(want))
	}
	for _, p := range visited {
		if !want[p] {
			t.Fatalf("unexpected visited path %q", p)
		}
	}
}
