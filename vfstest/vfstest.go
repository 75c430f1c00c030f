// Package vfstest generalizes the teacher's CTS ("compliance test suite",
// cts_test.go) into a reusable harness: a table of named Checks run against
// any vfs.Backend, validating the invariants the core's design relies on
// (whole/ranged read-write round trips, directory listing, recursive
// copy/move, hash stability) so a new backend implementation can be
// confident it satisfies the same contract the reference backends do.
package vfstest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/vfscore/vfs"
)

// Check is one named property a Backend is expected to satisfy. base is a
// scratch directory, already created, that the check owns exclusively.
type Check struct {
	Name string
	Test func(ctx context.Context, repo *vfs.Repository, base string) error
}

// Result connects a Check to its outcome.
type Result struct {
	Check *Check
	Err   error
}

// Results is a run's full Check outcome list.
type Results []Result

// Failures returns only the failed checks.
func (r Results) Failures() Results {
	var out Results
	for _, res := range r {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// String renders a markdown checklist of the run, mirroring the teacher's
// CTSResult.String table.
func (r Results) String() string {
	out := "| check | result |\n| --- | --- |\n"
	for _, res := range r {
		status := "ok"
		if res.Err != nil {
			status = "FAIL: " + res.Err.Error()
		}
		out += fmt.Sprintf("| %s | %s |\n", res.Check.Name, status)
	}
	return out
}

// checks is the full property table. Every check runs under its own
// scratch directory so checks don't interfere with each other's fixtures.
var checks = []*Check{
	checkEmptyDirectory,
	checkWriteReadRoundTrip,
	checkRangedWrite,
	checkAppend,
	checkDirectoryRoundTrip,
	checkRecursiveCopyThenMove,
	checkHashStable,
}

// Run executes every Check against repo, each under its own scratch
// directory beneath root.
func Run(ctx context.Context, repo *vfs.Repository, root string) Results {
	var results Results
	for i, c := range checks {
		base := fmt.Sprintf("%s/check-%d", root, i)
		_ = repo.Mkcol(ctx, base, vfs.MkcolOptions{Parents: true})
		results = append(results, Result{Check: c, Err: c.Test(ctx, repo, base)})
	}
	return results
}

var checkEmptyDirectory = &Check{
	Name: "newly created directory is empty",
	Test: func(ctx context.Context, repo *vfs.Repository, base string) error {
		entries, err := repo.List(ctx, base, vfs.ListOptions{})
		if err != nil {
			return err
		}
		if len(entries) != 0 {
			return fmt.Errorf("expected empty directory, got %d entries", len(entries))
		}
		return nil
	},
}

var checkWriteReadRoundTrip = &Check{
	Name: "whole write then whole read round-trips",
	Test: func(ctx context.Context, repo *vfs.Repository, base string) error {
		want := []byte("hello, vfs")
		path := base + "/a.txt"
		if err := repo.Write(ctx, path, want, vfs.OpenWriteOptions{Truncate: true}); err != nil {
			return err
		}
		got, err := repo.Read(ctx, path, vfs.OpenReadOptions{})
		if err != nil {
			return err
		}
		if !bytes.Equal(got, want) {
			return fmt.Errorf("round trip mismatch: got %q, want %q", got, want)
		}
		return nil
	},
}

var checkRangedWrite = &Check{
	Name: "ranged write patches without disturbing the rest",
	Test: func(ctx context.Context, repo *vfs.Repository, base string) error {
		path := base + "/b.txt"
		if err := repo.Write(ctx, path, []byte("0123456789"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
			return err
		}
		if err := repo.Write(ctx, path, []byte("XYZ"), vfs.OpenWriteOptions{Offset: 3}); err != nil {
			return err
		}
		got, err := repo.Read(ctx, path, vfs.OpenReadOptions{})
		if err != nil {
			return err
		}
		want := "012XYZ6789"
		if string(got) != want {
			return fmt.Errorf("ranged write mismatch: got %q, want %q", got, want)
		}
		return nil
	},
}

var checkAppend = &Check{
	Name: "append lands at current end of file",
	Test: func(ctx context.Context, repo *vfs.Repository, base string) error {
		path := base + "/c.txt"
		if err := repo.Write(ctx, path, []byte("abc"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
			return err
		}
		if err := repo.Write(ctx, path, []byte("def"), vfs.OpenWriteOptions{Append: true}); err != nil {
			return err
		}
		got, err := repo.Read(ctx, path, vfs.OpenReadOptions{})
		if err != nil {
			return err
		}
		if string(got) != "abcdef" {
			return fmt.Errorf("append mismatch: got %q", got)
		}
		return nil
	},
}

var checkDirectoryRoundTrip = &Check{
	Name: "mkcol then list surfaces the created directory",
	Test: func(ctx context.Context, repo *vfs.Repository, base string) error {
		dir := base + "/dir"
		if err := repo.Mkcol(ctx, dir, vfs.MkcolOptions{}); err != nil {
			return err
		}
		entries, err := repo.List(ctx, base, vfs.ListOptions{})
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() && e.Path == dir {
				return nil
			}
		}
		return fmt.Errorf("created directory not found in listing")
	},
}

var checkRecursiveCopyThenMove = &Check{
	Name: "recursive copy then move preserves content",
	Test: func(ctx context.Context, repo *vfs.Repository, base string) error {
		src := base + "/src"
		cp := base + "/copy"
		mv := base + "/moved"
		if err := repo.Mkcol(ctx, src, vfs.MkcolOptions{}); err != nil {
			return err
		}
		if err := repo.Write(ctx, src+"/f.txt", []byte("payload"), vfs.OpenWriteOptions{Truncate: true}); err != nil {
			return err
		}
		if err := repo.Copy(ctx, src, cp, vfs.XmitOptions{Recursive: true}); err != nil {
			return err
		}
		if err := repo.Move(ctx, cp, mv, vfs.XmitOptions{Recursive: true}); err != nil {
			return err
		}
		got, err := repo.Read(ctx, mv+"/f.txt", vfs.OpenReadOptions{})
		if err != nil {
			return err
		}
		if string(got) != "payload" {
			return fmt.Errorf("content lost across copy+move: got %q", got)
		}
		if _, err := repo.Head(ctx, cp); err == nil {
			return fmt.Errorf("source of move still present after move")
		}
		return nil
	},
}

var checkHashStable = &Check{
	Name: "hash is identical for identical content",
	Test: func(ctx context.Context, repo *vfs.Repository, base string) error {
		data := bytes.Repeat([]byte{0xAB}, 1<<16)
		p1, p2 := base+"/h1.bin", base+"/h2.bin"
		if err := repo.Write(ctx, p1, data, vfs.OpenWriteOptions{Truncate: true}); err != nil {
			return err
		}
		if err := repo.Write(ctx, p2, data, vfs.OpenWriteOptions{Truncate: true}); err != nil {
			return err
		}
		h1, err := repo.Hash(ctx, p1)
		if err != nil {
			return err
		}
		h2, err := repo.Hash(ctx, p2)
		if err != nil {
			return err
		}
		if h1 != h2 {
			return fmt.Errorf("hash mismatch for identical content: %s != %s", h1, h2)
		}
		return nil
	},
}
