package vfs

import (
	"context"
	"fmt"
)

// Entry is a thin, path-bound convenience handle over a Repository (C6): a
// way to chain operations against one path without re-threading ctx and path
// through every call. It carries no state of its own beyond the path; Stat
// always re-fetches.
type Entry struct {
	repo *Repository
	path string
}

// GetEntry returns an Entry bound to path on this repository. It does not
// verify path exists; call Stat for that.
func (r *Repository) GetEntry(path string) (*Entry, error) {
	p, err := Normalize(path)
	if err != nil {
		return nil, err
	}
	return &Entry{repo: r, path: p}, nil
}

// Path returns the entry's normalized path.
func (e *Entry) Path() string {
	return e.path
}

// Parent returns an Entry bound to this entry's parent directory.
func (e *Entry) Parent() *Entry {
	return &Entry{repo: e.repo, path: Parent(e.path)}
}

// Stat fetches current Stats for the entry.
func (e *Entry) Stat(ctx context.Context) (Stats, error) {
	return e.repo.Head(ctx, e.path)
}

// Patch merges or replaces the entry's Props.
func (e *Entry) Patch(ctx context.Context, props Props, opts PatchOptions) error {
	return e.repo.Patch(ctx, e.path, props, opts)
}

// Delete removes the entry (§4.6/§4.7).
func (e *Entry) Delete(ctx context.Context, opts DeleteOptions) error {
	return e.repo.Delete(ctx, e.path, opts)
}

// CopyTo transfers the entry to dst without removing the source.
func (e *Entry) CopyTo(ctx context.Context, dst string, opts XmitOptions) error {
	return e.repo.Copy(ctx, e.path, dst, opts)
}

// MoveTo transfers the entry to dst and removes the source once the
// transfer completes successfully.
func (e *Entry) MoveTo(ctx context.Context, dst string, opts XmitOptions) error {
	return e.repo.Move(ctx, e.path, dst, opts)
}

// ToURL asks the backend for a presigned/addressable URL appropriate for
// kind (§6 "URL kinds"). Backends that don't support URL generation, or
// don't support the requested verb, report KindNotSupported; the entry never
// fabricates a URL itself.
func (e *Entry) ToURL(ctx context.Context, kind URLKind) (string, error) {
	if e.repo.backend.ToURL == nil {
		return "", &Error{Kind: KindNotSupported, Repository: e.repo.name, Path: e.path, Message: "backend does not support toURL"}
	}
	u, err := e.repo.backend.ToURL(ctx, e.path, kind)
	if err != nil {
		return "", e.repo.translate(KindNotSupported, e.path, err)
	}
	return u, nil
}

// String renders the entry as "{repository}:{path}", injective across
// repositories so two entries with the same path in different repositories
// never collide when used as a map key or log field (§3, §6).
func (e *Entry) String() string {
	return fmt.Sprintf("%s:%s", e.repo.name, e.path)
}
