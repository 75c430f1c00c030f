package vfs

import "context"

// prov is the package-level default Repository, reassignable with
// UseDefault the same way the teacher let callers reassign its default
// data provider (vfslocal.go: LocalFileSystem, default.go: SetDefault).
var prov *Repository

// Default returns the current default Repository, or nil if UseDefault was
// never called. Package-level forwarders below all delegate to it.
func Default() *Repository {
	return prov
}

// UseDefault installs repo as the default Repository for the package-level
// forwarders (Read/Write/Delete/Walk/...).
func UseDefault(repo *Repository) {
	prov = repo
}

// Read is a convenience forwarder to Default().Read.
func Read(ctx context.Context, path string, opts OpenReadOptions) ([]byte, error) {
	return Default().Read(ctx, path, opts)
}

// Write is a convenience forwarder to Default().Write.
func Write(ctx context.Context, path string, data []byte, opts OpenWriteOptions) error {
	return Default().Write(ctx, path, data, opts)
}

// Delete is a convenience forwarder to Default().Delete.
func Delete(ctx context.Context, path string, opts DeleteOptions) error {
	return Default().Delete(ctx, path, opts)
}

// List is a convenience forwarder to Default().List.
func List(ctx context.Context, path string, opts ListOptions) ([]Stats, error) {
	return Default().List(ctx, path, opts)
}

// Mkcol is a convenience forwarder to Default().Mkcol.
func Mkcol(ctx context.Context, path string, opts MkcolOptions) error {
	return Default().Mkcol(ctx, path, opts)
}

// Copy is a convenience forwarder to Default().Copy.
func Copy(ctx context.Context, src, dst string, opts XmitOptions) error {
	return Default().Copy(ctx, src, dst, opts)
}

// Move is a convenience forwarder to Default().Move.
func Move(ctx context.Context, src, dst string, opts XmitOptions) error {
	return Default().Move(ctx, src, dst, opts)
}

// Walk is a convenience forwarder to Default().Walk.
func Walk(ctx context.Context, root string, fn WalkFunc) error {
	return Default().Walk(ctx, root, fn)
}

// Head is a convenience forwarder to Default().Head.
func Head(ctx context.Context, path string) (Stats, error) {
	return Default().Head(ctx, path)
}
