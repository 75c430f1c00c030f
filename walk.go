package vfs

import "context"

// WalkFunc is called once per visited entry during Walk. Returning an error
// stops the walk and the error propagates out of Walk unchanged.
type WalkFunc func(path string, st Stats) error

// Walk visits root and every descendant depth-first, calling fn for each
// (§8 "Directory round-trip", "Recursive copy" scenarios rely on this).
// Built directly on List plus recursion: unlike xmit's transfer stack, a
// Walk callback can itself want call-stack-ordered parent-before-child
// visitation, so recursion (not an explicit stack) is the right shape here.
func (r *Repository) Walk(ctx context.Context, root string, fn WalkFunc) error {
	root, err := Normalize(root)
	if err != nil {
		return err
	}
	st, err := r.Head(ctx, root)
	if err != nil {
		return err
	}
	return r.walk(ctx, root, st, fn)
}

func (r *Repository) walk(ctx context.Context, path string, st Stats, fn WalkFunc) error {
	if err := fn(path, st); err != nil {
		return err
	}
	if !st.IsDir() {
		return nil
	}
	children, err := r.List(ctx, path, ListOptions{})
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := r.walk(ctx, c.Path, c, fn); err != nil {
			return err
		}
	}
	return nil
}
