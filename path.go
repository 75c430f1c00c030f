package vfs

import "strings"

// PathSeparator is always / and platform independent, regardless of the
// concrete backend underneath.
const PathSeparator = "/"

// Normalize canonicalizes p into the form used by every other operation in
// this package: a leading slash, no trailing slash (except for the root
// itself), no empty segments, "." dropped and ".." consuming the previous
// segment. A ".." that would underflow past the root fails with a Syntax
// error, per the invariant that a path never escapes its repository root.
func Normalize(p string) (string, error) {
	segments := strings.Split(p, PathSeparator)
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return "", &Error{Kind: KindSyntax, Path: p, Message: "path escapes root"}
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return PathSeparator + strings.Join(out, PathSeparator), nil
}

// MustNormalize is like Normalize but panics on an invalid path. It exists
// for call sites building paths out of compile-time constants.
func MustNormalize(p string) string {
	n, err := Normalize(p)
	if err != nil {
		panic(err)
	}
	return n
}

// Parent returns the normalized parent of p. Parent("/") is "/".
func Parent(p string) string {
	n, err := Normalize(p)
	if err != nil || n == PathSeparator {
		return PathSeparator
	}
	idx := strings.LastIndex(n, PathSeparator)
	if idx <= 0 {
		return PathSeparator
	}
	return n[:idx]
}

// Basename returns the last path segment of p. Basename("/") is "".
func Basename(p string) string {
	n, err := Normalize(p)
	if err != nil || n == PathSeparator {
		return ""
	}
	idx := strings.LastIndex(n, PathSeparator)
	return n[idx+1:]
}

// Join concatenates a and b and normalizes the result. If b is itself
// absolute, it wins outright (matching path/filepath.Join's treatment of a
// rooted second argument as a reset, not a concatenation).
func Join(a, b string) (string, error) {
	if strings.HasPrefix(b, PathSeparator) {
		return Normalize(b)
	}
	return Normalize(a + PathSeparator + b)
}

// names splits a normalized path into its segments. names("/") is empty.
func names(p string) []string {
	if p == "" || p == PathSeparator {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, PathSeparator), PathSeparator)
}
