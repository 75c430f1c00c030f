package vfs

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":            "/",
		"/":           "/",
		"a/b":         "/a/b",
		"/a/b/":       "/a/b",
		"/a/./b":      "/a/b",
		"/a/b/../c":   "/a/c",
		"//a///b":     "/a/b",
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEscapesRoot(t *testing.T) {
	if _, err := Normalize("/a/../.."); err == nil {
		t.Fatalf("expected error escaping root, got nil")
	} else if !IsKind(err, KindSyntax) {
		t.Fatalf("expected KindSyntax, got %v", err)
	}
}

func TestParentAndBasename(t *testing.T) {
	if got := Parent("/a/b/c"); got != "/a/b" {
		t.Fatalf("Parent = %q", got)
	}
	if got := Parent("/"); got != "/" {
		t.Fatalf("Parent(/) = %q", got)
	}
	if got := Basename("/a/b/c"); got != "c" {
		t.Fatalf("Basename = %q", got)
	}
	if got := Basename("/"); got != "" {
		t.Fatalf("Basename(/) = %q", got)
	}
}

func TestJoin(t *testing.T) {
	got, err := Join("/a/b", "c/d")
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if got != "/a/b/c/d" {
		t.Fatalf("Join = %q", got)
	}
	got, err = Join("/a/b", "/c/d")
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if got != "/c/d" {
		t.Fatalf("Join with absolute second arg = %q, want reset to /c/d", got)
	}
}
