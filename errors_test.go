package vfs

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsKind(t *testing.T) {
	err := &Error{Kind: KindNotFound, Path: "/a"}
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected KindNotFound")
	}
	if IsKind(err, KindSyntax) {
		t.Fatalf("did not expect KindSyntax")
	}
	if IsKind(fmt.Errorf("plain"), KindNotFound) {
		t.Fatalf("plain error should not match any Kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk exploded")
	err := &Error{Kind: KindNotReadable, Path: "/a", Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the cause")
	}
}

func TestIsOwn(t *testing.T) {
	if !IsOwn(&Error{Kind: KindAbort}) {
		t.Fatalf("expected IsOwn true for *Error")
	}
	if IsOwn(fmt.Errorf("plain")) {
		t.Fatalf("expected IsOwn false for a foreign error")
	}
}
