package errorx

import (
	"errors"
	"testing"
)

func TestKindMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{New(CodeInvalidParam, "bad"), KindValidation},
		{ErrDuplicateConnection, KindDuplicateConnection},
		{ErrInvalidTransition, KindInvalidTransition},
		{Wrap(errors.New("record not found"), CodeNotFound, "x"), KindNotFound},
		{ErrPermissionDenied, KindPermissionDenied},
		{Wrap(errors.New("conn refused"), CodeDBError, "db"), KindTransientStore},
		{Wrap(errors.New("timeout"), CodeCacheError, "cache"), KindTransientStore},
		{errors.New("plain"), KindInternal},
		{nil, ""},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.want {
			t.Errorf("Kind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := Newf(CodePermissionDenied, "user %s may not write first", "U1")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatal("expected errors.Is to match on code")
	}
	if errors.Is(err, ErrInvalidTransition) {
		t.Fatal("codes differ, should not match")
	}

	root := errors.New("disk full")
	wrapped := Wrap(root, CodeDBError, "persist message")
	if !errors.Is(wrapped, root) {
		t.Fatal("expected cause to be reachable")
	}
	if !IsTransient(wrapped) {
		t.Fatal("db error should be transient")
	}
}
