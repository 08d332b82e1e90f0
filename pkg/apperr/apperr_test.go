package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("missing")); got != KindNotFound {
		t.Fatalf("KindOf = %d, want KindNotFound", got)
	}
	if got := KindOf(errors.New("raw")); got != KindInternal {
		t.Fatalf("untyped error KindOf = %d, want KindInternal", got)
	}
	if got := KindOf(nil); got != KindInternal {
		t.Fatalf("nil KindOf = %d, want KindInternal", got)
	}

	// Kind survives wrapping
	wrapped := fmt.Errorf("outer: %w", Forbidden("nope"))
	if got := KindOf(wrapped); got != KindForbidden {
		t.Fatalf("wrapped KindOf = %d, want KindForbidden", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(KindInternal, cause, "saving request %s", "abc")
	if !errors.Is(err, cause) {
		t.Fatalf("wrapped error lost its cause")
	}
	if err.Error() != "saving request abc: disk on fire" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{InvalidInput("x"), http.StatusBadRequest},
		{InvalidState("x"), http.StatusBadRequest},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{New(KindConflict, "x"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
