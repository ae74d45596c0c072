package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		reason string
	}{
		{NotFound("Food with ID %s not found", "abc"), http.StatusNotFound, "Food with ID abc not found"},
		{BadRequest("Invalid ID"), http.StatusBadRequest, "Invalid ID"},
		{Conflict("This email is already in use"), http.StatusConflict, "This email is already in use"},
		{Forbidden("You cannot delete this meal"), http.StatusForbidden, "You cannot delete this meal"},
		{Unauthorized("Incorrect password"), http.StatusUnauthorized, "Incorrect password"},
		{Internal("query meals", errors.New("conn reset")), http.StatusInternalServerError, "internal server error"},
		{errors.New("plain"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err).Status(); got != tt.status {
			t.Errorf("KindOf(%v).Status() = %d, want %d", tt.err, got, tt.status)
		}
		if got := Reason(tt.err); got != tt.reason {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.reason)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("create meal: %w", NotFound("Food with ID x not found"))
	if !Is(err, KindNotFound) {
		t.Fatalf("Is(wrapped, NotFound) = false")
	}
	if Reason(err) != "Food with ID x not found" {
		t.Errorf("Reason = %q", Reason(err))
	}
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Internal("insert meal", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(Internal, cause) = false")
	}
}
