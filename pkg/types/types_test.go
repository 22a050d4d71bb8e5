package types

import (
	"errors"
	"testing"
	"time"
)

func TestEntityValidate(t *testing.T) {
	valid := &Entity{ID: "e1", Type: "function"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	if err := (&Entity{Type: "function"}).Validate(); err != ErrEmptyID {
		t.Errorf("Validate() = %v, want %v", err, ErrEmptyID)
	}
	if err := (&Entity{ID: "e1"}).Validate(); err != ErrEmptyType {
		t.Errorf("Validate() = %v, want %v", err, ErrEmptyType)
	}
}

func TestTimeRangeContains(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	var nilRange *TimeRange
	if !nilRange.Contains(since) {
		t.Error("nil range should contain everything")
	}

	full := &TimeRange{Since: &since, Until: &until}
	if full.Contains(since.Add(-time.Minute)) {
		t.Error("range should exclude instants before Since")
	}
	if !full.Contains(since) {
		t.Error("range should include Since itself")
	}
	if !full.Contains(until) {
		t.Error("range should include Until itself")
	}
	if full.Contains(until.Add(time.Minute)) {
		t.Error("range should exclude instants after Until")
	}

	openEnded := &TimeRange{Since: &since}
	if !openEnded.Contains(until.Add(1000 * time.Hour)) {
		t.Error("open-ended range should contain any later instant")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	notFound := &NotFoundError{Resource: "checkpoint", ID: "cp-1"}
	if !IsNotFound(notFound) {
		t.Error("IsNotFound should match NotFoundError")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound should not match arbitrary errors")
	}

	consistency := &ConsistencyError{Op: "CloseEdge", Detail: "no open edge"}
	if !IsConsistency(consistency) {
		t.Error("IsConsistency should match ConsistencyError")
	}

	cause := errors.New("connection refused")
	store := NewStoreError("OpenEdge", cause)
	if !IsStore(store) {
		t.Error("IsStore should match StoreError")
	}
	if !errors.Is(store, cause) {
		t.Error("StoreError should preserve its cause for errors.Is")
	}
	if NewStoreError("OpenEdge", nil) != nil {
		t.Error("NewStoreError should pass nil through")
	}

	validation := &ValidationError{Field: "reason", Reason: "cannot be empty"}
	if !IsValidation(validation) {
		t.Error("IsValidation should match ValidationError")
	}

	// Wrapped errors are still recognized.
	wrapped := NewStoreError("outer", notFound)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
}
