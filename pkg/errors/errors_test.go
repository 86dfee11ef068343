package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("row locked")
	err := Wrap(CodeDependency, cause, "reserve stock")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsUnwrapsNestedError(t *testing.T) {
	t.Parallel()

	inner := New(CodeInsufficientStock, "2 units short")
	outer := fmt.Errorf("approving line: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInsufficientStock {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if !HasCode(outer, CodeInsufficientStock) {
		t.Fatal("HasCode should match through wrapping")
	}
}

func TestMetadataForDomainCodes(t *testing.T) {
	t.Parallel()

	cases := map[Code]int{
		CodeInsufficientStock: http.StatusConflict,
		CodeIrreversibleState: http.StatusConflict,
		CodeTokenExpired:      http.StatusGone,
		CodeVehicleNotSold:    http.StatusUnprocessableEntity,
		Code("UNKNOWN"):       http.StatusInternalServerError,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s: expected %d, got %d", code, status, got)
		}
	}
}

func TestIsUniqueViolationSQLiteMessage(t *testing.T) {
	t.Parallel()

	err := errors.New("UNIQUE constraint failed: processing_records.vin")
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected sqlite unique violation to match")
	}
	if !IsUniqueViolation(err, "processing_records") {
		t.Fatal("expected scoped match")
	}
	if IsUniqueViolation(errors.New("deadlock detected"), "") {
		t.Fatal("unexpected match")
	}
}
