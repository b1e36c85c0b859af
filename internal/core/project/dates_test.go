package project

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"2024-01-01", "2024-02-29", "1999-12-31", "2023-06-15"} {
		got, err := ParseDate(raw)
		if err != nil {
			t.Fatalf("ParseDate(%q) returned error: %v", raw, err)
		}
		if FormatDate(got) != raw {
			t.Fatalf("expected %q to round-trip, got %q", raw, FormatDate(got))
		}
		if got.Location() != time.UTC || got.Hour() != 0 {
			t.Fatalf("expected UTC midnight, got %v", got)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"2023-13-01", "2023-02-30", "2023-02-29", "abc", "", "2023-1-01", "2023/01/01", " 2023-01-01", "2023-01-01T00:00:00Z"} {
		if _, err := ParseDate(raw); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q): expected ErrInvalidDate, got %v", raw, err)
		}
	}
}

func TestParseOptionalDate(t *testing.T) {
	t.Parallel()

	if got, err := parseOptionalDate("deadline", nil); err != nil || got != nil {
		t.Fatalf("nil input must mean no date, got %v %v", got, err)
	}

	blank := "  "
	if got, err := parseOptionalDate("deadline", &blank); err != nil || got != nil {
		t.Fatalf("blank input must mean no date, got %v %v", got, err)
	}

	bad := "2023-02-30"
	_, err := parseOptionalDate("deadline", &bad)
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "deadline" {
		t.Fatalf("expected FieldError for deadline, got %v", err)
	}
	if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected validation + invalid date, got %v", err)
	}
}

func TestDateIn(t *testing.T) {
	t.Parallel()

	instant := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	if got := DateIn(instant, time.UTC); !got.Equal(date("2025-03-10")) {
		t.Fatalf("unexpected UTC date: %v", got)
	}
	if got := DateIn(instant, tokyo); !got.Equal(date("2025-03-11")) {
		t.Fatalf("unexpected JST date: %v", got)
	}
}
