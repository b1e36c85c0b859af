package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

func TestWindowOf(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	asOf := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)

	utc := WindowOf(asOf, time.UTC)
	if !utc.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected UTC start: %v", utc.Start)
	}
	if utc.End.Sub(utc.Start) != 24*time.Hour {
		t.Fatalf("expected 24h window, got %v", utc.End.Sub(utc.Start))
	}

	// 20:00 UTC は JST では翌日の 05:00
	jst := WindowOf(asOf, tokyo)
	if !jst.Start.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, tokyo)) {
		t.Fatalf("unexpected JST start: %v", jst.Start)
	}
	if !jst.Contains(asOf) || jst.Contains(jst.End) {
		t.Fatalf("window bounds are not half-open")
	}
}

func TestLedger_RecordStatus_SameDayAmends(t *testing.T) {
	t.Parallel()

	entries := newFakeEntryRepo()
	users := newFakeUserRepo("user-1")
	ledger := NewLedger(entries, users, time.UTC)

	morning := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 4, 1, 18, 30, 0, 0, time.UTC)

	first, err := ledger.RecordStatus(context.Background(), "user-1", user.StatusAtWork, morning)
	if err != nil {
		t.Fatalf("RecordStatus returned error: %v", err)
	}

	second, err := ledger.RecordStatus(context.Background(), "user-1", user.StatusAvailable, evening)
	if err != nil {
		t.Fatalf("RecordStatus returned error: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same-day entry to be amended, got %s and %s", first.ID, second.ID)
	}

	got := entries.forUser("user-1")
	if len(got) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(got))
	}
	if got[0].Status != user.StatusAvailable || !got[0].Timestamp.Equal(evening) {
		t.Fatalf("entry not amended: %+v", got[0])
	}
	if users.statusOf("user-1") != user.StatusAvailable {
		t.Fatalf("expected user status to follow ledger, got %q", users.statusOf("user-1"))
	}
}

func TestLedger_RecordStatus_NextDayAppends(t *testing.T) {
	t.Parallel()

	entries := newFakeEntryRepo()
	ledger := NewLedger(entries, newFakeUserRepo("user-1"), time.UTC)

	day1 := time.Date(2025, 4, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2025, 4, 2, 0, 1, 0, 0, time.UTC)

	if _, err := ledger.RecordStatus(context.Background(), "user-1", user.StatusAtWork, day1); err != nil {
		t.Fatalf("RecordStatus day1 error: %v", err)
	}
	if _, err := ledger.RecordStatus(context.Background(), "user-1", user.StatusAtWork, day2); err != nil {
		t.Fatalf("RecordStatus day2 error: %v", err)
	}

	if got := entries.forUser("user-1"); len(got) != 2 {
		t.Fatalf("expected one entry per day, got %d", len(got))
	}
}

func TestLedger_RecordStatus_KeepsOtherUserFields(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo("user-1")
	ledger := NewLedger(newFakeEntryRepo(), users, time.UTC)
	asOf := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	// 再計算と並行して別経路で名前が変わっても上書きしない
	users.rename("user-1", "Renamed")

	if _, err := ledger.RecordStatus(context.Background(), "user-1", user.StatusAtWork, asOf); err != nil {
		t.Fatalf("RecordStatus returned error: %v", err)
	}

	got, err := users.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if got.Name != "Renamed" {
		t.Fatalf("expected name to be preserved, got %q", got.Name)
	}
	if got.Status != user.StatusAtWork || !got.UpdatedAt.Equal(asOf) {
		t.Fatalf("unexpected user after status write: %+v", got)
	}
}

func TestLedger_RecordStatus_Errors(t *testing.T) {
	t.Parallel()

	entries := newFakeEntryRepo()
	ledger := NewLedger(entries, newFakeUserRepo("user-1"), nil)
	now := time.Now().UTC()

	if _, err := ledger.RecordStatus(context.Background(), "ghost", user.StatusAtWork, now); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if got := entries.forUser("ghost"); len(got) != 0 {
		t.Fatalf("expected no entry for unknown user")
	}

	if _, err := ledger.RecordStatus(context.Background(), "user-1", user.Status("On Leave"), now); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if _, err := ledger.RecordStatus(context.Background(), " ", user.StatusAtWork, now); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}

	storeErr := errors.New("connection reset")
	entries.failFor["user-1"] = storeErr
	if _, err := ledger.RecordStatus(context.Background(), "user-1", user.StatusAtWork, now); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
