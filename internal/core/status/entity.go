package status

import (
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

// Entry はユーザーごと・暦日ごとに 1 件だけ存在するステータス履歴です。
// 同じ日に再計算された場合は新規行を追加せず、この Entry を上書きします。
type Entry struct {
	ID        string
	UserID    string
	Status    user.Status
	Timestamp time.Time
}

// DayWindow は暦日の範囲 [Start, End) を表します。
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// WindowOf は asOf が属する暦日の範囲を loc のタイムゾーンで計算します。
func WindowOf(asOf time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := asOf.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains は t が範囲内にあるかを返します。
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
