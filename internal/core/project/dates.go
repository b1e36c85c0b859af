package project

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout は入出力に用いる暦日の書式です。
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate は YYYY-MM-DD 形式の文字列を UTC 0 時の暦日に変換します。
// 書式が合っていても 2023-02-30 のように実在しない日付は ErrInvalidDate です。
func ParseDate(raw string) (time.Time, error) {
	if !datePattern.MatchString(raw) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate は暦日を YYYY-MM-DD で返します。
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateIn は t を loc の暦日に丸め、UTC 0 時で返します。
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func parseRequiredDate(field, raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, newFieldError(field, ErrRequired)
	}
	t, err := ParseDate(trimmed)
	if err != nil {
		return time.Time{}, newFieldError(field, err)
	}
	return t, nil
}

// parseOptionalDate は未指定(nil または空文字)を「日付なし」として扱います。
func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	t, err := ParseDate(trimmed)
	if err != nil {
		return nil, newFieldError(field, err)
	}
	return &t, nil
}
