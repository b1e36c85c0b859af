package status

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEntryNotFound は対象日の履歴が存在しない場合に返却されます。
	ErrEntryNotFound = errors.New("status entry not found")
	// ErrInvalidUserID はユーザー ID が不正な場合に返却されます。
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidStatus は書き込もうとしたステータスが不正な場合に返却されます。
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidRange は履歴取得の期間指定が不正な場合に返却されます。
	ErrInvalidRange = errors.New("invalid range")
)

// UserFailure は 1 ユーザー分の再計算失敗です。
type UserFailure struct {
	UserID string
	Err    error
}

// PartialFailureError は一括再計算で一部ユーザーの更新に失敗したことを表します。
// プロジェクト自体の書き込みは成功しているため、呼び出し元は警告として扱います。
type PartialFailureError struct {
	Failures []UserFailure
}

func (e *PartialFailureError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.UserID, f.Err))
	}
	return fmt.Sprintf("status: failed to update %d user(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap は個々の失敗理由を返します。
func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// UserIDs は失敗したユーザー ID を返します。
func (e *PartialFailureError) UserIDs() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.UserID)
	}
	return ids
}
