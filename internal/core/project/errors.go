package project

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation は入力検証エラー全般を表します。FieldError は常にこのエラーとして判定されます。
	ErrValidation = errors.New("project: validation failed")
	// ErrRequired は必須項目が未指定の場合に返却されます。
	ErrRequired = errors.New("is required")
	// ErrInvalidDate は日付が YYYY-MM-DD 形式でない、または実在しない場合に返却されます。
	ErrInvalidDate = errors.New("invalid date format, use ISO 8601 format (YYYY-MM-DD)")
	// ErrInvalidPrecedence は確定フラグの優先順位設定が不正な場合に返却されます。
	ErrInvalidPrecedence = errors.New("invalid confirmed precedence")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = errors.New("invalid page token")
	// ErrProjectNotFound はプロジェクトが存在しない場合に返却されます。
	ErrProjectNotFound = errors.New("project not found")
	// ErrDuplicateProject は同じ顧客・開始日のプロジェクトが既に存在する場合に返却されます。
	ErrDuplicateProject = errors.New("project already exists for client and start date")
)

// FieldError は特定の入力項目に起因する検証エラーです。
type FieldError struct {
	Field string
	Err   error
}

func newFieldError(field string, err error) *FieldError {
	return &FieldError{Field: field, Err: err}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is は FieldError を ErrValidation として扱います。
func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}
