package client

import "errors"

var (
	// ErrClientNotFound は顧客が存在しない場合に返却されます。
	ErrClientNotFound = errors.New("client not found")
	// ErrInvalidName は顧客名が不正な場合に返却されます。
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidEmail はメールアドレスが不正な場合に返却されます。
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPhone は電話番号が不正な場合に返却されます。
	ErrInvalidPhone = errors.New("invalid phone")
	// ErrInvalidContactPersonPosition は担当者の役職が不正な場合に返却されます。
	ErrInvalidContactPersonPosition = errors.New("invalid contact person position")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
)
