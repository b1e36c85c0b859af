package user

import "time"

// Status は社員の稼働状態を表します。
// エンジンが書き込むのは StatusAvailable と StatusAtWork のみですが、
// 外部から設定された任意のラベルもそのまま保持します。
type Status string

const (
	StatusAvailable Status = "Available"
	StatusAtWork    Status = "At Work"
)

// IsKnown はエンジンが扱う状態かどうかを返します。
func (s Status) IsKnown() bool {
	switch s {
	case StatusAvailable, StatusAtWork:
		return true
	default:
		return false
	}
}

// User はユーザー(社員)エンティティです。
type User struct {
	ID        string
	Email     string
	Name      string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
