package user

import (
	"context"
	"time"
)

// Repository はユーザーエンティティの永続化を行うインターフェースです。
// ユーザーの登録・削除は認証サブシステムが担うため、ここでは参照と状態更新のみを扱います。
type Repository interface {
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*User, string, error)
}

// ListUsersFilter は一覧取得時の検索条件を表します。
type ListUsersFilter struct {
	Limit  int
	Offset int
	Status *Status
}
