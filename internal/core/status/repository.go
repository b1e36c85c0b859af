package status

import (
	"context"
	"time"
)

// Repository はステータス履歴の永続化を行うインターフェースです。
type Repository interface {
	// FindLatestInWindow は範囲内で最も新しい履歴を返します。存在しない場合は ErrEntryNotFound です。
	FindLatestInWindow(ctx context.Context, userID string, window DayWindow) (*Entry, error)
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	Update(ctx context.Context, entry *Entry) (*Entry, error)
	List(ctx context.Context, filter ListEntriesFilter) ([]*Entry, error)
}

// ListEntriesFilter は履歴一覧の検索条件です。From/To はいずれも省略可能で、範囲は [From, To) です。
type ListEntriesFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// UserLocker はユーザー単位の排他を提供します。
// ロックは現在のトランザクションが終わるまで保持されます。
type UserLocker interface {
	LockUser(ctx context.Context, userID string) error
}

// AssignmentChecker は、ユーザーが別の進行中プロジェクトに割り当てられているかを判定します。
type AssignmentChecker interface {
	IsAssignedElsewhere(ctx context.Context, userID, excludeProjectID string, asOf time.Time) (bool, error)
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

type noopLocker struct{}

func (noopLocker) LockUser(context.Context, string) error { return nil }
