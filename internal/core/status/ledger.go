package status

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

// Ledger はユーザーのステータス履歴と現在ステータスを同時に更新します。
type Ledger struct {
	repo  Repository
	users user.Repository
	loc   *time.Location
}

// NewLedger は Ledger を生成します。loc は暦日の境界を決めるタイムゾーンです。
func NewLedger(repo Repository, users user.Repository, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{repo: repo, users: users, loc: loc}
}

// RecordStatus は asOf の暦日の履歴を追加または上書きし、User.Status にも同じ値を書き込みます。
// ユーザーの他の項目は更新しません。
func (l *Ledger) RecordStatus(ctx context.Context, userID string, st user.Status, asOf time.Time) (*Entry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !st.IsKnown() {
		return nil, fmt.Errorf("%q: %w", st, ErrInvalidStatus)
	}

	// 存在しないユーザーは ErrUserNotFound で止まり、履歴は書き込まれません。
	if err := l.users.UpdateStatus(ctx, userID, st, asOf); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("status: update user: %w", err)
	}

	window := WindowOf(asOf, l.loc)
	latest, err := l.repo.FindLatestInWindow(ctx, userID, window)
	if err != nil && !errors.Is(err, ErrEntryNotFound) {
		return nil, fmt.Errorf("status: find entry: %w", err)
	}

	var saved *Entry
	if latest != nil {
		latest.Status = st
		latest.Timestamp = asOf
		saved, err = l.repo.Update(ctx, latest)
		if err != nil {
			return nil, fmt.Errorf("status: amend entry: %w", err)
		}
	} else {
		saved, err = l.repo.Create(ctx, &Entry{UserID: userID, Status: st, Timestamp: asOf})
		if err != nil {
			return nil, fmt.Errorf("status: create entry: %w", err)
		}
	}

	return saved, nil
}
