package status

import (
	"context"
	"strings"
	"time"
)

// HistoryService はステータス履歴の参照ユースケースです。
type HistoryService struct {
	repo Repository
	tx   TransactionManager
}

// HistoryUseCase はステータス履歴参照の公開インターフェースです。
type HistoryUseCase interface {
	ListHistory(ctx context.Context, in ListHistoryInput) ([]*Entry, error)
}

// NewHistoryService は HistoryService を生成します。
func NewHistoryService(repo Repository, tx TransactionManager) *HistoryService {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &HistoryService{repo: repo, tx: tx}
}

// ListHistoryInput は履歴取得時の入力です。
type ListHistoryInput struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// ListHistory はユーザーの日別ステータス履歴を古い順に返します。
func (s *HistoryService) ListHistory(ctx context.Context, in ListHistoryInput) ([]*Entry, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if in.From != nil && in.To != nil && !in.From.Before(*in.To) {
		return nil, ErrInvalidRange
	}

	var entries []*Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, ListEntriesFilter{UserID: userID, From: in.From, To: in.To})
		if err != nil {
			return err
		}
		entries = found
		return nil
	}); err != nil {
		return nil, err
	}
	return entries, nil
}
