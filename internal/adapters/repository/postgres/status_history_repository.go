package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
	pgdb "github.com/ogurasousui/codex-staffing/internal/platform/db/postgres"
)

// ErrLockOutsideTransaction はトランザクション外でユーザーロックを要求した場合に返却されます。
var ErrLockOutsideTransaction = errors.New("postgres: user lock requires a transaction")

const statusEntryColumns = `id, user_id, status, recorded_at`

// StatusHistoryRepository は PostgreSQL を利用したステータス履歴の実装です。
// LockUser によるユーザー単位のアドバイザリロックも提供します。
type StatusHistoryRepository struct {
	pool pgdb.Queryer
}

// NewStatusHistoryRepository は StatusHistoryRepository を生成します。
func NewStatusHistoryRepository(pool pgdb.Queryer) *StatusHistoryRepository {
	return &StatusHistoryRepository{pool: pool}
}

// LockUser は現在のトランザクションが終わるまでユーザー単位の排他ロックを取得します。
// トランザクション外ではロックが即座に解放されるため ErrLockOutsideTransaction を返します。
func (r *StatusHistoryRepository) LockUser(ctx context.Context, userID string) error {
	if !pgdb.InTransaction(ctx) {
		return ErrLockOutsideTransaction
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "user_status:"+userID)
	return err
}

// FindLatestInWindow は範囲内で最も新しい履歴を取得します。
func (r *StatusHistoryRepository) FindLatestInWindow(ctx context.Context, userID string, window status.DayWindow) (*status.Entry, error) {
	if !isUUID(userID) {
		return nil, status.ErrEntryNotFound
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+statusEntryColumns+`
          FROM user_status_history
         WHERE user_id = $1
           AND recorded_at >= $2
           AND recorded_at < $3
         ORDER BY recorded_at DESC, id DESC
         LIMIT 1
    `, userID, window.Start.UTC(), window.End.UTC())

	return scanStatusEntry(row)
}

// Create は履歴を追加します。
func (r *StatusHistoryRepository) Create(ctx context.Context, e *status.Entry) (*status.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO user_status_history (user_id, status, recorded_at)
        VALUES ($1, $2, $3)
        RETURNING `+statusEntryColumns+`
    `, e.UserID, string(e.Status), e.Timestamp.UTC())

	return scanStatusEntry(row)
}

// Update は既存の履歴を上書きします。
func (r *StatusHistoryRepository) Update(ctx context.Context, e *status.Entry) (*status.Entry, error) {
	if !isUUID(e.ID) {
		return nil, status.ErrEntryNotFound
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE user_status_history
           SET status = $1,
               recorded_at = $2
         WHERE id = $3
        RETURNING `+statusEntryColumns+`
    `, string(e.Status), e.Timestamp.UTC(), e.ID)

	return scanStatusEntry(row)
}

// List はユーザーの履歴を古い順に取得します。
func (r *StatusHistoryRepository) List(ctx context.Context, filter status.ListEntriesFilter) ([]*status.Entry, error) {
	if !isUUID(filter.UserID) {
		return []*status.Entry{}, nil
	}

	var p placeholders
	p.where("user_id = " + p.add(filter.UserID))
	if filter.From != nil {
		p.where("recorded_at >= " + p.add(filter.From.UTC()))
	}
	if filter.To != nil {
		p.where("recorded_at < " + p.add(filter.To.UTC()))
	}

	query := `
        SELECT ` + statusEntryColumns + `
          FROM user_status_history` + p.clause() + `
         ORDER BY recorded_at ASC, id ASC
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, p.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*status.Entry, 0)
	for rows.Next() {
		e, err := scanStatusEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanStatusEntry(row pgx.Row) (*status.Entry, error) {
	var (
		id, userID, st string
		recordedAt     time.Time
	)

	if err := row.Scan(&id, &userID, &st, &recordedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, status.ErrEntryNotFound
		}
		return nil, err
	}

	return &status.Entry{
		ID:        id,
		UserID:    userID,
		Status:    user.Status(st),
		Timestamp: recordedAt.UTC(),
	}, nil
}
