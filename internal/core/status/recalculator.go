package status

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/user"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

const defaultFanOutLimit = 8

// Change は 1 ユーザーに対する再計算要求です。
// Desired は他プロジェクトに拘束されていない場合に適用するステータスです。
type Change struct {
	UserID  string
	Desired user.Status
}

// Report は一括再計算の結果です。
type Report struct {
	Recorded []string
	Skipped  []string
	Failures []UserFailure
}

// Err は失敗が 1 件以上あれば *PartialFailureError を返します。
func (r *Report) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	failures := make([]UserFailure, len(r.Failures))
	copy(failures, r.Failures)
	return &PartialFailureError{Failures: failures}
}

// Recalculator はプロジェクトの変更に応じてユーザーのステータスを再計算します。
type Recalculator struct {
	checker AssignmentChecker
	ledger  *Ledger
	tx      TransactionManager
	locker  UserLocker
	log     logrus.FieldLogger
	limit   int
}

// Option は Recalculator の任意設定です。
type Option func(*Recalculator)

// WithLocker はユーザー単位の排他を設定します。
func WithLocker(locker UserLocker) Option {
	return func(r *Recalculator) {
		if locker != nil {
			r.locker = locker
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Recalculator) {
		if log != nil {
			r.log = log
		}
	}
}

// WithFanOutLimit は同時に再計算するユーザー数の上限を設定します。
func WithFanOutLimit(limit int) Option {
	return func(r *Recalculator) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

// NewRecalculator は Recalculator を生成します。
func NewRecalculator(checker AssignmentChecker, ledger *Ledger, tx TransactionManager, opts ...Option) *Recalculator {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	r := &Recalculator{
		checker: checker,
		ledger:  ledger,
		tx:      tx,
		locker:  noopLocker{},
		log:     logrus.StandardLogger(),
		limit:   defaultFanOutLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recalculate は 1 ユーザーのステータスを再計算します。
// excludeProjectID 以外の進行中プロジェクトに割り当てられている場合は何も書き込まず false を返します。
func (r *Recalculator) Recalculate(ctx context.Context, userID string, desired user.Status, excludeProjectID string, asOf time.Time) (bool, error) {
	recorded := false
	err := r.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		recorded = false
		if err := r.locker.LockUser(txCtx, userID); err != nil {
			return err
		}

		elsewhere, err := r.checker.IsAssignedElsewhere(txCtx, userID, excludeProjectID, asOf)
		if err != nil {
			return err
		}
		if elsewhere {
			return nil
		}

		if _, err := r.ledger.RecordStatus(txCtx, userID, desired, asOf); err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return recorded, nil
}

// RecalculateAll は複数ユーザーを並行に再計算し、全員の完了を待ってから結果を返します。
// 1 ユーザーの失敗は他のユーザーの再計算を止めず、Report.Failures に集約されます。
// ユーザーごとに独立したトランザクションを開始するため、ctx にトランザクションを含めないでください。
func (r *Recalculator) RecalculateAll(ctx context.Context, changes []Change, excludeProjectID string, asOf time.Time) *Report {
	changes = dedupeChanges(changes)

	type outcome struct {
		recorded bool
		err      error
	}
	outcomes := make([]outcome, len(changes))

	p := pool.New().WithMaxGoroutines(r.limit)
	for i, change := range changes {
		i, change := i, change
		p.Go(func() {
			recorded, err := r.Recalculate(ctx, change.UserID, change.Desired, excludeProjectID, asOf)
			if err != nil {
				r.log.WithFields(logrus.Fields{
					"user_id":    change.UserID,
					"project_id": excludeProjectID,
					"desired":    string(change.Desired),
				}).WithError(err).Error("status recalculation failed")
			}
			outcomes[i] = outcome{recorded: recorded, err: err}
		})
	}
	p.Wait()

	report := &Report{}
	for i, change := range changes {
		o := outcomes[i]
		switch {
		case o.err != nil:
			report.Failures = append(report.Failures, UserFailure{UserID: change.UserID, Err: o.err})
		case o.recorded:
			report.Recorded = append(report.Recorded, change.UserID)
		default:
			report.Skipped = append(report.Skipped, change.UserID)
		}
	}

	r.log.WithFields(logrus.Fields{
		"project_id": excludeProjectID,
		"recorded":   len(report.Recorded),
		"skipped":    len(report.Skipped),
		"failed":     len(report.Failures),
	}).Debug("status fan-out completed")

	return report
}

// dedupeChanges は同一ユーザーへの要求を後勝ちでまとめ、最初の出現順を保ちます。
func dedupeChanges(changes []Change) []Change {
	index := make(map[string]int, len(changes))
	result := make([]Change, 0, len(changes))
	for _, c := range changes {
		if i, ok := index[c.UserID]; ok {
			result[i] = c
			continue
		}
		index[c.UserID] = len(result)
		result = append(result, c)
	}
	return result
}
