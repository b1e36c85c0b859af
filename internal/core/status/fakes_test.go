package status

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[string]*Entry
	seq     int
	failFor map[string]error
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]*Entry), failFor: make(map[string]error)}
}

func (r *fakeEntryRepo) FindLatestInWindow(_ context.Context, userID string, window DayWindow) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failFor[userID]; err != nil {
		return nil, err
	}

	var latest *Entry
	for _, e := range r.entries {
		if e.UserID != userID || !window.Contains(e.Timestamp) {
			continue
		}
		if latest == nil || e.Timestamp.After(latest.Timestamp) {
			latest = e
		}
	}
	if latest == nil {
		return nil, ErrEntryNotFound
	}
	out := *latest
	return &out, nil
}

func (r *fakeEntryRepo) Create(_ context.Context, e *Entry) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	copy := *e
	copy.ID = fmt.Sprintf("entry-%d", r.seq)
	r.entries[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (r *fakeEntryRepo) Update(_ context.Context, e *Entry) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.ID]; !ok {
		return nil, ErrEntryNotFound
	}
	copy := *e
	r.entries[e.ID] = &copy
	out := copy
	return &out, nil
}

func (r *fakeEntryRepo) List(_ context.Context, filter ListEntriesFilter) ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Entry
	for _, e := range r.entries {
		if e.UserID != filter.UserID {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !e.Timestamp.Before(*filter.To) {
			continue
		}
		copy := *e
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *fakeEntryRepo) forUser(userID string) []*Entry {
	entries, _ := r.List(context.Background(), ListEntriesFilter{UserID: userID})
	return entries
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*user.User)}
	for _, id := range ids {
		r.users[id] = &user.User{ID: id, Status: user.StatusAvailable}
	}
	return r
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id string, st user.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Status = st
	u.UpdatedAt = at
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) FindByIDs(ctx context.Context, ids []string) ([]*user.User, error) {
	var out []*user.User
	for _, id := range ids {
		if u, err := r.FindByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(context.Context, user.ListUsersFilter) ([]*user.User, string, error) {
	return nil, "", nil
}

func (r *fakeUserRepo) rename(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].Name = name
}

func (r *fakeUserRepo) statusOf(id string) user.Status {
	u, err := r.FindByID(context.Background(), id)
	if err != nil {
		return ""
	}
	return u.Status
}

// fakeChecker は userID ごとに「他プロジェクトで稼働中か」を返します。
type fakeChecker struct {
	mu        sync.Mutex
	elsewhere map[string]bool
	errs      map[string]error
	calls     []string
}

func (c *fakeChecker) IsAssignedElsewhere(_ context.Context, userID, excludeProjectID string, _ time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, userID+"|"+excludeProjectID)
	if err := c.errs[userID]; err != nil {
		return false, err
	}
	return c.elsewhere[userID], nil
}

type recordingLocker struct {
	mu     sync.Mutex
	locked []string
}

func (l *recordingLocker) LockUser(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, userID)
	return nil
}

// retryingTx は読み書きトランザクションを直列化失敗後の再実行のように 2 回実行し、2 回目の結果を返します。
type retryingTx struct {
	attempts int
}

func (t *retryingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (t *retryingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	t.attempts++
	if err := fn(ctx); err != nil {
		return err
	}
	t.attempts++
	return fn(ctx)
}

// flippingUserRepo はステータスを書き込んだ後、そのユーザーを他プロジェクトで稼働中にします。
type flippingUserRepo struct {
	*fakeUserRepo
	checker *fakeChecker
}

func (r *flippingUserRepo) UpdateStatus(ctx context.Context, id string, st user.Status, at time.Time) error {
	if err := r.fakeUserRepo.UpdateStatus(ctx, id, st, at); err != nil {
		return err
	}
	r.checker.mu.Lock()
	defer r.checker.mu.Unlock()
	r.checker.elsewhere[id] = true
	return nil
}
