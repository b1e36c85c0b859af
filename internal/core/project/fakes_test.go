package project

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
	"github.com/sirupsen/logrus"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*Project
	order    []string
	seq      int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*Project)}
}

func (r *fakeProjectRepo) Create(_ context.Context, p *Project) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	clone := p.Clone()
	if clone.ID == "" {
		clone.ID = fmt.Sprintf("project-%d", r.seq)
	}
	r.projects[clone.ID] = clone
	r.order = append(r.order, clone.ID)
	return clone.Clone(), nil
}

func (r *fakeProjectRepo) Update(_ context.Context, p *Project) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[p.ID]; !ok {
		return nil, ErrProjectNotFound
	}
	r.projects[p.ID] = p.Clone()
	return p.Clone(), nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(r.projects, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeProjectRepo) FindByID(_ context.Context, id string) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return p.Clone(), nil
}

func (r *fakeProjectRepo) FindByClientAndStartDate(_ context.Context, clientID string, startDate time.Time) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		p := r.projects[id]
		if p.ClientID == clientID && p.StartDate.Equal(startDate) {
			return p.Clone(), nil
		}
	}
	return nil, ErrProjectNotFound
}

func (r *fakeProjectRepo) List(_ context.Context, filter ListProjectsFilter) ([]*Project, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []*Project
	for _, id := range r.order {
		p := r.projects[id]
		if filter.Matches(p) {
			filtered = append(filtered, p.Clone())
		}
	}

	if filter.Offset > len(filtered) {
		return []*Project{}, "", nil
	}
	end := len(filtered)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	nextToken := ""
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	}
	return filtered[filter.Offset:end], nextToken, nil
}

func (r *fakeProjectRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.projects)
}

type fakeUserRepo struct {
	mu         sync.Mutex
	users      map[string]*user.User
	failUpdate map[string]error
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*user.User), failUpdate: make(map[string]error)}
	for _, id := range ids {
		r.users[id] = &user.User{ID: id, Name: id, Status: user.StatusAvailable}
	}
	return r
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id string, st user.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failUpdate[id]; err != nil {
		return err
	}
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
	out := make([]*user.User, 0, len(ids))
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

func (r *fakeUserRepo) setStatus(id string, st user.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].Status = st
}

func (r *fakeUserRepo) statusOf(id string) user.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].Status
}

type fakeClientRepo struct {
	clients map[string]*client.Client
}

func newFakeClientRepo(ids ...string) *fakeClientRepo {
	r := &fakeClientRepo{clients: make(map[string]*client.Client)}
	for _, id := range ids {
		r.clients[id] = &client.Client{ID: id, Name: id}
	}
	return r
}

func (r *fakeClientRepo) Create(_ context.Context, c *client.Client) (*client.Client, error) {
	r.clients[c.ID] = c
	return c, nil
}

func (r *fakeClientRepo) FindByID(_ context.Context, id string) (*client.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, client.ErrClientNotFound
	}
	return c, nil
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[string]*status.Entry
	seq     int
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]*status.Entry)}
}

func (r *fakeEntryRepo) FindLatestInWindow(_ context.Context, userID string, window status.DayWindow) (*status.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *status.Entry
	for _, e := range r.entries {
		if e.UserID == userID && window.Contains(e.Timestamp) && (latest == nil || e.Timestamp.After(latest.Timestamp)) {
			latest = e
		}
	}
	if latest == nil {
		return nil, status.ErrEntryNotFound
	}
	out := *latest
	return &out, nil
}

func (r *fakeEntryRepo) Create(_ context.Context, e *status.Entry) (*status.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	copy := *e
	copy.ID = fmt.Sprintf("entry-%d", r.seq)
	r.entries[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (r *fakeEntryRepo) Update(_ context.Context, e *status.Entry) (*status.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copy := *e
	r.entries[e.ID] = &copy
	out := copy
	return &out, nil
}

func (r *fakeEntryRepo) List(_ context.Context, filter status.ListEntriesFilter) ([]*status.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*status.Entry
	for _, e := range r.entries {
		if e.UserID == filter.UserID {
			copy := *e
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *fakeEntryRepo) forUser(userID string) []*status.Entry {
	out, _ := r.List(context.Background(), status.ListEntriesFilter{UserID: userID})
	return out
}

func (r *fakeEntryRepo) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// fixture は実際の Ledger / Recalculator / AssignmentChecker を fake リポジトリで組み立てます。
type fixture struct {
	clock    *stubClock
	projects *fakeProjectRepo
	users    *fakeUserRepo
	clients  *fakeClientRepo
	entries  *fakeEntryRepo
	svc      *Service
}

var fixtureNow = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, userIDs ...string) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		clock:    &stubClock{now: fixtureNow},
		projects: newFakeProjectRepo(),
		users:    newFakeUserRepo(userIDs...),
		clients:  newFakeClientRepo("client-1", "client-2"),
		entries:  newFakeEntryRepo(),
	}

	checker := NewAssignmentChecker(f.projects, time.UTC)
	ledger := status.NewLedger(f.entries, f.users, time.UTC)
	recalc := status.NewRecalculator(checker, ledger, nil, status.WithLogger(log))
	f.svc = NewService(f.projects, f.users, f.clients, recalc, f.clock, nil, WithLogger(log), WithLocation(time.UTC))
	return f
}

// seedProject はライフサイクルを経由せずにプロジェクトを直接登録します。
func (f *fixture) seedProject(t *testing.T, p *Project) *Project {
	t.Helper()
	created, err := f.projects.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return created
}

func attrs(clientID, startDate string, assigned ...string) Attributes {
	return Attributes{
		Name:            "Website renewal",
		Description:     "Corporate site",
		ServiceType:     "development",
		ClientID:        clientID,
		TeamLeaderID:    assigned[0],
		AssignedUserIDs: assigned,
		StartDate:       startDate,
	}
}

func date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}
