package project

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
	"github.com/sirupsen/logrus"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
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

// StatusRecalculator は割り当てユーザーのステータスを一括で再計算します。
type StatusRecalculator interface {
	RecalculateAll(ctx context.Context, changes []status.Change, excludeProjectID string, asOf time.Time) *status.Report
}

// Precedence は更新時の「確定済み・本日開始」と完了状態の優先順位です。
type Precedence string

const (
	// PrecedenceIntent は確定済みで本日開始なら完了状態より At Work を優先します。
	PrecedenceIntent Precedence = "intent"
	// PrecedenceLegacy は完了状態による値が確定フラグを上書きする従来の評価順です。
	PrecedenceLegacy Precedence = "legacy"
)

// ParsePrecedence は設定値を Precedence に変換します。空文字は PrecedenceIntent です。
func ParsePrecedence(raw string) (Precedence, error) {
	switch Precedence(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PrecedenceIntent:
		return PrecedenceIntent, nil
	case PrecedenceLegacy:
		return PrecedenceLegacy, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidPrecedence)
	}
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service はプロジェクトのライフサイクルと、それに伴うステータス再計算をまとめます。
type Service struct {
	repo       Repository
	users      user.Repository
	clients    client.Repository
	recalc     StatusRecalculator
	clock      Clock
	tx         TransactionManager
	log        logrus.FieldLogger
	loc        *time.Location
	precedence Precedence
}

// UseCase はプロジェクトユースケースの公開インターフェースです。
type UseCase interface {
	CreateProject(ctx context.Context, in CreateProjectInput) (*CreateProjectResult, error)
	UpdateProject(ctx context.Context, in UpdateProjectInput) (*UpdateProjectResult, error)
	DeleteProject(ctx context.Context, in DeleteProjectInput) (*DeleteProjectResult, error)
	GetProject(ctx context.Context, in GetProjectInput) (*Project, error)
	ListProjects(ctx context.Context, in ListProjectsInput) (*ListProjectsResult, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithLogger はロガーを設定します。
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLocation は「本日」を判定するタイムゾーンを設定します。
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPrecedence は更新時の優先順位を設定します。
func WithPrecedence(p Precedence) Option {
	return func(s *Service) {
		if p != "" {
			s.precedence = p
		}
	}
}

// NewService は Service を生成します。
func NewService(repo Repository, users user.Repository, clients client.Repository, recalc StatusRecalculator, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{
		repo:       repo,
		users:      users,
		clients:    clients,
		recalc:     recalc,
		clock:      clock,
		tx:         tx,
		log:        logrus.StandardLogger(),
		loc:        time.UTC,
		precedence: PrecedenceIntent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attributes はプロジェクトの編集可能項目です。更新時も全項目を指定する必要があります。
type Attributes struct {
	Name            string
	Description     string
	ServiceType     string
	ClientID        string
	TeamLeaderID    string
	AssignedUserIDs []string
	StartDate       string
	Deadline        *string
	Completed       bool
	Confirmed       bool
}

// CreateProjectInput はプロジェクト作成時の入力です。
type CreateProjectInput struct {
	Attributes
}

// UpdateProjectInput はプロジェクト更新時の入力です。部分更新は受け付けません。
// Confirmed が true の場合は差分がなくても再計算を行います。
type UpdateProjectInput struct {
	ID string
	Attributes
}

// DeleteProjectInput はプロジェクト削除時の入力です。
type DeleteProjectInput struct {
	ID string
}

// GetProjectInput はプロジェクト取得時の入力です。
type GetProjectInput struct {
	ID string
}

// ListProjectsInput は一覧取得時の入力です。
type ListProjectsInput struct {
	ClientID       string
	AssignedUserID string
	Completed      *bool
	PageSize       int
	PageToken      string
}

// ListProjectsResult は一覧取得結果を表します。
type ListProjectsResult struct {
	Projects      []*Project
	NextPageToken string
}

// CreateProjectResult はプロジェクト作成結果です。
// Warning はステータス更新に一部失敗した場合の *status.PartialFailureError です。
type CreateProjectResult struct {
	Project      *Project
	StatusReport *status.Report
	Warning      error
}

// Message は作成完了メッセージを返します。
func (r *CreateProjectResult) Message() string {
	return "New project created"
}

// UpdateProjectResult はプロジェクト更新結果です。NoOp が true の場合は何も書き込んでいません。
type UpdateProjectResult struct {
	Project      *Project
	Changes      ChangeSet
	NoOp         bool
	StatusReport *status.Report
	Warning      error
}

// Message は更新完了メッセージを返します。
func (r *UpdateProjectResult) Message() string {
	if r.NoOp {
		return "Nothing new to update"
	}
	return fmt.Sprintf("'%s' updated", r.Project.Name)
}

// DeleteProjectResult はプロジェクト削除結果です。
type DeleteProjectResult struct {
	Project      *Project
	StatusReport *status.Report
	Warning      error
}

// Message は削除完了メッセージを返します。
func (r *DeleteProjectResult) Message() string {
	return fmt.Sprintf("Project '%s' with ID %s deleted", r.Project.Name, r.Project.ID)
}

// CreateProject はプロジェクトを登録し、開始日が本日以前なら割り当てユーザーを At Work にします。
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*CreateProjectResult, error) {
	candidate, err := validateAttributes(in.Attributes)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := DateIn(now, s.loc)
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	candidate.CompletedAt = completedAtFor(nil, candidate.Completed, now)

	var created *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureReferences(txCtx, candidate); err != nil {
			return err
		}
		if err := s.ensureNoDuplicate(txCtx, candidate.ClientID, candidate.StartDate, ""); err != nil {
			return err
		}

		result, err := s.repo.Create(txCtx, candidate)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	result := &CreateProjectResult{Project: created}
	if created.StartDate.After(today) {
		return result, nil
	}

	changes := make([]status.Change, 0, len(created.AssignedUserIDs))
	for _, id := range created.AssignedUserIDs {
		changes = append(changes, status.Change{UserID: id, Desired: user.StatusAtWork})
	}
	result.StatusReport = s.recalc.RecalculateAll(ctx, changes, created.ID, now)
	result.Warning = s.reportWarning("create", created.ID, result.StatusReport)

	return result, nil
}

// UpdateProject はプロジェクトを全項目置き換えで更新します。
// 差分がなく Confirmed も指定されていない場合は NoOp を返し、ステータスには触れません。
func (s *Service) UpdateProject(ctx context.Context, in UpdateProjectInput) (*UpdateProjectResult, error) {
	id := normalizeID(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrProjectNotFound)
	}

	candidate, err := validateAttributes(in.Attributes)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := DateIn(now, s.loc)

	var existing *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		existing = found

		if err := s.ensureReferences(txCtx, candidate); err != nil {
			return err
		}
		if found.ClientID != candidate.ClientID || !found.StartDate.Equal(candidate.StartDate) {
			return s.ensureNoDuplicate(txCtx, candidate.ClientID, candidate.StartDate, found.ID)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	candidate.ID = existing.ID
	candidate.CreatedAt = existing.CreatedAt
	candidate.UpdatedAt = existing.UpdatedAt
	candidate.CompletedAt = completedAtFor(existing, candidate.Completed, now)

	changes := Diff(existing, candidate)
	if !changes.HasChanges() && !in.Confirmed {
		s.log.WithField("project_id", existing.ID).Info("nothing new to update")
		return &UpdateProjectResult{Project: existing, Changes: changes, NoOp: true}, nil
	}

	candidate.UpdatedAt = now
	desired := resolveUpdateStatus(s.precedence, candidate, today, in.Confirmed)

	report := s.recalc.RecalculateAll(ctx, assignmentChanges(changes, desired), existing.ID, now)

	var updated *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.Update(txCtx, candidate)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return &UpdateProjectResult{
		Project:      updated,
		Changes:      changes,
		StatusReport: report,
		Warning:      s.reportWarning("update", updated.ID, report),
	}, nil
}

// DeleteProject は割り当てユーザーを Available に戻してからプロジェクトを削除します。
func (s *Service) DeleteProject(ctx context.Context, in DeleteProjectInput) (*DeleteProjectResult, error) {
	id := normalizeID(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrProjectNotFound)
	}

	now := s.clock.Now()

	var existing *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		existing = found
		return nil
	}); err != nil {
		return nil, err
	}

	changes := make([]status.Change, 0, len(existing.AssignedUserIDs))
	for _, uid := range existing.AssignedUserIDs {
		changes = append(changes, status.Change{UserID: uid, Desired: user.StatusAvailable})
	}
	report := s.recalc.RecalculateAll(ctx, changes, existing.ID, now)

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, existing.ID)
	}); err != nil {
		return nil, err
	}

	return &DeleteProjectResult{
		Project:      existing,
		StatusReport: report,
		Warning:      s.reportWarning("delete", existing.ID, report),
	}, nil
}

// GetProject は ID でプロジェクトを取得します。
func (s *Service) GetProject(ctx context.Context, in GetProjectInput) (*Project, error) {
	id := normalizeID(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrProjectNotFound)
	}

	var found *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}
	return found, nil
}

// ListProjects はプロジェクトの一覧を取得します。
func (s *Service) ListProjects(ctx context.Context, in ListProjectsInput) (*ListProjectsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var completedPtr *bool
	if in.Completed != nil {
		completed := *in.Completed
		completedPtr = &completed
	}

	var (
		projects  []*Project
		nextToken string
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, token, err := s.repo.List(txCtx, ListProjectsFilter{
			ClientID:       normalizeID(in.ClientID),
			AssignedUserID: normalizeID(in.AssignedUserID),
			Completed:      completedPtr,
			Limit:          limit,
			Offset:         offset,
		})
		if err != nil {
			return err
		}
		projects = found
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListProjectsResult{Projects: projects, NextPageToken: nextToken}, nil
}

func (s *Service) ensureReferences(ctx context.Context, p *Project) error {
	if _, err := s.clients.FindByID(ctx, p.ClientID); err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			return fmt.Errorf("client %s: %w", p.ClientID, client.ErrClientNotFound)
		}
		return err
	}

	ids := append([]string{p.TeamLeaderID}, p.AssignedUserIDs...)
	ids = uniqueIDs(ids)

	found, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(found))
	for _, u := range found {
		known[u.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("user %s: %w", id, user.ErrUserNotFound)
		}
	}
	return nil
}

func (s *Service) ensureNoDuplicate(ctx context.Context, clientID string, startDate time.Time, selfID string) error {
	existing, err := s.repo.FindByClientAndStartDate(ctx, clientID, startDate)
	if err != nil && !errors.Is(err, ErrProjectNotFound) {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrDuplicateProject
	}
	return nil
}

func (s *Service) reportWarning(op, projectID string, report *status.Report) error {
	warning := report.Err()
	if warning != nil {
		s.log.WithFields(logrus.Fields{
			"op":         op,
			"project_id": projectID,
		}).WithError(warning).Warn("project saved with partial status update failure")
	}
	return warning
}

// resolveUpdateStatus は更新後に割り当てユーザーへ適用したいステータスを決めます。
// assignmentChanges は継続・追加されたユーザーに desired を、外されたユーザーに Available を割り当てます。
func assignmentChanges(cs ChangeSet, desired user.Status) []status.Change {
	out := make([]status.Change, 0, len(cs.Retained)+len(cs.Added)+len(cs.Removed))
	for _, uid := range cs.Retained {
		out = append(out, status.Change{UserID: uid, Desired: desired})
	}
	for _, uid := range cs.Added {
		out = append(out, status.Change{UserID: uid, Desired: desired})
	}
	for _, uid := range cs.Removed {
		out = append(out, status.Change{UserID: uid, Desired: user.StatusAvailable})
	}
	return out
}

func resolveUpdateStatus(precedence Precedence, p *Project, today time.Time, confirmed bool) user.Status {
	startsInFuture := p.StartDate.After(today)
	startsToday := p.StartDate.Equal(today)

	if precedence == PrecedenceLegacy {
		// 確定済み・本日開始の判定は完了状態による値で上書きされる。
		desired := user.StatusAtWork
		if p.Completed {
			desired = user.StatusAvailable
		}
		if startsInFuture {
			desired = user.StatusAvailable
		}
		return desired
	}

	switch {
	case startsInFuture:
		return user.StatusAvailable
	case startsToday && confirmed:
		return user.StatusAtWork
	case p.IsActive(today):
		return user.StatusAtWork
	default:
		return user.StatusAvailable
	}
}

func validateAttributes(in Attributes) (*Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newFieldError(string(FieldName), ErrRequired)
	}

	if len(in.AssignedUserIDs) == 0 {
		return nil, newFieldError(string(FieldAssignedUsers), ErrRequired)
	}
	assigned := make([]string, 0, len(in.AssignedUserIDs))
	for _, raw := range in.AssignedUserIDs {
		id := normalizeID(raw)
		if id == "" {
			return nil, newFieldError(string(FieldAssignedUsers), ErrRequired)
		}
		assigned = append(assigned, id)
	}
	assigned = uniqueIDs(assigned)

	clientID := normalizeID(in.ClientID)
	if clientID == "" {
		return nil, newFieldError(string(FieldClient), ErrRequired)
	}

	serviceType := strings.TrimSpace(in.ServiceType)
	if serviceType == "" {
		return nil, newFieldError(string(FieldServiceType), ErrRequired)
	}

	teamLeaderID := normalizeID(in.TeamLeaderID)
	if teamLeaderID == "" {
		return nil, newFieldError(string(FieldTeamLeader), ErrRequired)
	}

	startDate, err := parseRequiredDate(string(FieldStartDate), in.StartDate)
	if err != nil {
		return nil, err
	}

	deadline, err := parseOptionalDate(string(FieldDeadline), in.Deadline)
	if err != nil {
		return nil, err
	}

	return &Project{
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		ServiceType:     serviceType,
		Deadline:        deadline,
		StartDate:       startDate,
		Completed:       in.Completed,
		Confirmed:       in.Confirmed,
		AssignedUserIDs: assigned,
		TeamLeaderID:    teamLeaderID,
		ClientID:        clientID,
	}, nil
}

// completedAtFor は完了へ遷移した瞬間にだけ now を設定し、完了済みの間は既存値を維持します。
func completedAtFor(existing *Project, completed bool, now time.Time) *time.Time {
	if !completed {
		return nil
	}
	if existing != nil && existing.Completed && existing.CompletedAt != nil {
		return cloneTime(existing.CompletedAt)
	}
	completedAt := now
	return &completedAt
}

// normalizeID は参照 ID を比較可能な形に揃えます。UUID は大文字小文字を区別しません。
func normalizeID(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
