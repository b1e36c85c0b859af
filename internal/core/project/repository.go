package project

import (
	"context"
	"time"
)

// Repository はプロジェクトエンティティの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, project *Project) (*Project, error)
	Update(ctx context.Context, project *Project) (*Project, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Project, error)
	// FindByClientAndStartDate は重複判定用です。存在しない場合は ErrProjectNotFound を返します。
	FindByClientAndStartDate(ctx context.Context, clientID string, startDate time.Time) (*Project, error)
	List(ctx context.Context, filter ListProjectsFilter) ([]*Project, string, error)
}

// ListProjectsFilter はプロジェクト検索条件です。nil / 空文字の項目は条件に含めません。
type ListProjectsFilter struct {
	ExcludeID         string
	AssignedUserID    string
	ClientID          string
	Completed         *bool
	StartedOnOrBefore *time.Time
	Limit             int
	Offset            int
}

// Matches は fake やキャッシュでフィルタを評価するための述語です。
func (f ListProjectsFilter) Matches(p *Project) bool {
	if f.ExcludeID != "" && p.ID == f.ExcludeID {
		return false
	}
	if f.AssignedUserID != "" && !p.HasAssignee(f.AssignedUserID) {
		return false
	}
	if f.ClientID != "" && p.ClientID != f.ClientID {
		return false
	}
	if f.Completed != nil && p.Completed != *f.Completed {
		return false
	}
	if f.StartedOnOrBefore != nil && p.StartDate.After(*f.StartedOnOrBefore) {
		return false
	}
	return true
}
