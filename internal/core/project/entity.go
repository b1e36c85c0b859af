package project

import "time"

// Project は顧客向け案件のエンティティです。
// CompletedAt は Completed が true のときに限り非 nil で、完了に遷移した時刻が自動で設定されます。
type Project struct {
	ID              string
	Name            string
	Description     string
	ServiceType     string
	Deadline        *time.Time
	StartDate       time.Time
	CompletedAt     *time.Time
	Completed       bool
	Confirmed       bool
	AssignedUserIDs []string
	TeamLeaderID    string
	ClientID        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive は asOfDate 時点で未完了かつ開始済みかを返します。asOfDate は暦日(UTC 0 時)です。
func (p *Project) IsActive(asOfDate time.Time) bool {
	return !p.Completed && !p.StartDate.After(asOfDate)
}

// HasAssignee は userID が割り当てられているかを返します。
func (p *Project) HasAssignee(userID string) bool {
	for _, id := range p.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone はスライスとポインタを含めて複製します。
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Deadline = cloneTime(p.Deadline)
	c.CompletedAt = cloneTime(p.CompletedAt)
	if p.AssignedUserIDs != nil {
		c.AssignedUserIDs = append([]string(nil), p.AssignedUserIDs...)
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
