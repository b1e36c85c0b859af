package project

import (
	"context"
	"time"
)

// AssignmentChecker は、ユーザーが他の進行中プロジェクトに割り当て済みかを判定します。
// status.AssignmentChecker を満たします。
type AssignmentChecker struct {
	repo Repository
	loc  *time.Location
}

// NewAssignmentChecker は AssignmentChecker を生成します。
func NewAssignmentChecker(repo Repository, loc *time.Location) *AssignmentChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &AssignmentChecker{repo: repo, loc: loc}
}

// IsAssignedElsewhere は excludeProjectID 以外で、userID が割り当てられ、未完了で、
// asOf の暦日までに開始しているプロジェクトが 1 件でもあれば true を返します。
func (c *AssignmentChecker) IsAssignedElsewhere(ctx context.Context, userID, excludeProjectID string, asOf time.Time) (bool, error) {
	asOfDate := DateIn(asOf, c.loc)
	notCompleted := false

	found, _, err := c.repo.List(ctx, ListProjectsFilter{
		ExcludeID:         excludeProjectID,
		AssignedUserID:    userID,
		Completed:         &notCompleted,
		StartedOnOrBefore: &asOfDate,
		Limit:             1,
	})
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}
