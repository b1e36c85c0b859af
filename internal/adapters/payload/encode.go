package payload

import (
	"errors"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
	"github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

// 戻り値はすべて structpb.NewStruct が受け付ける型(nil, bool, float64, string, []any, map[string]any)のみで構成します。

// Project はプロジェクトを本文表現に変換します。
func Project(p *project.Project) map[string]any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"description":   p.Description,
		"serviceType":   p.ServiceType,
		"deadline":      dateOrNil(p.Deadline),
		"startDate":     project.FormatDate(p.StartDate),
		"completedAt":   timeOrNil(p.CompletedAt),
		"completed":     p.Completed,
		"confirmed":     p.Confirmed,
		"assignedUsers": anyStrings(p.AssignedUserIDs),
		"teamLeader":    p.TeamLeaderID,
		"client":        p.ClientID,
		"createdAt":     formatTime(p.CreatedAt),
		"updatedAt":     formatTime(p.UpdatedAt),
	}
}

// Projects はプロジェクト一覧を変換します。
func Projects(projects []*project.Project) []any {
	out := make([]any, 0, len(projects))
	for _, p := range projects {
		out = append(out, Project(p))
	}
	return out
}

// User はユーザーを変換します。
func User(u *user.User) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"name":      u.Name,
		"status":    string(u.Status),
		"createdAt": formatTime(u.CreatedAt),
		"updatedAt": formatTime(u.UpdatedAt),
	}
}

// Users はユーザー一覧を変換します。
func Users(users []*user.User) []any {
	out := make([]any, 0, len(users))
	for _, u := range users {
		out = append(out, User(u))
	}
	return out
}

// Client は顧客を変換します。
func Client(c *client.Client) map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"id":   c.ID,
		"name": c.Name,
		"contactInfo": map[string]any{
			"email":                 stringOrNil(c.ContactInfo.Email),
			"phone":                 c.ContactInfo.Phone,
			"contactPersonPosition": c.ContactInfo.ContactPersonPosition,
			"address":               stringOrNil(c.ContactInfo.Address),
			"mapLocation":           stringOrNil(c.ContactInfo.MapLocation),
		},
		"createdAt": formatTime(c.CreatedAt),
		"updatedAt": formatTime(c.UpdatedAt),
	}
}

// StatusHistory はステータス履歴を変換します。
func StatusHistory(entries []*status.Entry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":        e.ID,
			"userId":    e.UserID,
			"status":    string(e.Status),
			"timestamp": formatTime(e.Timestamp),
		})
	}
	return out
}

// Warning はステータス更新の一部失敗を変換します。err が nil なら nil を返します。
func Warning(err error) map[string]any {
	if err == nil {
		return nil
	}
	out := map[string]any{"message": err.Error()}
	var partial *status.PartialFailureError
	if errors.As(err, &partial) {
		out["failedUsers"] = anyStrings(partial.UserIDs())
	}
	return out
}

// CreateProjectResult は作成結果を変換します。
func CreateProjectResult(res *project.CreateProjectResult) map[string]any {
	out := map[string]any{
		"message": res.Message(),
		"project": Project(res.Project),
	}
	if w := Warning(res.Warning); w != nil {
		out["warning"] = w
	}
	return out
}

// UpdateProjectResult は更新結果を変換します。
func UpdateProjectResult(res *project.UpdateProjectResult) map[string]any {
	changed := make([]any, 0, len(res.Changes.Fields))
	for _, f := range res.Changes.Fields {
		changed = append(changed, string(f))
	}
	out := map[string]any{
		"message":       res.Message(),
		"noOp":          res.NoOp,
		"changedFields": changed,
		"project":       Project(res.Project),
	}
	if w := Warning(res.Warning); w != nil {
		out["warning"] = w
	}
	return out
}

// DeleteProjectResult は削除結果を変換します。
func DeleteProjectResult(res *project.DeleteProjectResult) map[string]any {
	out := map[string]any{
		"message": res.Message(),
		"project": Project(res.Project),
	}
	if w := Warning(res.Warning); w != nil {
		out["warning"] = w
	}
	return out
}

func anyStrings(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func stringOrNil(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func dateOrNil(value *time.Time) any {
	if value == nil {
		return nil
	}
	return project.FormatDate(*value)
}

func timeOrNil(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
