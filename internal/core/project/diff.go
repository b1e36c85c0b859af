package project

import "time"

// Field は更新差分の対象となる項目名です。
type Field string

const (
	FieldName          Field = "name"
	FieldDescription   Field = "description"
	FieldServiceType   Field = "serviceType"
	FieldDeadline      Field = "deadline"
	FieldStartDate     Field = "startDate"
	FieldCompleted     Field = "completed"
	FieldConfirmed     Field = "confirmed"
	FieldAssignedUsers Field = "assignedUsers"
	FieldTeamLeader    Field = "teamLeader"
	FieldClient        Field = "client"
)

// ChangeSet は既存プロジェクトと更新後プロジェクトの差分です。
type ChangeSet struct {
	Fields   []Field
	Added    []string
	Removed  []string
	Retained []string
}

// HasChanges は 1 項目以上変化しているかを返します。
func (c ChangeSet) HasChanges() bool {
	return len(c.Fields) > 0
}

// Has は field が変化したかを返します。
func (c ChangeSet) Has(field Field) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Diff は old から next への差分を計算します。
// 割り当てユーザーは順序も含めて比較し、追加・削除・継続の集合を合わせて返します。
// CompletedAt は Completed から導出されるため比較しません。
func Diff(old, next *Project) ChangeSet {
	var cs ChangeSet

	if old.Name != next.Name {
		cs.Fields = append(cs.Fields, FieldName)
	}
	if old.Description != next.Description {
		cs.Fields = append(cs.Fields, FieldDescription)
	}
	if old.ServiceType != next.ServiceType {
		cs.Fields = append(cs.Fields, FieldServiceType)
	}
	if !equalDatePtr(old.Deadline, next.Deadline) {
		cs.Fields = append(cs.Fields, FieldDeadline)
	}
	if !old.StartDate.Equal(next.StartDate) {
		cs.Fields = append(cs.Fields, FieldStartDate)
	}
	if old.Completed != next.Completed {
		cs.Fields = append(cs.Fields, FieldCompleted)
	}
	if old.Confirmed != next.Confirmed {
		cs.Fields = append(cs.Fields, FieldConfirmed)
	}
	if !equalOrdered(old.AssignedUserIDs, next.AssignedUserIDs) {
		cs.Fields = append(cs.Fields, FieldAssignedUsers)
	}
	if old.TeamLeaderID != next.TeamLeaderID {
		cs.Fields = append(cs.Fields, FieldTeamLeader)
	}
	if old.ClientID != next.ClientID {
		cs.Fields = append(cs.Fields, FieldClient)
	}

	before := make(map[string]struct{}, len(old.AssignedUserIDs))
	for _, id := range old.AssignedUserIDs {
		before[id] = struct{}{}
	}
	after := make(map[string]struct{}, len(next.AssignedUserIDs))
	for _, id := range next.AssignedUserIDs {
		after[id] = struct{}{}
		if _, ok := before[id]; ok {
			cs.Retained = append(cs.Retained, id)
		} else {
			cs.Added = append(cs.Added, id)
		}
	}
	for _, id := range old.AssignedUserIDs {
		if _, ok := after[id]; !ok {
			cs.Removed = append(cs.Removed, id)
		}
	}

	return cs
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
