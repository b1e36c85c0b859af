// Package payload は gRPC と HTTP の両方で共有する、リクエスト・レスポンス本文の変換を提供します。
// 本文は JSON / google.protobuf.Struct と同じ map[string]any 表現で扱います。
package payload

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
)

// ErrInvalidPayload は本文の型が想定と異なる場合に返却されます。
var ErrInvalidPayload = errors.New("invalid payload")

// TypeError は特定の項目の型が不正であることを表します。
type TypeError struct {
	Field string
	Want  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s must be %s", e.Field, e.Want)
}

// Is は TypeError を ErrInvalidPayload として扱います。
func (e *TypeError) Is(target error) bool {
	return target == ErrInvalidPayload
}

// ProjectAttributes は作成・更新に共通するプロジェクト項目を取り出します。
// 必須チェックはユースケース側で行うため、ここでは型のみを検証します。
func ProjectAttributes(m map[string]any) (project.Attributes, error) {
	var (
		attrs project.Attributes
		err   error
	)

	if attrs.Name, err = optionalString(m, "name"); err != nil {
		return attrs, err
	}
	if attrs.Description, err = optionalString(m, "description"); err != nil {
		return attrs, err
	}
	if attrs.ServiceType, err = optionalString(m, "serviceType"); err != nil {
		return attrs, err
	}
	if attrs.ClientID, err = optionalString(m, "client"); err != nil {
		return attrs, err
	}
	if attrs.TeamLeaderID, err = optionalString(m, "teamLeader"); err != nil {
		return attrs, err
	}
	if attrs.AssignedUserIDs, err = stringList(m, "assignedUsers"); err != nil {
		return attrs, err
	}
	if attrs.StartDate, err = optionalString(m, "startDate"); err != nil {
		return attrs, err
	}
	if attrs.Deadline, err = nullableString(m, "deadline"); err != nil {
		return attrs, err
	}
	if attrs.Completed, err = optionalBool(m, "completed"); err != nil {
		return attrs, err
	}
	if attrs.Confirmed, err = optionalBool(m, "confirmed"); err != nil {
		return attrs, err
	}

	return attrs, nil
}

// CreateProject は作成リクエストを変換します。
func CreateProject(m map[string]any) (project.CreateProjectInput, error) {
	attrs, err := ProjectAttributes(m)
	if err != nil {
		return project.CreateProjectInput{}, err
	}
	return project.CreateProjectInput{Attributes: attrs}, nil
}

// UpdateProject は更新リクエストを変換します。completed は省略できません。
func UpdateProject(id string, m map[string]any) (project.UpdateProjectInput, error) {
	if _, err := requiredBool(m, "completed"); err != nil {
		return project.UpdateProjectInput{}, err
	}
	attrs, err := ProjectAttributes(m)
	if err != nil {
		return project.UpdateProjectInput{}, err
	}
	return project.UpdateProjectInput{ID: id, Attributes: attrs}, nil
}

// CreateClient は顧客作成リクエストを変換します。連絡先は contactInfo 以下に置きます。
func CreateClient(m map[string]any) (client.CreateClientInput, error) {
	var (
		in  client.CreateClientInput
		err error
	)

	if in.Name, err = optionalString(m, "name"); err != nil {
		return in, err
	}

	contact := map[string]any{}
	if raw, ok := m["contactInfo"]; ok && raw != nil {
		nested, ok := raw.(map[string]any)
		if !ok {
			return in, &TypeError{Field: "contactInfo", Want: "an object"}
		}
		contact = nested
	}

	if in.Email, err = nullableString(contact, "email"); err != nil {
		return in, err
	}
	if in.Phone, err = optionalString(contact, "phone"); err != nil {
		return in, err
	}
	if in.ContactPersonPosition, err = optionalString(contact, "contactPersonPosition"); err != nil {
		return in, err
	}
	if in.Address, err = nullableString(contact, "address"); err != nil {
		return in, err
	}
	if in.MapLocation, err = nullableString(contact, "mapLocation"); err != nil {
		return in, err
	}

	return in, nil
}

// OptionalString は文字列項目を取り出します。未指定は空文字です。
func OptionalString(m map[string]any, key string) (string, error) {
	return optionalString(m, key)
}

// OptionalBool は真偽値項目を取り出します。未指定は nil です。
func OptionalBool(m map[string]any, key string) (*bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return nil, &TypeError{Field: key, Want: "a boolean"}
	}
	return &b, nil
}

// OptionalInt は整数項目を取り出します。JSON の数値は float64 で届くため整数値のみ受け付けます。
func OptionalInt(m map[string]any, key string) (int, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, &TypeError{Field: key, Want: "an integer"}
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, &TypeError{Field: key, Want: "an integer"}
	}
}

// ParseInstant は RFC 3339 の日時、または YYYY-MM-DD の暦日(loc の 0 時)を解釈します。空文字は nil です。
func ParseInstant(field, raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	d, err := project.ParseDate(raw)
	if err != nil {
		return nil, &TypeError{Field: field, Want: "an RFC 3339 timestamp or YYYY-MM-DD date"}
	}
	if loc == nil {
		loc = time.UTC
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return &t, nil
}

func optionalString(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &TypeError{Field: key, Want: "a string"}
	}
	return s, nil
}

func nullableString(m map[string]any, key string) (*string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, &TypeError{Field: key, Want: "a string or null"}
	}
	return &s, nil
}

func optionalBool(m map[string]any, key string) (bool, error) {
	b, err := OptionalBool(m, key)
	if err != nil || b == nil {
		return false, err
	}
	return *b, nil
}

func requiredBool(m map[string]any, key string) (bool, error) {
	b, err := OptionalBool(m, key)
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, &TypeError{Field: key, Want: "a boolean"}
	}
	return *b, nil
}

func stringList(m map[string]any, key string) ([]string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Field: key, Want: "an array of strings"}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &TypeError{Field: key, Want: "an array of strings"}
	}
}
