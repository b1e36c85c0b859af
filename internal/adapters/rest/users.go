package rest

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ogurasousui/codex-staffing/internal/adapters/payload"
	history "github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

type userIDInput struct {
	ID string `path:"id"`
}

type listUsersInput struct {
	Status    string `query:"status" enum:"Available,At Work"`
	PageSize  int    `query:"pageSize" minimum:"0"`
	PageToken string `query:"pageToken"`
}

type statusHistoryInput struct {
	ID   string `path:"id"`
	From string `query:"from" doc:"RFC 3339 timestamp or YYYY-MM-DD"`
	To   string `query:"to" doc:"RFC 3339 timestamp or YYYY-MM-DD"`
}

func (a *api) registerUsers(humaAPI huma.API) {
	huma.Register(humaAPI, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Errors:      []int{http.StatusBadRequest},
	}, a.listUsers)

	huma.Register(humaAPI, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get a user",
		Errors:      []int{http.StatusNotFound},
	}, a.getUser)

	huma.Register(humaAPI, huma.Operation{
		OperationID: "list-status-history",
		Method:      http.MethodGet,
		Path:        "/users/{id}/status-history",
		Summary:     "List status history of a user",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, a.listStatusHistory)
}

func (a *api) getUser(ctx context.Context, in *userIDInput) (*jsonOutput, error) {
	found, err := a.users.GetUser(ctx, user.GetUserInput{ID: in.ID})
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: map[string]any{"user": payload.User(found)}}, nil
}

func (a *api) listUsers(ctx context.Context, in *listUsersInput) (*jsonOutput, error) {
	q := user.ListUsersInput{PageSize: in.PageSize, PageToken: in.PageToken}
	if in.Status != "" {
		st := user.Status(in.Status)
		q.Status = &st
	}

	res, err := a.users.ListUsers(ctx, q)
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: map[string]any{
		"users":         payload.Users(res.Users),
		"nextPageToken": res.NextPageToken,
	}}, nil
}

func (a *api) listStatusHistory(ctx context.Context, in *statusHistoryInput) (*jsonOutput, error) {
	from, err := payload.ParseInstant("from", in.From, a.loc)
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	to, err := payload.ParseInstant("to", in.To, a.loc)
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}

	entries, err := a.history.ListHistory(ctx, history.ListHistoryInput{
		UserID: in.ID,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: map[string]any{"entries": payload.StatusHistory(entries)}}, nil
}
