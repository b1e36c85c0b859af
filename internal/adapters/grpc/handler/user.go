package handler

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-staffing/internal/adapters/payload"
	history "github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// UserGrpcHandler は UserService の gRPC 実装です。
type UserGrpcHandler struct {
	svc     user.UseCase
	history history.HistoryUseCase
	loc     *time.Location
}

// NewUserGrpcHandler は UserGrpcHandler を生成します。loc は日付のみで指定された期間の解釈に使います。
func NewUserGrpcHandler(svc user.UseCase, historySvc history.HistoryUseCase, loc *time.Location) *UserGrpcHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &UserGrpcHandler{svc: svc, history: historySvc, loc: loc}
}

// GetUser はユーザーを取得します。
func (h *UserGrpcHandler) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := payload.OptionalString(req.AsMap(), "id")
	if err != nil {
		return nil, toStatusError(err)
	}

	found, err := h.svc.GetUser(ctx, user.GetUserInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"user": payload.User(found)})
}

// ListUsers はユーザーの一覧を取得します。
func (h *UserGrpcHandler) ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	m := req.AsMap()
	in := user.ListUsersInput{}

	rawStatus, err := payload.OptionalString(m, "status")
	if err != nil {
		return nil, toStatusError(err)
	}
	if rawStatus != "" {
		st := user.Status(rawStatus)
		in.Status = &st
	}
	if in.PageSize, err = payload.OptionalInt(m, "pageSize"); err != nil {
		return nil, toStatusError(err)
	}
	if in.PageToken, err = payload.OptionalString(m, "pageToken"); err != nil {
		return nil, toStatusError(err)
	}

	res, err := h.svc.ListUsers(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{
		"users":         payload.Users(res.Users),
		"nextPageToken": res.NextPageToken,
	})
}

// ListStatusHistory はユーザーの日別ステータス履歴を取得します。
func (h *UserGrpcHandler) ListStatusHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	m := req.AsMap()
	userID, err := payload.OptionalString(m, "userId")
	if err != nil {
		return nil, toStatusError(err)
	}
	rawFrom, err := payload.OptionalString(m, "from")
	if err != nil {
		return nil, toStatusError(err)
	}
	rawTo, err := payload.OptionalString(m, "to")
	if err != nil {
		return nil, toStatusError(err)
	}
	from, err := payload.ParseInstant("from", rawFrom, h.loc)
	if err != nil {
		return nil, toStatusError(err)
	}
	to, err := payload.ParseInstant("to", rawTo, h.loc)
	if err != nil {
		return nil, toStatusError(err)
	}

	entries, err := h.history.ListHistory(ctx, history.ListHistoryInput{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"entries": payload.StatusHistory(entries)})
}
