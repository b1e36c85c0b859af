package handler

import (
	"context"

	"github.com/ogurasousui/codex-staffing/internal/adapters/payload"
	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClientGrpcHandler は ClientService の gRPC 実装です。
type ClientGrpcHandler struct {
	svc client.UseCase
}

// NewClientGrpcHandler は ClientGrpcHandler を生成します。
func NewClientGrpcHandler(svc client.UseCase) *ClientGrpcHandler {
	return &ClientGrpcHandler{svc: svc}
}

// CreateClient は顧客を作成します。
func (h *ClientGrpcHandler) CreateClient(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in, err := payload.CreateClient(req.AsMap())
	if err != nil {
		return nil, toStatusError(err)
	}

	created, err := h.svc.CreateClient(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"client": payload.Client(created)})
}

// GetClient は顧客を取得します。
func (h *ClientGrpcHandler) GetClient(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := payload.OptionalString(req.AsMap(), "id")
	if err != nil {
		return nil, toStatusError(err)
	}

	found, err := h.svc.GetClient(ctx, client.GetClientInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"client": payload.Client(found)})
}
