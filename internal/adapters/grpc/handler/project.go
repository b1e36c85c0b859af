package handler

import (
	"context"

	"github.com/ogurasousui/codex-staffing/internal/adapters/payload"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProjectGrpcHandler は ProjectService の gRPC 実装です。
type ProjectGrpcHandler struct {
	svc project.UseCase
}

// NewProjectGrpcHandler は ProjectGrpcHandler を生成します。
func NewProjectGrpcHandler(svc project.UseCase) *ProjectGrpcHandler {
	return &ProjectGrpcHandler{svc: svc}
}

// CreateProject はプロジェクトを作成します。
func (h *ProjectGrpcHandler) CreateProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in, err := payload.CreateProject(req.AsMap())
	if err != nil {
		return nil, toStatusError(err)
	}

	res, err := h.svc.CreateProject(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(payload.CreateProjectResult(res))
}

// UpdateProject はプロジェクトを全項目置き換えで更新します。
func (h *ProjectGrpcHandler) UpdateProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	m := req.AsMap()
	id, err := payload.OptionalString(m, "id")
	if err != nil {
		return nil, toStatusError(err)
	}
	in, err := payload.UpdateProject(id, m)
	if err != nil {
		return nil, toStatusError(err)
	}

	res, err := h.svc.UpdateProject(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(payload.UpdateProjectResult(res))
}

// DeleteProject はプロジェクトを削除します。
func (h *ProjectGrpcHandler) DeleteProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := payload.OptionalString(req.AsMap(), "id")
	if err != nil {
		return nil, toStatusError(err)
	}

	res, err := h.svc.DeleteProject(ctx, project.DeleteProjectInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(payload.DeleteProjectResult(res))
}

// GetProject はプロジェクトを取得します。
func (h *ProjectGrpcHandler) GetProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := payload.OptionalString(req.AsMap(), "id")
	if err != nil {
		return nil, toStatusError(err)
	}

	found, err := h.svc.GetProject(ctx, project.GetProjectInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{"project": payload.Project(found)})
}

// ListProjects はプロジェクトの一覧を取得します。
func (h *ProjectGrpcHandler) ListProjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in, err := listProjectsInput(req.AsMap())
	if err != nil {
		return nil, toStatusError(err)
	}

	res, err := h.svc.ListProjects(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return toStruct(map[string]any{
		"projects":      payload.Projects(res.Projects),
		"nextPageToken": res.NextPageToken,
	})
}

func listProjectsInput(m map[string]any) (project.ListProjectsInput, error) {
	var (
		in  project.ListProjectsInput
		err error
	)
	if in.ClientID, err = payload.OptionalString(m, "client"); err != nil {
		return in, err
	}
	if in.AssignedUserID, err = payload.OptionalString(m, "assignedUser"); err != nil {
		return in, err
	}
	if in.Completed, err = payload.OptionalBool(m, "completed"); err != nil {
		return in, err
	}
	if in.PageSize, err = payload.OptionalInt(m, "pageSize"); err != nil {
		return in, err
	}
	if in.PageToken, err = payload.OptionalString(m, "pageToken"); err != nil {
		return in, err
	}
	return in, nil
}
