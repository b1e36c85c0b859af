package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ogurasousui/codex-staffing/internal/adapters/payload"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
)

// createProjectBody はプロジェクト作成の本文です。
// 空文字や日付形式の検証はユースケース側で行います。
type createProjectBody struct {
	Name          string   `json:"name" required:"true" doc:"Project name"`
	Description   string   `json:"description,omitempty"`
	ServiceType   string   `json:"serviceType" required:"true"`
	Client        string   `json:"client" required:"true" doc:"Client ID"`
	TeamLeader    string   `json:"teamLeader" required:"true" doc:"User ID of the team leader"`
	AssignedUsers []string `json:"assignedUsers" required:"true" doc:"User IDs assigned to the project"`
	StartDate     string   `json:"startDate" required:"true" doc:"YYYY-MM-DD"`
	Deadline      *string  `json:"deadline,omitempty" nullable:"true" doc:"YYYY-MM-DD"`
	Completed     bool     `json:"completed,omitempty"`
	Confirmed     bool     `json:"confirmed,omitempty"`
	CompletedAt   *string  `json:"completedAt,omitempty" nullable:"true" doc:"Ignored; derived from completed"`
}

func (b createProjectBody) attributes() project.Attributes {
	return project.Attributes{
		Name:            b.Name,
		Description:     b.Description,
		ServiceType:     b.ServiceType,
		ClientID:        b.Client,
		TeamLeaderID:    b.TeamLeader,
		AssignedUserIDs: b.AssignedUsers,
		StartDate:       b.StartDate,
		Deadline:        b.Deadline,
		Completed:       b.Completed,
		Confirmed:       b.Confirmed,
	}
}

// updateProjectBody は全項目置き換えの本文です。completed は省略できません。
type updateProjectBody struct {
	Name          string   `json:"name" required:"true"`
	Description   string   `json:"description,omitempty"`
	ServiceType   string   `json:"serviceType" required:"true"`
	Client        string   `json:"client" required:"true"`
	TeamLeader    string   `json:"teamLeader" required:"true"`
	AssignedUsers []string `json:"assignedUsers" required:"true"`
	StartDate     string   `json:"startDate" required:"true"`
	Deadline      *string  `json:"deadline,omitempty" nullable:"true"`
	Completed     *bool    `json:"completed" required:"true"`
	Confirmed     bool     `json:"confirmed,omitempty" doc:"Forces recalculation even without changes"`
	CompletedAt   *string  `json:"completedAt,omitempty" nullable:"true" doc:"Ignored; derived from completed"`
}

func (b updateProjectBody) attributes() project.Attributes {
	return project.Attributes{
		Name:            b.Name,
		Description:     b.Description,
		ServiceType:     b.ServiceType,
		ClientID:        b.Client,
		TeamLeaderID:    b.TeamLeader,
		AssignedUserIDs: b.AssignedUsers,
		StartDate:       b.StartDate,
		Deadline:        b.Deadline,
		Completed:       b.Completed != nil && *b.Completed,
		Confirmed:       b.Confirmed,
	}
}

type createProjectInput struct {
	Body createProjectBody
}

type updateProjectInput struct {
	ID   string `path:"id"`
	Body updateProjectBody
}

type projectIDInput struct {
	ID string `path:"id"`
}

type listProjectsInput struct {
	Client       string `query:"client" doc:"Filter by client ID"`
	AssignedUser string `query:"assignedUser" doc:"Filter by assigned user ID"`
	Completed    string `query:"completed" enum:"true,false"`
	PageSize     int    `query:"pageSize" minimum:"0"`
	PageToken    string `query:"pageToken"`
}

// updateProjectOutput は差分が無い場合に本文なしの 204 を返します。
type updateProjectOutput struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func (a *api) registerProjects(humaAPI huma.API) {
	huma.Register(humaAPI, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create a project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, a.createProject)

	huma.Register(humaAPI, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Errors:      []int{http.StatusBadRequest},
	}, a.listProjects)

	huma.Register(humaAPI, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get a project",
		Errors:      []int{http.StatusNotFound},
	}, a.getProject)

	huma.Register(humaAPI, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPut,
		Path:        "/projects/{id}",
		Summary:     "Replace a project",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, a.updateProject)

	huma.Register(humaAPI, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{id}",
		Summary:     "Delete a project",
		Errors:      []int{http.StatusNotFound},
	}, a.deleteProject)
}

func (a *api) createProject(ctx context.Context, in *createProjectInput) (*jsonOutput, error) {
	res, err := a.projects.CreateProject(ctx, project.CreateProjectInput{
		Attributes: in.Body.attributes(),
	})
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: payload.CreateProjectResult(res)}, nil
}

func (a *api) updateProject(ctx context.Context, in *updateProjectInput) (*updateProjectOutput, error) {
	if in.Body.Completed == nil {
		return nil, a.toAPIError(ctx, &payload.TypeError{Field: "completed", Want: "a boolean"})
	}

	res, err := a.projects.UpdateProject(ctx, project.UpdateProjectInput{
		ID:         in.ID,
		Attributes: in.Body.attributes(),
	})
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	if res.NoOp {
		return &updateProjectOutput{Status: http.StatusNoContent}, nil
	}

	b, err := json.Marshal(payload.UpdateProjectResult(res))
	if err != nil {
		return nil, a.toAPIError(ctx, fmt.Errorf("encode update result: %w", err))
	}
	return &updateProjectOutput{Status: http.StatusOK, ContentType: "application/json", Body: b}, nil
}

func (a *api) deleteProject(ctx context.Context, in *projectIDInput) (*jsonOutput, error) {
	res, err := a.projects.DeleteProject(ctx, project.DeleteProjectInput{ID: in.ID})
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: payload.DeleteProjectResult(res)}, nil
}

func (a *api) getProject(ctx context.Context, in *projectIDInput) (*jsonOutput, error) {
	found, err := a.projects.GetProject(ctx, project.GetProjectInput{ID: in.ID})
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: map[string]any{"project": payload.Project(found)}}, nil
}

func (a *api) listProjects(ctx context.Context, in *listProjectsInput) (*jsonOutput, error) {
	q := project.ListProjectsInput{
		ClientID:       in.Client,
		AssignedUserID: in.AssignedUser,
		PageSize:       in.PageSize,
		PageToken:      in.PageToken,
	}
	if in.Completed != "" {
		completed, err := strconv.ParseBool(in.Completed)
		if err != nil {
			return nil, a.toAPIError(ctx, &payload.TypeError{Field: "completed", Want: "a boolean"})
		}
		q.Completed = &completed
	}

	res, err := a.projects.ListProjects(ctx, q)
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: map[string]any{
		"projects":      payload.Projects(res.Projects),
		"nextPageToken": res.NextPageToken,
	}}, nil
}
