package rest

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ogurasousui/codex-staffing/internal/adapters/payload"
	"github.com/ogurasousui/codex-staffing/internal/core/client"
)

type contactInfoBody struct {
	Email                 *string `json:"email,omitempty" nullable:"true"`
	Phone                 string  `json:"phone" required:"true"`
	ContactPersonPosition string  `json:"contactPersonPosition" required:"true"`
	Address               *string `json:"address,omitempty" nullable:"true"`
	MapLocation           *string `json:"mapLocation,omitempty" nullable:"true"`
}

type createClientInput struct {
	Body struct {
		Name        string          `json:"name" required:"true"`
		ContactInfo contactInfoBody `json:"contactInfo" required:"true"`
	}
}

type clientIDInput struct {
	ID string `path:"id"`
}

func (a *api) registerClients(humaAPI huma.API) {
	huma.Register(humaAPI, huma.Operation{
		OperationID:   "create-client",
		Method:        http.MethodPost,
		Path:          "/clients",
		Summary:       "Create a client",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, a.createClient)

	huma.Register(humaAPI, huma.Operation{
		OperationID: "get-client",
		Method:      http.MethodGet,
		Path:        "/clients/{id}",
		Summary:     "Get a client",
		Errors:      []int{http.StatusNotFound},
	}, a.getClient)
}

func (a *api) createClient(ctx context.Context, in *createClientInput) (*jsonOutput, error) {
	contact := in.Body.ContactInfo
	created, err := a.clients.CreateClient(ctx, client.CreateClientInput{
		Name:                  in.Body.Name,
		Email:                 contact.Email,
		Phone:                 contact.Phone,
		ContactPersonPosition: contact.ContactPersonPosition,
		Address:               contact.Address,
		MapLocation:           contact.MapLocation,
	})
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: map[string]any{"client": payload.Client(created)}}, nil
}

func (a *api) getClient(ctx context.Context, in *clientIDInput) (*jsonOutput, error) {
	found, err := a.clients.GetClient(ctx, client.GetClientInput{ID: in.ID})
	if err != nil {
		return nil, a.toAPIError(ctx, err)
	}
	return &jsonOutput{Body: map[string]any{"client": payload.Client(found)}}, nil
}
