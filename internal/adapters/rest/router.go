// Package rest は chi + huma による JSON HTTP API を提供します。
// リクエスト本文は操作ごとの型で受け取り、レスポンス本文は gRPC の Struct と同じ形です。
package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
	history "github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

// Config は HTTP API の依存関係です。
type Config struct {
	Projects project.UseCase
	Users    user.UseCase
	History  history.HistoryUseCase
	Clients  client.UseCase
	Logger   logrus.FieldLogger
	// Location は日付のみで指定された期間の解釈に使います。
	Location *time.Location
}

type api struct {
	projects project.UseCase
	users    user.UseCase
	history  history.HistoryUseCase
	clients  client.UseCase
	log      logrus.FieldLogger
	loc      *time.Location
}

// jsonOutput は本文のみを返すレスポンスです。
type jsonOutput struct {
	Body map[string]any
}

type healthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

var configureHumaOnce sync.Once

// configureHuma は huma のエラー生成を API 共通のエラー封筒に差し替えます。
func configureHuma() {
	configureHumaOnce.Do(func() {
		huma.DefaultArrayNullable = false
		huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
			// スキーマ検証の失敗は 422 ではなく 400 で返します。
			if status == http.StatusUnprocessableEntity {
				status = http.StatusBadRequest
			}
			return newAPIError(status, msg, validationDetails(errs))
		}
		huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
			return huma.NewError(status, msg, errs...)
		}
	})
}

// NewRouter は HTTP API のルーティングを構築します。
func NewRouter(cfg Config) http.Handler {
	configureHuma()

	a := &api{
		projects: cfg.Projects,
		users:    cfg.Users,
		history:  cfg.History,
		clients:  cfg.Clients,
		log:      cfg.Logger,
		loc:      cfg.Location,
	}
	if a.log == nil {
		a.log = logrus.StandardLogger()
	}
	if a.loc == nil {
		a.loc = time.UTC
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(a.log))
	r.Use(middleware.Recoverer)

	hcfg := huma.DefaultConfig("Staffing API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	humaAPI := humachi.New(r, hcfg)

	huma.Register(humaAPI, huma.Operation{
		OperationID: "healthz",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
	}, func(context.Context, *struct{}) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})

	a.registerProjects(humaAPI)
	a.registerUsers(humaAPI)
	a.registerClients(humaAPI)

	return r
}
