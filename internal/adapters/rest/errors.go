package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/codes"

	"github.com/ogurasousui/codex-staffing/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-staffing/internal/adapters/payload"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
)

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"startDate: invalid date"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError は {"error":{"code","message","details"}} 形式のエラーレスポンスです。
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, message string, details map[string]any) *apiError {
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    codeForStatus(status),
			Message: message,
			Details: details,
		},
	}
}

// toAPIError はドメインエラーを HTTP ステータスとエラー封筒に変換します。
func (a *api) toAPIError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	status := httpStatusFromCode(handler.Code(err))
	apiErr := newAPIError(status, err.Error(), nil)

	var fieldErr *project.FieldError
	if errors.As(err, &fieldErr) {
		apiErr.Body.Details = map[string]any{"field": fieldErr.Field}
	}
	var typeErr *payload.TypeError
	if errors.As(err, &typeErr) {
		apiErr.Body.Details = map[string]any{"field": typeErr.Field}
	}

	if status >= http.StatusInternalServerError {
		a.log.WithField("request_id", middleware.GetReqID(ctx)).WithError(err).Error("request failed")
		apiErr.Body.Message = http.StatusText(status)
	}
	return apiErr
}

// validationDetails は huma の検証エラーを details に変換します。
func validationDetails(errs []error) map[string]any {
	if len(errs) == 0 {
		return nil
	}

	details := map[string]any{}
	items := make([]map[string]any, 0, len(errs))
	for _, err := range errs {
		item := map[string]any{"message": err.Error()}

		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			item["message"] = detail.Message
			if detail.Location != "" {
				item["location"] = detail.Location
			}
			if _, field, ok := strings.Cut(detail.Location, "."); ok {
				if _, set := details["field"]; !set {
					details["field"] = field
				}
			}
		}
		items = append(items, item)
	}
	details["errors"] = items
	return details
}

func httpStatusFromCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case 499:
		return "canceled"
	case http.StatusGatewayTimeout:
		return "timeout"
	case http.StatusInternalServerError:
		return "internal"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}
