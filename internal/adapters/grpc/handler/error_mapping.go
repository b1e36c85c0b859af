package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/codex-staffing/internal/adapters/payload"
	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
	history "github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code はドメインエラーを gRPC のステータスコードに対応付けます。HTTP アダプタもこの対応表を使います。
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, payload.ErrInvalidPayload),
		errors.Is(err, project.ErrValidation),
		errors.Is(err, project.ErrInvalidPageSize),
		errors.Is(err, project.ErrInvalidPageToken),
		errors.Is(err, user.ErrInvalidStatus),
		errors.Is(err, user.ErrInvalidID),
		errors.Is(err, user.ErrInvalidPageSize),
		errors.Is(err, user.ErrInvalidPageToken),
		errors.Is(err, client.ErrInvalidName),
		errors.Is(err, client.ErrInvalidEmail),
		errors.Is(err, client.ErrInvalidPhone),
		errors.Is(err, client.ErrInvalidContactPersonPosition),
		errors.Is(err, client.ErrInvalidID),
		errors.Is(err, history.ErrInvalidUserID),
		errors.Is(err, history.ErrInvalidStatus),
		errors.Is(err, history.ErrInvalidRange):
		return codes.InvalidArgument
	case errors.Is(err, project.ErrDuplicateProject):
		return codes.AlreadyExists
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, client.ErrClientNotFound):
		return codes.NotFound
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(Code(err), err.Error())
}
