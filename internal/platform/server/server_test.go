package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/codex-staffing/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
	history "github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

type notFoundProjects struct{}

func (notFoundProjects) CreateProject(context.Context, project.CreateProjectInput) (*project.CreateProjectResult, error) {
	return nil, project.ErrProjectNotFound
}

func (notFoundProjects) UpdateProject(context.Context, project.UpdateProjectInput) (*project.UpdateProjectResult, error) {
	return nil, project.ErrProjectNotFound
}

func (notFoundProjects) DeleteProject(context.Context, project.DeleteProjectInput) (*project.DeleteProjectResult, error) {
	return nil, project.ErrProjectNotFound
}

func (notFoundProjects) GetProject(context.Context, project.GetProjectInput) (*project.Project, error) {
	return nil, project.ErrProjectNotFound
}

func (notFoundProjects) ListProjects(context.Context, project.ListProjectsInput) (*project.ListProjectsResult, error) {
	return &project.ListProjectsResult{}, nil
}

type emptyUsers struct{}

func (emptyUsers) GetUser(context.Context, user.GetUserInput) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (emptyUsers) ListUsers(context.Context, user.ListUsersInput) (*user.ListUsersResult, error) {
	return &user.ListUsersResult{}, nil
}

type emptyHistory struct{}

func (emptyHistory) ListHistory(context.Context, history.ListHistoryInput) ([]*history.Entry, error) {
	return nil, nil
}

type emptyClients struct{}

func (emptyClients) CreateClient(context.Context, client.CreateClientInput) (*client.Client, error) {
	return nil, errors.New("not implemented")
}

func (emptyClients) GetClient(context.Context, client.GetClientInput) (*client.Client, error) {
	return nil, client.ErrClientNotFound
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	return lis
}

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	srv := New(Options{ShutdownTimeout: 2 * time.Second, Logger: logger}, Services{
		Projects: notFoundProjects{},
		Users:    emptyUsers{},
		History:  emptyHistory{},
		Clients:  emptyClients{},
	})

	grpcLis := listen(t)
	httpLis := listen(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, grpcLis, httpLis) }()

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected healthz status %d: %s", resp.StatusCode, body)
	}

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	req, _ := structpb.NewStruct(map[string]any{"id": "missing"})
	out := &structpb.Struct{}
	err = conn.Invoke(context.Background(), "/"+handler.ProjectServiceName+"/GetProject", req, out)
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_GracefulStop(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	srv := New(Options{ShutdownTimeout: 2 * time.Second, Logger: logger}, Services{
		Projects: notFoundProjects{},
		Users:    emptyUsers{},
		History:  emptyHistory{},
		Clients:  emptyClients{},
	})

	// 開始前の呼び出しは何もしない
	srv.GracefulStop()

	grpcLis := listen(t)
	httpLis := listen(t)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), grpcLis, httpLis) }()

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("healthz request failed: %v", err)
	}
	resp.Body.Close()

	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("GracefulStop did not return")
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after GracefulStop")
	}
}

func TestLoggingUnaryInterceptor(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	interceptor := LoggingUnaryInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: "/staffing.v1.ProjectService/DeleteProject"}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "project not found")
	})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("interceptor must pass the error through, got %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("expected warn level, got %v", entry.Level)
	}
	if entry.Data["method"] != info.FullMethod || entry.Data["code"] != codes.NotFound.String() {
		t.Errorf("unexpected fields: %v", entry.Data)
	}

	if _, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hook.LastEntry().Level != logrus.InfoLevel {
		t.Errorf("expected info level for success, got %v", hook.LastEntry().Level)
	}
}
