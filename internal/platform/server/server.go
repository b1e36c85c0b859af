package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/codex-staffing/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-staffing/internal/adapters/rest"
	"github.com/ogurasousui/codex-staffing/internal/core/client"
	"github.com/ogurasousui/codex-staffing/internal/core/project"
	history "github.com/ogurasousui/codex-staffing/internal/core/status"
	"github.com/ogurasousui/codex-staffing/internal/core/user"
)

// Services はサーバーが公開するユースケースの集合です。
type Services struct {
	Projects project.UseCase
	Users    user.UseCase
	History  history.HistoryUseCase
	Clients  client.UseCase
}

// Options はサーバーの待ち受けと停止に関する設定です。HTTPAddr が空の場合 HTTP API は起動しません。
type Options struct {
	GRPCAddr        string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	Location        *time.Location
	Logger          logrus.FieldLogger
}

// Server は gRPC サーバーと HTTP サーバーのライフサイクルを管理します。
type Server struct {
	opts       Options
	grpcServer *grpc.Server
	httpServer *http.Server
	log        logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New は gRPC サービスと HTTP ルーターを登録したサーバーを構築します。
func New(opts Options, svcs Services, grpcOpts ...grpc.ServerOption) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	grpcOpts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(LoggingUnaryInterceptor(log))}, grpcOpts...)
	srv := grpc.NewServer(grpcOpts...)
	handler.RegisterProjectServiceServer(srv, handler.NewProjectGrpcHandler(svcs.Projects))
	handler.RegisterUserServiceServer(srv, handler.NewUserGrpcHandler(svcs.Users, svcs.History, opts.Location))
	handler.RegisterClientServiceServer(srv, handler.NewClientGrpcHandler(svcs.Clients))

	router := rest.NewRouter(rest.Config{
		Projects: svcs.Projects,
		Users:    svcs.Users,
		History:  svcs.History,
		Clients:  svcs.Clients,
		Logger:   log,
		Location: opts.Location,
	})

	return &Server{
		opts:       opts,
		grpcServer: srv,
		httpServer: &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second},
		log:        log,
	}
}

// Run は設定されたアドレスで待ち受け、コンテキストがキャンセルされると両サーバーを停止します。
func (s *Server) Run(ctx context.Context) error {
	grpcLis, err := net.Listen("tcp", s.opts.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.GRPCAddr, err)
	}

	var httpLis net.Listener
	if s.opts.HTTPAddr != "" {
		httpLis, err = net.Listen("tcp", s.opts.HTTPAddr)
		if err != nil {
			grpcLis.Close()
			return fmt.Errorf("listen on %s: %w", s.opts.HTTPAddr, err)
		}
	}

	return s.Serve(ctx, grpcLis, httpLis)
}

// Serve は渡されたリスナーで待ち受けます。httpLis が nil の場合は gRPC のみ提供します。
// GracefulStop からの停止要求も ctx のキャンセルと同じ経路で処理します。
func (s *Server) Serve(ctx context.Context, grpcLis, httpLis net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	defer close(done)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", grpcLis.Addr().String()).Info("gRPC server listening")
		if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	if httpLis != nil {
		g.Go(func() error {
			s.log.WithField("addr", httpLis.Addr().String()).Info("HTTP server listening")
			if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve HTTP: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown(httpLis != nil)
	})

	return g.Wait()
}

func (s *Server) shutdown(withHTTP bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	var httpErr error
	if withHTTP {
		httpErr = s.httpServer.Shutdown(ctx)
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.log.Warn("graceful stop timed out; forcing gRPC shutdown")
		s.grpcServer.Stop()
	}

	if httpErr != nil {
		return fmt.Errorf("shutdown HTTP: %w", httpErr)
	}
	return nil
}

// GracefulStop は Serve を停止させ、Serve が戻るまで待ちます。Serve の開始前に呼ばれた場合は何もしません。
func (s *Server) GracefulStop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// LoggingUnaryInterceptor は RPC ごとにメソッド名、ステータスコード、所要時間を記録します。
func LoggingUnaryInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		})
		if err != nil {
			entry.WithError(err).Warn("rpc failed")
		} else {
			entry.Info("rpc handled")
		}
		return resp, err
	}
}
