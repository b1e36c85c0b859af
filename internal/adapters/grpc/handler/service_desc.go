package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// サービス定義は protoc の生成物を置かず、google.protobuf.Struct を入出力とする手書きの ServiceDesc で提供します。
// 本文のスキーマは HTTP API の JSON と同一です。

const (
	ProjectServiceName = "staffing.v1.ProjectService"
	UserServiceName    = "staffing.v1.UserService"
	ClientServiceName  = "staffing.v1.ClientService"
)

// ProjectServiceServer は ProjectService のサーバー実装が満たすインターフェースです。
type ProjectServiceServer interface {
	CreateProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListProjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// UserServiceServer は UserService のサーバー実装が満たすインターフェースです。
type UserServiceServer interface {
	GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListUsers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListStatusHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ClientServiceServer は ClientService のサーバー実装が満たすインターフェースです。
type ClientServiceServer interface {
	CreateClient(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetClient(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type structMethod[S any] func(srv S, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unary[S any](service, name string, call structMethod[S]) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ProjectServiceDesc は ProjectService の grpc.ServiceDesc です。
var ProjectServiceDesc = grpc.ServiceDesc{
	ServiceName: ProjectServiceName,
	HandlerType: (*ProjectServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary[ProjectServiceServer](ProjectServiceName, "CreateProject", ProjectServiceServer.CreateProject),
		unary[ProjectServiceServer](ProjectServiceName, "UpdateProject", ProjectServiceServer.UpdateProject),
		unary[ProjectServiceServer](ProjectServiceName, "DeleteProject", ProjectServiceServer.DeleteProject),
		unary[ProjectServiceServer](ProjectServiceName, "GetProject", ProjectServiceServer.GetProject),
		unary[ProjectServiceServer](ProjectServiceName, "ListProjects", ProjectServiceServer.ListProjects),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "staffing/v1/project.proto",
}

// UserServiceDesc は UserService の grpc.ServiceDesc です。
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary[UserServiceServer](UserServiceName, "GetUser", UserServiceServer.GetUser),
		unary[UserServiceServer](UserServiceName, "ListUsers", UserServiceServer.ListUsers),
		unary[UserServiceServer](UserServiceName, "ListStatusHistory", UserServiceServer.ListStatusHistory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "staffing/v1/user.proto",
}

// ClientServiceDesc は ClientService の grpc.ServiceDesc です。
var ClientServiceDesc = grpc.ServiceDesc{
	ServiceName: ClientServiceName,
	HandlerType: (*ClientServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary[ClientServiceServer](ClientServiceName, "CreateClient", ClientServiceServer.CreateClient),
		unary[ClientServiceServer](ClientServiceName, "GetClient", ClientServiceServer.GetClient),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "staffing/v1/client.proto",
}

// RegisterProjectServiceServer は ProjectService を登録します。
func RegisterProjectServiceServer(s grpc.ServiceRegistrar, srv ProjectServiceServer) {
	s.RegisterService(&ProjectServiceDesc, srv)
}

// RegisterUserServiceServer は UserService を登録します。
func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

// RegisterClientServiceServer は ClientService を登録します。
func RegisterClientServiceServer(s grpc.ServiceRegistrar, srv ClientServiceServer) {
	s.RegisterService(&ClientServiceDesc, srv)
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, toStatusError(err)
	}
	return s, nil
}
