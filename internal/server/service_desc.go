package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "contracts.v1.IntakeService"

// Method names of IntakeService. Every request and response is a google.protobuf.Struct.
const (
	MethodLogin           = "Login"
	MethodLogout          = "Logout"
	MethodReset           = "Reset"
	MethodOptions         = "Options"
	MethodExtractDocument = "ExtractDocument"
	MethodRegister        = "Register"
	MethodEdit            = "Edit"
	MethodCancel          = "Cancel"
	MethodListContracts   = "ListContracts"
	MethodExportContracts = "ExportContracts"
)

// IntakeServer is the server API for IntakeService.
type IntakeServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Options(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Edit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListContracts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportContracts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(IntakeServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(IntakeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(IntakeServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// IntakeServiceDesc describes IntakeService for grpc.Server.RegisterService.
var IntakeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IntakeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodLogin, IntakeServer.Login),
		unary(MethodLogout, IntakeServer.Logout),
		unary(MethodReset, IntakeServer.Reset),
		unary(MethodOptions, IntakeServer.Options),
		unary(MethodExtractDocument, IntakeServer.ExtractDocument),
		unary(MethodRegister, IntakeServer.Register),
		unary(MethodEdit, IntakeServer.Edit),
		unary(MethodCancel, IntakeServer.Cancel),
		unary(MethodListContracts, IntakeServer.ListContracts),
		unary(MethodExportContracts, IntakeServer.ExportContracts),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "contracts/v1/intake.proto",
}

func RegisterIntakeServer(s grpc.ServiceRegistrar, srv IntakeServer) {
	s.RegisterService(&IntakeServiceDesc, srv)
}

// FullMethod returns "/contracts.v1.IntakeService/<name>".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// IntakeClient is a thin client for IntakeService.
type IntakeClient struct {
	cc grpc.ClientConnInterface
}

func NewIntakeClient(cc grpc.ClientConnInterface) *IntakeClient {
	return &IntakeClient{cc: cc}
}

// Call invokes method with the given fields as request.
func (c *IntakeClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
