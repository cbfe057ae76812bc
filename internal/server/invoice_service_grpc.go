package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// InvoiceServiceName is the fully qualified gRPC service name.
const InvoiceServiceName = "invoices.v1.InvoiceService"

const (
	ProcessInvoiceMethod   = "/" + InvoiceServiceName + "/ProcessInvoice"
	NormalizeInvoiceMethod = "/" + InvoiceServiceName + "/NormalizeInvoice"
	GetInvoiceMethod       = "/" + InvoiceServiceName + "/GetInvoice"
	ExportInvoiceMethod    = "/" + InvoiceServiceName + "/ExportInvoice"
)

// InvoiceServiceServer is the server API for invoices.v1.InvoiceService.
// Requests and responses are google.protobuf.Struct since extraction
// payloads have no fixed schema.
type InvoiceServiceServer interface {
	ProcessInvoice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NormalizeInvoice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetInvoice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportInvoice(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterInvoiceServiceServer(s grpc.ServiceRegistrar, srv InvoiceServiceServer) {
	s.RegisterService(&InvoiceService_ServiceDesc, srv)
}

type invoiceCall func(InvoiceServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call invoiceCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InvoiceServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InvoiceServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// InvoiceService_ServiceDesc is the grpc.ServiceDesc for InvoiceService.
var InvoiceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: InvoiceServiceName,
	HandlerType: (*InvoiceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ProcessInvoice",
			Handler:    unaryHandler(ProcessInvoiceMethod, InvoiceServiceServer.ProcessInvoice),
		},
		{
			MethodName: "NormalizeInvoice",
			Handler:    unaryHandler(NormalizeInvoiceMethod, InvoiceServiceServer.NormalizeInvoice),
		},
		{
			MethodName: "GetInvoice",
			Handler:    unaryHandler(GetInvoiceMethod, InvoiceServiceServer.GetInvoice),
		},
		{
			MethodName: "ExportInvoice",
			Handler:    unaryHandler(ExportInvoiceMethod, InvoiceServiceServer.ExportInvoice),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "invoices/v1/invoices.proto",
}

// InvoiceServiceClient is the client API for invoices.v1.InvoiceService.
type InvoiceServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInvoiceServiceClient(cc grpc.ClientConnInterface) *InvoiceServiceClient {
	return &InvoiceServiceClient{cc: cc}
}

func (c *InvoiceServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InvoiceServiceClient) ProcessInvoice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ProcessInvoiceMethod, in, opts...)
}

func (c *InvoiceServiceClient) NormalizeInvoice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, NormalizeInvoiceMethod, in, opts...)
}

func (c *InvoiceServiceClient) GetInvoice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetInvoiceMethod, in, opts...)
}

func (c *InvoiceServiceClient) ExportInvoice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ExportInvoiceMethod, in, opts...)
}
