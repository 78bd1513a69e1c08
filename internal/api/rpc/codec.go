package rpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler serves one unary method of a service whose requests and responses
// are google.protobuf.Struct messages.
type Handler[S any] func(srv S, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Unary describes a method for a grpc.ServiceDesc, honoring the server's
// interceptor chain.
func Unary[S any](service, method string, h Handler[S]) grpc.MethodDesc {
	fullMethod := FullMethod(service, method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return h(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return h(srv.(S), ctx, req.(*structpb.Struct))
			})
		},
	}
}

func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// Decode fills v from the JSON form of req.
func Decode(req *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// Encode converts v, which must marshal to a JSON object, into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}
