package rpc

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Route binds an HTTP method and path pattern to a unary method. Path
// parameters, query parameters and, when Body is set, the JSON body are
// merged into one request Struct. Query values are strings unless listed in
// Bools or Ints.
type Route struct {
	Method  string
	Pattern string
	RPC     string
	Body    bool
	Bools   []string
	Ints    []string
}

// NewGateway returns a grpc-gateway mux that forwards every route over conn.
func NewGateway(conn grpc.ClientConnInterface, routes ...Route) (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux(runtime.WithIncomingHeaderMatcher(headerMatcher))
	for _, route := range routes {
		if err := mux.HandlePath(route.Method, route.Pattern, forward(mux, conn, route)); err != nil {
			return nil, fmt.Errorf("register %s %s: %w", route.Method, route.Pattern, err)
		}
	}
	return mux, nil
}

func headerMatcher(key string) (string, bool) {
	if strings.EqualFold(key, legacyTokenKey) {
		return legacyTokenKey, true
	}
	return runtime.DefaultHeaderMatcher(key)
}

func forward(mux *runtime.ServeMux, conn grpc.ClientConnInterface, route Route) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		_, outbound := runtime.MarshalerForRequest(mux, r)
		ctx, err := runtime.AnnotateContext(r.Context(), mux, r, route.RPC, runtime.WithHTTPPathPattern(route.Pattern))
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}

		in, err := route.request(r, pathParams)
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, status.Error(codes.InvalidArgument, err.Error()))
			return
		}

		out := new(structpb.Struct)
		var md runtime.ServerMetadata
		if err := conn.Invoke(ctx, route.RPC, in, out, grpc.Header(&md.HeaderMD), grpc.Trailer(&md.TrailerMD)); err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}
		ctx = runtime.NewServerMetadataContext(ctx, md)
		runtime.ForwardResponseMessage(ctx, mux, outbound, w, r, out, mux.GetForwardResponseOptions()...)
	}
}

func (route Route) request(r *http.Request, pathParams map[string]string) (*structpb.Struct, error) {
	in := new(structpb.Struct)
	if route.Body && r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(body)) > 0 {
			if err := protojson.Unmarshal(body, in); err != nil {
				return nil, fmt.Errorf("invalid JSON body: %w", err)
			}
		}
	}
	if in.Fields == nil {
		in.Fields = make(map[string]*structpb.Value)
	}

	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value, err := route.queryValue(key, values[0])
		if err != nil {
			return nil, err
		}
		in.Fields[key] = value
	}
	for key, value := range pathParams {
		in.Fields[key] = structpb.NewStringValue(value)
	}
	return in, nil
}

func (route Route) queryValue(key, raw string) (*structpb.Value, error) {
	switch {
	case slices.Contains(route.Bools, key):
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean", key)
		}
		return structpb.NewBoolValue(b), nil
	case slices.Contains(route.Ints, key):
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", key)
		}
		return structpb.NewNumberValue(float64(n)), nil
	default:
		return structpb.NewStringValue(raw), nil
	}
}
