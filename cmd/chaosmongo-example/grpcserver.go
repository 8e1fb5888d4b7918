package main

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/chaosmongo/chaosmongo/pkg/chaosmongo"
	"github.com/chaosmongo/chaosmongo/pkg/logger"
	"github.com/chaosmongo/chaosmongo/pkg/metrics"
	"github.com/chaosmongo/chaosmongo/pkg/recovery"
)

// A hand-written gRPC service, not generated from a .proto: this example
// has no wire-compatibility requirement to uphold, so it trades the usual
// codegen for a minimal grpc.ServiceDesc plus a JSON codec. It exists to
// give the library's gRPC-facing collaborators — readiness gating,
// request-id/logging interceptors, panic recovery, and per-method metrics —
// a real call site.

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "chaosmongo-example-json" }

type healthCheckRequest struct{}

type healthCheckResponse struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message"`
}

const exampleHealthCheckMethod = "/chaosmongo.example.ExampleService/HealthCheck"

type exampleServer struct {
	readiness *chaosmongo.Readiness
}

func (s *exampleServer) HealthCheck(_ context.Context, _ *healthCheckRequest) (*healthCheckResponse, error) {
	if !s.readiness.Ready() {
		return &healthCheckResponse{Ready: false, Message: s.readiness.LastError()}, nil
	}

	return &healthCheckResponse{Ready: true, Message: "serving"}, nil
}

func exampleHealthCheckHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(healthCheckRequest)
	if err := dec(req); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*exampleServer).HealthCheck(ctx, req)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: exampleHealthCheckMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*exampleServer).HealthCheck(ctx, req.(*healthCheckRequest))
	}

	return interceptor(ctx, req, info, handler)
}

var exampleServiceDesc = grpc.ServiceDesc{
	ServiceName: "chaosmongo.example.ExampleService",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "HealthCheck",
			Handler:    exampleHealthCheckHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chaosmongo-example",
}

// newGRPCServer wires the readiness gate, request-id/logging interceptors,
// panic recovery, and gRPC method metrics around the single example
// service, unary and streaming alike.
func newGRPCServer(readiness *chaosmongo.Readiness, grpcMetrics *metrics.GRPCServerMetrics) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(
			recovery.RecoveryUnaryInterceptor,
			logger.ServerRequestIDInterceptor,
			logger.ServerLoggingInterceptor,
			grpcMetrics.UnaryServerInterceptor(),
			chaosmongo.GateUnary(readiness),
		),
		grpc.ChainStreamInterceptor(
			recovery.RecoveryStreamInterceptor,
			logger.ServerStreamRequestIDInterceptor,
			logger.ServerStreamLoggingInterceptor,
			grpcMetrics.StreamServerInterceptor(),
			chaosmongo.GateStream(readiness),
		),
	)

	srv.RegisterService(&exampleServiceDesc, &exampleServer{readiness: readiness})

	return srv
}
