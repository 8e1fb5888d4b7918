package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/chaosmongo/chaosmongo/pkg/logger"
)

// dialExampleService connects to the example gRPC server with the
// request-id and logging client interceptors attached, so a caller's
// outgoing requests carry the same request-id propagation as an inbound
// one.
func dialExampleService(target string) (*grpc.ClientConn, error) {
	return grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
		grpc.WithChainUnaryInterceptor(logger.ClientRequestIDInterceptor, logger.ClientLoggingInterceptor),
		grpc.WithChainStreamInterceptor(logger.ClientStreamInterceptor),
	)
}

// callHealthCheckOnce invokes the example service's HealthCheck RPC
// directly, without a generated client stub, and logs the response.
func callHealthCheckOnce(ctx context.Context, conn *grpc.ClientConn, log *logrus.Entry) {
	var resp healthCheckResponse

	if err := conn.Invoke(ctx, exampleHealthCheckMethod, &healthCheckRequest{}, &resp); err != nil {
		log.WithError(err).Warn("example: gRPC health check call failed")
		return
	}

	log.WithFields(logrus.Fields{"ready": resp.Ready, "message": resp.Message}).Info("example: gRPC health check responded")
}
