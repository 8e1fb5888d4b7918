package recovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestRecoveryUnaryInterceptor_RecoversPanicAsInternalError(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/widgets.Widgets/Create"}
	handler := func(ctx context.Context, req any) (any, error) {
		panic("boom")
	}

	resp, err := RecoveryUnaryInterceptor(context.Background(), nil, info, handler)

	require.Nil(t, resp)
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestRecoveryUnaryInterceptor_PassesThroughOnNoPanic(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/widgets.Widgets/Create"}
	wantResp := "ok"
	handler := func(ctx context.Context, req any) (any, error) {
		return wantResp, nil
	}

	resp, err := RecoveryUnaryInterceptor(context.Background(), nil, info, handler)

	require.NoError(t, err)
	require.Equal(t, wantResp, resp)
}

func TestRecoveryUnaryInterceptor_PassesThroughHandlerError(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/widgets.Widgets/Create"}
	wantErr := errors.New("handler failed")
	handler := func(ctx context.Context, req any) (any, error) {
		return nil, wantErr
	}

	_, err := RecoveryUnaryInterceptor(context.Background(), nil, info, handler)

	require.ErrorIs(t, err, wantErr)
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s fakeServerStream) Context() context.Context { return s.ctx }

func TestRecoveryStreamInterceptor_RecoversPanicAsInternalError(t *testing.T) {
	info := &grpc.StreamServerInfo{FullMethod: "/widgets.Widgets/Watch"}
	ss := fakeServerStream{ctx: context.Background()}
	handler := func(srv any, stream grpc.ServerStream) error {
		panic("boom")
	}

	err := RecoveryStreamInterceptor(nil, ss, info, handler)

	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestRecoveryStreamInterceptor_PassesThroughOnNoPanic(t *testing.T) {
	info := &grpc.StreamServerInfo{FullMethod: "/widgets.Widgets/Watch"}
	ss := fakeServerStream{ctx: context.Background()}
	handler := func(srv any, stream grpc.ServerStream) error {
		return nil
	}

	err := RecoveryStreamInterceptor(nil, ss, info, handler)

	require.NoError(t, err)
}

func TestRecoveryUnaryInterceptor_RequestIDSurvivesIntoErrorDetails(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/widgets.Widgets/Create"}
	handler := func(ctx context.Context, req any) (any, error) {
		panic("boom")
	}

	md := metadata.Pairs("x-request-id", "req-123")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	_, err := RecoveryUnaryInterceptor(ctx, nil, info, handler)

	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))

	var requestID string
	for _, d := range status.Convert(err).Details() {
		if info, ok := d.(*errdetails.RequestInfo); ok {
			requestID = info.GetRequestId()
		}
	}
	require.Equal(t, "req-123", requestID)
}
