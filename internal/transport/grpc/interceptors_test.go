package grpcx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptor_RecoversPanic(t *testing.T) {
	ic := UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Svc/Boom"}

	_, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestUnaryInterceptor_AddsDeadline(t *testing.T) {
	ic := UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Svc/Ok"}

	var dl time.Time
	var has bool
	resp, err := ic(context.Background(), nil, info, func(ctx context.Context, _ any) (any, error) {
		dl, has = ctx.Deadline()
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.True(t, has)
	assert.WithinDuration(t, time.Now().Add(defaultCallTimeout), dl, time.Second)
}

func TestStreamInterceptor_RecoversPanic(t *testing.T) {
	ic := StreamServerInterceptor()
	info := &grpc.StreamServerInfo{FullMethod: "/test.Svc/Watch"}

	err := ic(nil, nil, info, func(any, grpc.ServerStream) error {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}
