package grpcclient

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	cgrpc "cipher-canvas/internal/grpc"
	"cipher-canvas/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type storeStub struct{ err error }

func (s storeStub) Ping(context.Context) error { return s.err }

func serve(t *testing.T, store cgrpc.Pinger) string {
	t.Helper()
	srv, err := cgrpc.NewServer(store, config.TLSConfig{}, time.Hour)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis.Addr().String()
}

func TestProbe(t *testing.T) {
	testCases := []struct {
		name  string
		store storeStub
		want  healthpb.HealthCheckResponse_ServingStatus
	}{
		{"store up", storeStub{}, healthpb.HealthCheckResponse_SERVING},
		{"store down", storeStub{err: errors.New("down")}, healthpb.HealthCheckResponse_NOT_SERVING},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr := serve(t, tc.store)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			got, err := Probe(ctx, addr, config.TLSConfig{}, cgrpc.ServiceName)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProbe_UnknownService(t *testing.T) {
	addr := serve(t, storeStub{})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := Probe(ctx, addr, config.TLSConfig{}, "no.such.Service")
	assert.Error(t, err)
}

func TestDial_TLSMissingCA(t *testing.T) {
	_, err := Dial("127.0.0.1:1", config.TLSConfig{Enabled: true, CAFile: "/nonexistent/ca.pem"})
	assert.Error(t, err)
}
