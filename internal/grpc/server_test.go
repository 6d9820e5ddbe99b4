package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"cipher-canvas/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type flakyStore struct {
	down atomic.Bool
}

func (f *flakyStore) Ping(context.Context) error {
	if f.down.Load() {
		return errors.New("store unavailable")
	}
	return nil
}

func startTestServer(t *testing.T, store Pinger, interval time.Duration) (*Server, healthpb.HealthClient) {
	t.Helper()
	srv, err := NewServer(store, config.TLSConfig{}, interval)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return srv, healthpb.NewHealthClient(conn)
}

func checkStatus(client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}
	return resp.GetStatus()
}

func TestHealth_ServingWhenStoreAnswers(t *testing.T) {
	_, client := startTestServer(t, &flakyStore{}, time.Hour)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(client, ServiceName))
}

func TestHealth_FollowsStoreAvailability(t *testing.T) {
	store := &flakyStore{}
	_, client := startTestServer(t, store, 20*time.Millisecond)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(client, ""))

	store.down.Store(true)
	assert.Eventually(t, func() bool {
		return checkStatus(client, "") == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 20*time.Millisecond)

	store.down.Store(false)
	assert.Eventually(t, func() bool {
		return checkStatus(client, "") == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStop_IsIdempotent(t *testing.T) {
	srv, err := NewServer(&flakyStore{}, config.TLSConfig{}, time.Hour)
	require.NoError(t, err)
	srv.Stop()
	srv.Stop()
}

func TestNewServer_TLSMissingFiles(t *testing.T) {
	_, err := NewServer(&flakyStore{}, config.TLSConfig{
		Enabled:  true,
		CertFile: "/nonexistent/cert.pem",
		KeyFile:  "/nonexistent/key.pem",
	}, time.Second)
	assert.Error(t, err)
}
