package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/api"
	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startBufServer(t *testing.T, accounts Accounts) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	s := NewGRPCServer("bufnet", logging.Nop{}, accounts)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return conn
}

func bearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, common.BearerPrefix+token)
}

func TestServer_RoundTrip(t *testing.T) {
	fake := &fakeAccounts{}
	conn := startBufServer(t, fake)
	c := api.NewClient(conn)
	ctx := context.Background()

	reg, err := c.Register(ctx, &api.RegisterRequest{Username: "alice", Email: "alice@x.com", Password: "P@ssw0rd1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", reg.User.ID)
	assert.Equal(t, "alice@x.com", fake.gotRegister.Email)
	assert.Equal(t, "P@ssw0rd1", fake.gotRegister.Password)

	login, err := c.Login(ctx, &api.LoginRequest{Email: "alice@x.com", Password: "P@ssw0rd1"})
	require.NoError(t, err)
	assert.Equal(t, "user-token", login.Token)
	assert.True(t, login.ExpiresAt.Equal(created.Add(time.Hour)))

	v, err := c.VerifyEmail(ctx, &api.VerifyEmailRequest{Token: "abc"})
	require.NoError(t, err)
	assert.NotEmpty(t, v.Message)
	assert.Equal(t, "abc", fake.gotVerify)

	_, err = c.ResendVerification(ctx, &api.ResendVerificationRequest{Email: "alice@x.com"})
	require.NoError(t, err)

	prof, err := c.GetProfile(bearer(ctx, login.Token), &api.GetProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, "u-1", prof.User.ID)
	assert.Equal(t, "alice", prof.User.Username)

	upd, err := c.UpdateProfile(bearer(ctx, login.Token), &api.UpdateProfileRequest{Username: "alice2"})
	require.NoError(t, err)
	assert.Equal(t, "alice2", upd.User.Username)
	assert.Equal(t, "u-1", fake.gotUpdateID)

	_, err = c.DeleteAccount(bearer(ctx, login.Token), &api.DeleteAccountRequest{})
	require.NoError(t, err)
	assert.Equal(t, "u-1", fake.gotDeleteID)
}

func TestServer_ProtectedWithoutToken(t *testing.T) {
	conn := startBufServer(t, &fakeAccounts{})
	c := api.NewClient(conn)

	_, err := c.GetProfile(context.Background(), &api.GetProfileRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.DeleteAccount(bearer(context.Background(), "forged"), &api.DeleteAccountRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_AdminPing(t *testing.T) {
	conn := startBufServer(t, &fakeAccounts{})
	c := api.NewClient(conn)
	ctx := context.Background()

	_, err := c.AdminPing(bearer(ctx, "user-token"), &api.AdminPingRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	resp, err := c.AdminPing(bearer(ctx, "admin-token"), &api.AdminPingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Admin root!", resp.Message)
}

func TestServer_ErrorMapping(t *testing.T) {
	fake := &fakeAccounts{
		registerErr: common.ErrEmailTaken,
		loginErr:    common.ErrInvalidCredentials,
		verifyErr:   common.ErrVerificationTokenExpired,
		resendErr:   errors.New("db error: boom"),
		updateErr:   common.ErrUsernameTaken,
	}
	conn := startBufServer(t, fake)
	c := api.NewClient(conn)
	ctx := context.Background()

	_, err := c.Register(ctx, &api.RegisterRequest{Username: "bob", Email: "alice@x.com", Password: "whatever1"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = c.Login(ctx, &api.LoginRequest{Email: "alice@x.com", Password: "wrong"})
	st := status.Convert(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "invalid credentials", st.Message())

	_, err = c.VerifyEmail(ctx, &api.VerifyEmailRequest{Token: "old"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = c.ResendVerification(ctx, &api.ResendVerificationRequest{Email: "alice@x.com"})
	st = status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())

	_, err = c.UpdateProfile(bearer(ctx, "user-token"), &api.UpdateProfileRequest{Username: "taken"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestServer_Health(t *testing.T) {
	conn := startBufServer(t, &fakeAccounts{})
	hc := healthpb.NewHealthClient(conn)

	resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: api.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:0", logging.Nop{}, &fakeAccounts{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_BadAddress(t *testing.T) {
	s := NewGRPCServer("bad::addr", logging.Nop{}, &fakeAccounts{})
	err := s.Run(context.Background())
	assert.Error(t, err)
}
