package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BaiduAV/DividaFacil/internal/auth"
	"github.com/BaiduAV/DividaFacil/internal/metrics"
	"github.com/BaiduAV/DividaFacil/internal/middleware"
	"github.com/BaiduAV/DividaFacil/internal/storage/sqlite"
	"github.com/BaiduAV/DividaFacil/pkg/api"
	"github.com/BaiduAV/DividaFacil/pkg/logging"
)

// testEnv is a running server backed by a temporary database.
type testEnv struct {
	store    *sqlite.SQLiteStore
	ledger   *Ledger
	metrics  *metrics.Metrics
	auth     *api.AuthServiceClient
	groups   *api.GroupServiceClient
	expenses *api.ExpenseServiceClient
}

type testUser struct {
	ID    string
	Token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := logging.New(io.Discard, slog.LevelDebug)
	m := metrics.New(prometheus.NewRegistry())
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	ledger := NewLedger(store, m, 2)

	protected := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(logger),
	)
	public := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(logger),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(NewAuthService(authenticator, store, jwtManager, logger), public))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store, ledger), protected))
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store, ledger), protected))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:    store,
		ledger:   ledger,
		metrics:  m,
		auth:     api.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:   api.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: api.NewExpenseServiceClient(http.DefaultClient, server.URL),
	}
}

// register creates an account named after name and returns its ID and token.
func (e *testEnv) register(t *testing.T, name string) testUser {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       strings.ToLower(name) + "@example.com",
		DisplayName: name,
		Password:    "password123",
	}))
	require.NoError(t, err)
	return testUser{ID: resp.Msg.User.ID, Token: resp.Msg.Token}
}

// createGroup creates a group owned by owner containing the other users.
func (e *testEnv) createGroup(t *testing.T, owner testUser, others ...testUser) *api.Group {
	t.Helper()
	ids := make([]string, len(others))
	for i, u := range others {
		ids[i] = u.ID
	}
	resp, err := e.groups.CreateGroup(context.Background(), as(owner, &api.CreateGroupRequest{
		Name:    "Trip",
		Members: ids,
	}))
	require.NoError(t, err)
	return resp.Msg.Group
}

// as builds a request authenticated as u.
func as[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.Token)
	return req
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}
