package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/foundationauth/internal/api"
	"github.com/dmitrijs2005/foundationauth/internal/client/client"
	"github.com/dmitrijs2005/foundationauth/internal/client/config"
)

// Service is the account API surface the CLI drives. *client.GRPCClient
// satisfies it.
type Service interface {
	Register(ctx context.Context, username, email string, password []byte) (*api.User, error)
	Login(ctx context.Context, email string, password []byte) (*api.User, error)
	Logout()
	IsLoggedIn() bool
	VerifyEmail(ctx context.Context, token string) (string, error)
	ResendVerification(ctx context.Context, email string) (string, error)
	Profile(ctx context.Context) (*api.User, error)
	UpdateProfile(ctx context.Context, username, email string, newPassword []byte) (*api.User, error)
	DeleteAccount(ctx context.Context) error
	AdminPing(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

type App struct {
	config   *config.Config
	service  Service
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	svc, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(c, svc, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, svc Service, in io.Reader, out io.Writer) *App {
	return &App{config: c, service: svc, reader: bufio.NewReader(in), out: out}
}

func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.service.Close() }()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.service.IsLoggedIn()
}
