package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/microblog/internal/client/client"
	"github.com/dmitrijs2005/microblog/internal/client/config"
	"github.com/dmitrijs2005/microblog/internal/client/repositories/metadata"
	gs "github.com/dmitrijs2005/microblog/internal/server/grpc"
)

// apiClient is what the commands need from client.GRPCClient.
type apiClient interface {
	UserID() string
	Restore(ctx context.Context) (bool, error)
	SignUp(ctx context.Context, name, email string, password, confirmation []byte, remember bool) error
	Login(ctx context.Context, email string, password []byte, remember bool) error
	Logout(ctx context.Context) error
	Forget(ctx context.Context) error
	Profile(ctx context.Context, userID string) (*gs.UserResponse, error)
	Users(ctx context.Context, page int) ([]gs.User, error)
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	Following(ctx context.Context, userID string, page int) ([]gs.User, error)
	Followers(ctx context.Context, userID string, page int) ([]gs.User, error)
	Post(ctx context.Context, content string) (*gs.Micropost, error)
	DeletePost(ctx context.Context, id int64) error
	Posts(ctx context.Context, userID string, page int) ([]gs.Micropost, error)
	Feed(ctx context.Context, page int) ([]gs.Micropost, error)
	Close() error
}

type App struct {
	config   *config.Config
	api      apiClient
	reader   *bufio.Reader
	out      io.Writer
	userName string
	db       *sql.DB
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	var (
		db    *sql.DB
		store metadata.Repository
		err   error
	)
	if c.StatePath != "" {
		db, store, err = client.InitDatabase(ctx, c.StatePath)
		if err != nil {
			return nil, err
		}
	}

	apiClient, err := client.NewMicroblogClient(c.ServerEndpointAddr, c.RequestTimeout, store)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	return &App{
		config: c,
		api:    apiClient,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		db:     db,
	}, nil
}

// restoreSession picks up a session remembered by an earlier run.
func (a *App) restoreSession(ctx context.Context) {
	ok, err := a.api.Restore(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Could not restore session: %v\n", err)
		return
	}
	if !ok {
		return
	}

	a.userName = a.api.UserID()
	if p, err := a.api.Profile(ctx, a.api.UserID()); err == nil && p != nil {
		a.userName = p.User.Email
	}
	fmt.Fprintf(a.out, "Welcome back, %s\n", a.userName)
}

func (a *App) isLoggedIn() bool {
	return a.api.UserID() != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Microblog CLI (type 'help' for commands)")
	a.restoreSession(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)

	if err := a.api.Close(); err != nil {
		log.Printf("error: %v", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}
}
