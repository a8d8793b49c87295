package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"umclient/internal/client/api"
	"umclient/internal/client/config"
	"umclient/internal/client/session"
	"umclient/internal/client/storage"
	"umclient/internal/logging"
	"umclient/internal/models"
)

// backend is the slice of the API client the commands use. Tests substitute
// a fake.
type backend interface {
	Login(ctx context.Context, email, password, deviceID, deviceName string) (models.LoginResponse, error)
	Logout(ctx context.Context, allDevices bool) error
	Me(ctx context.Context) (models.User, error)
	ChangePassword(ctx context.Context, current, newPassword string) error
	ListUsers(ctx context.Context, p api.ListUsersParams) (models.UserList, error)
	Notifications(ctx context.Context, unreadOnly bool, page, pageSize int) (models.NotificationList, error)
	MarkAllNotificationsRead(ctx context.Context) (int, error)
	Sessions(ctx context.Context) (models.SessionList, error)
	RevokeSession(ctx context.Context, id string) error
	RevokeAllSessions(ctx context.Context, exceptCurrent bool) error
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
}

// App wires the credential store, the API client and the terminal together.
type App struct {
	config *config.Config
	store  *session.Store
	api    backend
	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds the App from config: a file persister (encrypted when a
// passphrase is configured), the session store, and the API client reading
// tokens from that store.
func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.Default())

	var persister session.Persister
	if c.Passphrase != "" {
		persister = storage.NewEncrypted(c.StoragePath, []byte(c.Passphrase))
	} else {
		persister = storage.NewFile(c.StoragePath)
	}

	store := session.New(persister, session.NoopMirror{}, logger)

	apiClient := api.New(c.ServerEndpointAddr, store,
		api.WithTimeout(c.RequestTimeout),
		api.WithLogger(logger),
	)

	return &App{
		config: c,
		store:  store,
		api:    apiClient,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

// Run hydrates the session from disk and enters the REPL.
func (a *App) Run(ctx context.Context) {
	if err := a.store.Hydrate(ctx); err != nil {
		a.printErr("cannot restore session: %v", err)
	}

	a.println(titleStyle.Render("User Management CLI") + mutedStyle.Render("  (type 'help' for commands)"))
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.store.IsAuthenticated()
}

func (a *App) status() string {
	snap := a.store.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil {
		return ""
	}
	return "(" + snap.User.DisplayName() + ")"
}
