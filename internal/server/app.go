// Package server wires configuration, storage, the Misoca client and the
// services together, and runs the HTTP and gRPC servers or the batch jobs.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akihokurino/works-server/internal/cryptox"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/auth"
	"github.com/akihokurino/works-server/internal/server/config"
	"github.com/akihokurino/works-server/internal/server/graphql"
	"github.com/akihokurino/works-server/internal/server/httpserver"
	"github.com/akihokurino/works-server/internal/server/misoca"
	"github.com/akihokurino/works-server/internal/server/pdfstore"
	"github.com/akihokurino/works-server/internal/server/repositories/repomanager"
	"github.com/akihokurino/works-server/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/akihokurino/works-server/internal/server/grpc"
)

const tokenSealSalt = "works-server/misoca-refresh-token"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	rm     repomanager.RepositoryManager

	users      *services.UserService
	tokens     *services.TokenManager
	reconciler *services.Reconciler
	suppliers  *services.SupplierService
	invoices   *services.InvoiceService
}

// NewApp opens the database, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewDefault(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	sealer, err := cryptox.NewSealerFromPassphrase(c.TokenEncryptionKey, tokenSealSalt)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sealer init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager(sealer)
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := pdfstore.NewS3Store(ctx, pdfstore.Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pdf store init error: %w", err)
	}

	client := misoca.NewClient(misoca.Config{
		BaseURL:      c.MisocaBaseURL,
		ClientID:     c.MisocaClientID,
		ClientSecret: c.MisocaClientSecret,
		RedirectURI:  c.MisocaRedirectURI,
		Timeout:      c.MisocaTimeout,
	})

	tokens := services.NewTokenManager(db, rm, client, logger)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		rm:         rm,
		users:      services.NewUserService(db, rm, logger),
		tokens:     tokens,
		reconciler: services.NewReconciler(db, rm, tokens, client, c, logger),
		suppliers:  services.NewSupplierService(db, rm, tokens, client, logger),
		invoices:   services.NewInvoiceService(db, rm, tokens, client, store, c, logger),
	}, nil
}

func (app *App) Close() error {
	return app.db.Close()
}

// WithSignals returns a context cancelled on SIGINT, SIGTERM or SIGQUIT.
func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// Run serves GraphQL over HTTP and gRPC health until ctx is cancelled or
// either server fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	schema, err := graphql.NewSchema(graphql.NewResolver(app.users, app.tokens, app.reconciler, app.suppliers, app.invoices, app.logger))
	if err != nil {
		return fmt.Errorf("graphql schema: %w", err)
	}

	httpSrv := httpserver.NewServer(app.config, schema, app.db, app.rm.Invoices(app.db), app.logger)
	grpcSrv := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.db, app.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })
	g.Go(func() error { return grpcSrv.Run(ctx) })
	return g.Wait()
}

// SyncInvoices refreshes the invoices of every connected user.
func (app *App) SyncInvoices(ctx context.Context) error {
	return syncAll(ctx, app.users, app.reconciler, time.Now, app.logger.With("module", "batch"))
}

// IssueToken signs a bearer token for userID, for local use against the API.
func (app *App) IssueToken(userID string, validity time.Duration) (string, error) {
	return auth.GenerateToken(userID, []byte(app.config.SecretKey), validity, time.Now())
}
