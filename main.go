// Command hextactics starts the hex tactics match server.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "usage" – prints the card usage summary recorded in the SQLite store
//
// Flags control host/port, content directory, session storage, debug logging,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/hextactics/api"
	"github.com/wricardo/hextactics/game/config"
	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/service"
	"github.com/wricardo/hextactics/game/session"
	"github.com/wricardo/hextactics/game/store"
	"github.com/wricardo/hextactics/transport/mcp"
	"github.com/wricardo/hextactics/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Hex Tactics Server"
)

const (
	storeFile   = "file"
	storeSQLite = "sqlite"
)

// Options holds the process configuration resolved from flags and environment.
type Options struct {
	Host         string
	Port         int
	ContentDir   string
	SessionsDir  string
	Store        string
	DBPath       string
	Debug        bool
	TickInterval time.Duration
	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

// Addr is the host:port the HTTP server binds to.
func (o Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

func optionsFrom(cmd *cli.Command) Options {
	return Options{
		Host:         cmd.String("host"),
		Port:         cmd.Int("port"),
		ContentDir:   cmd.String("content-dir"),
		SessionsDir:  cmd.String("sessions-dir"),
		Store:        cmd.String("store"),
		DBPath:       cmd.String("db-path"),
		Debug:        cmd.Bool("debug"),
		TickInterval: cmd.Duration("tick"),
		NgrokEnabled: cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
	}
}

// newRootCommand declares the CLI. Flags are shared by every mode.
func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "hextactics",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "content-dir", Value: "content", Usage: "Directory containing cards, decks, levels and campaigns", Sources: cli.EnvVars("CONTENT_DIR")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for file session storage", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "store", Value: storeFile, Usage: "Session storage backend (file or sqlite)", Sources: cli.EnvVars("STORE")},
			&cli.StringFlag{Name: "db-path", Value: "hextactics.db", Usage: "SQLite database path", Sources: cli.EnvVars("DB_PATH")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.DurationFlag{Name: "tick", Value: 50 * time.Millisecond, Usage: "Director tick interval for sessions with WebSocket clients", Sources: cli.EnvVars("TICK_INTERVAL")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  stdioAction,
			},
			{
				Name:   "usage",
				Usage:  "Print card usage recorded in the SQLite store",
				Action: usageAction,
			},
		},
		Action: serverAction,
	}
}

// main loads .env, parses flags, and runs the selected mode.
func main() {
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envErr == nil {
		fmt.Fprintln(os.Stderr, "Loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", envErr)
	}

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Output goes to stderr so stdio MCP
// traffic on stdout stays clean.
func newLogger(debug bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: debug,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}

// Services bundles everything a mode needs.
type Services struct {
	Game        service.GameService
	Sessions    *session.Manager
	Persistence session.SessionPersistence
	DB          *store.DB
}

// Close flushes sessions and releases the database.
func (s *Services) Close() error {
	err := s.Sessions.SaveAllSessions()
	if s.DB != nil {
		err = errors.Join(err, s.DB.Close())
	}
	return err
}

// initializeServices wires content, storage, session manager and the game
// service, then loads persisted sessions.
func initializeServices(opts Options, logger *zap.Logger) (*Services, error) {
	configManager, err := config.NewManager(opts.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	svcs := &Services{}
	managerOpts := []session.Option{session.WithLogger(logger)}

	switch opts.Store {
	case storeFile, "":
		persistence, err := session.NewFilePersistence(opts.SessionsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		svcs.Persistence = persistence
	case storeSQLite:
		db, err := store.Open(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		svcs.DB = db
		svcs.Persistence = session.NewSQLPersistence(db)
		managerOpts = append(managerOpts, session.WithRecorders(func(id string) engine.UsageRecorder {
			return db.Recorder(id, logger)
		}))
	default:
		return nil, fmt.Errorf("unknown store %q (use %s or %s)", opts.Store, storeFile, storeSQLite)
	}

	svcs.Sessions = session.NewManagerWithPersistence(configManager, svcs.Persistence, managerOpts...)
	if err := svcs.Sessions.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", zap.Error(err))
	}

	svcs.Game = service.NewGameService(svcs.Sessions, configManager, logger)
	return svcs, nil
}

func setup(cmd *cli.Command) (Options, *zap.Logger, *Services, error) {
	opts := optionsFrom(cmd)
	logger, err := newLogger(opts.Debug)
	if err != nil {
		return opts, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	svcs, err := initializeServices(opts, logger)
	if err != nil {
		return opts, logger, nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return opts, logger, svcs, nil
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	opts, logger, svcs, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer func() {
		if err := svcs.Close(); err != nil {
			logger.Warn("shutdown flush failed", zap.Error(err))
		}
	}()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "server"))
	return runHTTPServer(ctx, opts, svcs, logger)
}

func stdioAction(ctx context.Context, cmd *cli.Command) error {
	opts, logger, svcs, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer func() {
		if err := svcs.Close(); err != nil {
			logger.Warn("shutdown flush failed", zap.Error(err))
		}
	}()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "stdio-mcp"))
	return runStdioMCPWithInternalServer(ctx, opts, svcs, logger)
}

func usageAction(ctx context.Context, cmd *cli.Command) error {
	db, err := store.Open(cmd.String("db-path"))
	if err != nil {
		return err
	}
	defer db.Close()
	return printUsage(cmd.Writer, db)
}

// printUsage writes the card usage summary as a table.
func printUsage(w io.Writer, db *store.DB) error {
	if w == nil {
		w = os.Stdout
	}
	counts, err := db.UsageSummary()
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}
	if len(counts) == 0 {
		fmt.Fprintln(w, "No card usage recorded.")
		return nil
	}
	fmt.Fprintf(w, "%-24s %-10s %s\n", "CARD", "ACTION", "COUNT")
	for _, c := range counts {
		fmt.Fprintf(w, "%-24s %-10s %d\n", c.CardID, c.Action, c.Count)
	}
	return nil
}

// mcpHandler serves single JSON-RPC messages against the MCP server.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts Options, svcs *Services, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	apiServer := api.NewServer(svcs.Game, hub, logger.Named("api"))
	go apiServer.RunTicker(ctx, opts.TickInterval)

	addr := opts.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go sessionCleanupRoutine(ctx, svcs.Sessions, logger)
	if fp, ok := svcs.Persistence.(*session.FilePersistence); ok {
		go filesystemSyncRoutine(ctx, svcs.Sessions, fp, logger)
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, opts, mainRouter, logger)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
		logger.Error("HTTP server failed", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(shutdownErr))
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx ends.
func runNgrok(ctx context.Context, opts Options, handler http.Handler, logger *zap.Logger) {
	if opts.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		logger.Info("using custom ngrok domain", zap.String("domain", opts.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("api", ngrokURL+"/api"),
		zap.String("ws", ngrokURL+"/ws?session=<session_id>"),
		zap.String("mcp", ngrokURL+"/mcp"))

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger *zap.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("count", removed))
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory whose files were deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, logger *zap.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphans(manager, persistence, logger)
		}
	}
}

// pruneOrphans removes in-memory sessions missing from persistence and
// returns how many were removed.
func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence, logger *zap.Logger) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			logger.Info("pruned session from memory (file deleted)", zap.String("session", s.ID))
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured address; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, opts Options, svcs *Services, logger *zap.Logger) error {
	externalURL := fmt.Sprintf("http://%s", opts.Addr())
	logger.Info("checking for external API server", zap.String("url", externalURL))

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logger.Info("external API server found, using it for MCP")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		logger.Info("starting internal HTTP server for MCP stdio", zap.String("addr", internalAddr))

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		hub := websocket.NewHub(logger.Named("ws"))
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServer(svcs.Game, hub, logger.Named("api"))}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
