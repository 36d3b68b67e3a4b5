package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/nexus/internal/api"
	"github.com/erazemk/nexus/internal/config"
	"github.com/erazemk/nexus/internal/db"
	"github.com/erazemk/nexus/internal/imaging"
	"github.com/erazemk/nexus/internal/logging"
	"github.com/erazemk/nexus/internal/offline"
	"github.com/erazemk/nexus/internal/store"
	"github.com/erazemk/nexus/internal/tracker"
	"github.com/erazemk/nexus/internal/web"
)

const usage = `Usage: nexus [command] [flags]

Commands:
  serve                   run the server (default)
  import <file>           replace all state with a local-storage dump
  export                  write all state as a local-storage dump

Flags:
  -d, -db <path>          SQLite database path (default: nexus.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -v, -level <level>      log level: debug, info, warn, error (default: info)
  -c, -config <path>      config file (yaml, json or toml)
  -o, -out <path>         export destination (default: stdout)
  -h, -help               show this help and exit

Every setting can also be given as a NEXUS_* environment variable or in .env.
`

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"d": "db", "db": "db",
	"a": "addr", "addr": "addr",
	"l": "log", "log": "log",
	"v": "log_level", "level": "log_level",
}

type options struct {
	cfg  *config.Config
	out  string
	args []string
}

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var run func(*options) error
	switch cmd {
	case "serve":
		run = serve
	case "import":
		run = importDump
	case "export":
		run = exportDump
	case "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(1)
	}

	opts, err := parseFlags(cmd, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(cmd string, args []string) (*options, error) {
	fs := flag.NewFlagSet("nexus "+cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	var dbPath, addr, logPath, level, configPath, out string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")
	fs.StringVar(&level, "level", "", "")
	fs.StringVar(&level, "v", "", "")
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&out, "out", "", "")
	fs.StringVar(&out, "o", "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	overrides := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.String()
		}
	})

	cfg, err := config.Load(config.Options{
		EnvFile:    ".env",
		ConfigFile: configPath,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, err
	}
	return &options{cfg: cfg, out: out, args: fs.Args()}, nil
}

// setup opens the logger, the database and the tracker.
func setup(cfg *config.Config) (zerolog.Logger, *sql.DB, *tracker.Tracker, func(), error) {
	logger, closeLog, err := logging.New(logging.Config{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.Log})
	if err != nil {
		return logger, nil, nil, nil, err
	}

	database, err := db.Ready(cfg.DB)
	if err != nil {
		closeLog()
		return logger, nil, nil, nil, err
	}
	logger.Info().Str("path", cfg.DB).Msg("database ready")

	loc, err := cfg.Location()
	if err != nil {
		database.Close()
		closeLog()
		return logger, nil, nil, nil, err
	}

	tr := tracker.New(database, store.NewBroker(), logger, loc)
	cleanup := func() {
		database.Close()
		closeLog()
	}
	return logger, database, tr, cleanup, nil
}

func serve(opts *options) error {
	if len(opts.args) > 0 {
		return fmt.Errorf("unexpected argument: %s", opts.args[0])
	}
	cfg := opts.cfg

	logger, database, tr, cleanup, err := setup(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	icons, err := loadIcons(cfg.Icon)
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(tr)
	webRouter, err := web.NewRouter(tr, icons, logger)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	var fetcher offline.Fetcher = offline.HandlerFetcher{Handler: webRouter}
	if cfg.AssetOrigin != "" {
		fetcher = offline.HTTPFetcher{
			Client: &http.Client{Timeout: 15 * time.Second},
			Origin: cfg.AssetOrigin,
		}
	}

	cache := offline.New(database, cfg.CacheVersion, fetcher, logger)
	cache.Precache = web.PrecacheURLs(imaging.Sizes)
	cache.OfflinePage = web.OfflinePage

	ctx := context.Background()
	if _, err := cache.Install(ctx); err != nil {
		return err
	}
	if err := cache.Activate(ctx); err != nil {
		return err
	}

	// Combine: API routes take priority, the cached shell handles the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", cache.Handler(webRouter))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr, err)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	logger.Info().Str("addr", ln.Addr().String()).Str("cache", cfg.CacheVersion).Msg("server started")
	if err := runServer(server, ln, quit, logger); err != nil {
		return err
	}

	cache.Wait()
	logger.Info().Msg("server stopped, closing database")
	return nil
}

// runServer serves on ln until a signal arrives on quit. It returns only
// after Shutdown has drained in-flight requests, so callers may release
// what the handlers use.
func runServer(server *http.Server, ln net.Listener, quit <-chan os.Signal, logger zerolog.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig, ok := <-quit
		if ok {
			logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-done
	return nil
}

func loadIcons(path string) (map[int][]byte, error) {
	src := imaging.Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening icon: %w", err)
		}
		defer f.Close()

		src, err = imaging.Decode(f)
		if err != nil {
			return nil, err
		}
	}
	return imaging.Set(src)
}

func importDump(opts *options) error {
	if len(opts.args) != 1 {
		return errors.New("import needs exactly one file argument")
	}

	_, _, tr, cleanup, err := setup(opts.cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := os.Open(opts.args[0])
	if err != nil {
		return fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	s, err := tracker.DecodeDump(f)
	if err != nil {
		return err
	}
	if err := tr.Import(context.Background(), s); err != nil {
		return err
	}

	fmt.Printf("Imported %d inventory and %d shipped items.\n", s.Inventory.ItemCount(), s.Shipped.ItemCount())
	return nil
}

func exportDump(opts *options) error {
	if len(opts.args) > 0 {
		return fmt.Errorf("unexpected argument: %s", opts.args[0])
	}

	cfg := *opts.cfg
	if opts.out == "" {
		// Keep stdout clean for the dump; errors still reach stderr.
		cfg.LogLevel = "error"
	}

	_, _, tr, cleanup, err := setup(&cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	w := io.Writer(os.Stdout)
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.out, err)
		}
		defer f.Close()
		w = f
	}
	return tr.Export(context.Background(), w)
}
