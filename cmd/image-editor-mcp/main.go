package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-editor-mcp/internal/config"
	"github.com/ironsheep/image-editor-mcp/internal/license"
	"github.com/ironsheep/image-editor-mcp/internal/pixel"
	"github.com/ironsheep/image-editor-mcp/internal/server"
	"github.com/ironsheep/image-editor-mcp/internal/workers"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("image-editor-mcp - MCP server for non-destructive image editing")
	fmt.Println()
	fmt.Println("Usage: image-editor-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <file>  YAML configuration file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Println("  IMAGE_EDITOR_CONFIG=<file>        Configuration file")
	fmt.Println("  IMAGE_EDITOR_LOG_LEVEL=debug      Log level")
	fmt.Println("  IMAGE_EDITOR_LICENSE_KEY=<key>    License key")
	fmt.Println("  IMAGE_EDITOR_DEV_MODE=true        Skip license checks (development only)")
	fmt.Println("  IMAGE_EDITOR_WORKERS=4            Run blur/sharpen/edge/pixelate on a worker pool")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	var configPath string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("image-editor-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a file argument")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown option: %s\n", args[i])
			os.Exit(2)
		}
	}

	// stdout is for MCP protocol
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logrus.SetLevel(cfg.Level())
	logrus.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("Image Editor MCP Server starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runner pixel.Runner
	if cfg.Workers.Offload {
		pool := workers.New(workers.Config{
			Workers:   cfg.Workers.Count,
			QueueSize: cfg.Workers.QueueSize,
			Timeout:   cfg.Workers.Timeout,
		})
		defer pool.Close()
		runner = pool
	}

	manager, closeStore, err := newLicenseManager(ctx, cfg.License)
	if err != nil {
		logrus.Fatalf("Failed to set up licensing: %v", err)
	}
	defer closeStore()

	srv := server.New(server.Config{
		Runner:       runner,
		License:      manager,
		FetchTimeout: cfg.Fetch.Timeout,
		Export: server.ExportDefaults{
			Format:  cfg.Export.Format,
			Quality: cfg.Export.Quality,
		},
	})
	defer srv.Close()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logrus.Fatalf("Server error: %v", err)
	}
}

// newLicenseManager builds the license manager and activates the configured
// key. A key that fails validation is logged, not fatal: exports are then
// watermarked until license_activate succeeds.
func newLicenseManager(ctx context.Context, lc config.LicenseConfig) (*license.Manager, func(), error) {
	closeStore := func() {}

	var store license.Store = license.NewMemoryStore()
	if lc.CachePath != "" {
		s, err := license.OpenSQLiteStore(lc.CachePath)
		if err != nil {
			return nil, nil, err
		}
		store = s
		closeStore = func() {
			if err := s.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close license cache")
			}
		}
	}

	policy := license.Policy{
		TTL:             lc.CacheTTL,
		Enabled:         *lc.CacheEnabled,
		OfflineFallback: *lc.OfflineFallback,
	}
	m := license.NewManager(
		license.NewHTTPValidator(lc.APIURL, lc.OrganizationID, lc.StoreURL),
		store,
		policy,
		license.WithDevMode(lc.DevMode),
	)

	if lc.Key != "" {
		if _, err := m.SetKey(ctx, lc.Key); err != nil {
			logrus.WithError(err).Warn("Configured license key was not accepted; exports will be watermarked")
		} else {
			logrus.Info("License activated")
		}
	}
	return m, closeStore, nil
}
