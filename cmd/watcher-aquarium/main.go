// Watcher Aquarium - concurrent watcher supervisor with shared notifications
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/notifier"
	"github.com/supporttools/watcher-aquarium/pkg/supervisor"
	"github.com/supporttools/watcher-aquarium/pkg/types"
	"github.com/supporttools/watcher-aquarium/pkg/util"
	"github.com/supporttools/watcher-aquarium/pkg/watchers"

	// Import watcher packages to register them
	_ "github.com/supporttools/watcher-aquarium/pkg/watchers/example"
	_ "github.com/supporttools/watcher-aquarium/pkg/watchers/logfile"
	_ "github.com/supporttools/watcher-aquarium/pkg/watchers/network"
	_ "github.com/supporttools/watcher-aquarium/pkg/watchers/system"
)

// Build-time variables set by goreleaser or make
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Exit codes. Configuration problems get their own status so wrappers can
// tell a bad config apart from a runtime failure.
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("watcher-aquarium", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	verbose := fs.Bool("verbose", false, "Log to stdout in addition to the log file")
	fs.BoolVar(verbose, "v", false, "Shorthand for -verbose")
	version := fs.Bool("version", false, "Show version information and exit")

	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	if *version {
		printVersion()
		return exitOK
	}

	// Bootstrap logging with defaults so configuration errors are captured;
	// re-initialized from the loaded config below.
	var bootstrap types.Config
	bootstrap.ApplyDefaults()
	if err := logger.Initialize(bootstrap.Logging, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		return exitFatal
	}
	defer logger.Close()

	logger.Infof("Watcher Aquarium %s starting", Version)

	cfg, err := util.LoadConfig(*configPath)
	if err != nil {
		if errors.Is(err, util.ErrConfigNotFound) {
			logger.Errorf("Configuration file not found: %s", *configPath)
		} else {
			logger.WithError(err).Errorf("Failed to load configuration from %s", *configPath)
		}
		return exitConfig
	}
	logger.Infof("Configuration loaded from %s", *configPath)

	if err := logger.Initialize(cfg.Logging, *verbose); err != nil {
		logger.WithError(err).Error("Failed to reconfigure logging")
		return exitFatal
	}

	n, err := notifier.New(cfg.Notifier)
	if err != nil {
		logger.WithError(err).Error("Failed to create notifier")
		return exitConfig
	}

	units := watchers.Discover()
	logger.Infof("Discovered %d watcher(s): %v", len(units), watchers.Registered())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := supervisor.New(n, cfg.GracePeriod())
	if err := s.Run(ctx, units, cfg); err != nil {
		if errors.Is(err, supervisor.ErrNoWatchers) {
			// The supervisor never took ownership of the notifier here,
			// so the handle is closed on its behalf.
			logger.Error("No runnable watchers; nothing to supervise")
			if cerr := n.Close(); cerr != nil {
				logger.WithError(cerr).Warn("Failed to close notifier")
			}
			return exitFatal
		}
		logger.WithError(err).Error("Supervisor failed")
		return exitFatal
	}

	logger.Info("Watcher Aquarium stopped")
	return exitOK
}

func printVersion() {
	fmt.Printf("Watcher Aquarium %s\n", Version)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
