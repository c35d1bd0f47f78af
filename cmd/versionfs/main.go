package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"versionfs/internal/config"
	"versionfs/internal/fs"
	"versionfs/internal/logging"
	"versionfs/internal/version"

	"bazil.org/fuse"
	"golang.org/x/sync/errgroup"
)

var (
	logger = logging.GetLogger()
)

func main() {
	cfg, err := config.Parse(filepath.Base(os.Args[0]), os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logger.Error("Invalid arguments: %v", err)
		os.Exit(2)
	}

	logger.SetLevel(cfg.LogLevel(logger.Level()))
	if logger.Enabled(logging.LevelTrace) {
		fuse.Debug = func(msg interface{}) {
			logger.Trace("fuse: %v", msg)
		}
	}

	logger.Info("Starting versionfs...")
	logger.Debug("Mount point: %s", cfg.MountPoint)
	logger.Debug("Target: %q", cfg.Target)
	logger.Debug("Target directory: %s", cfg.TargetDir)

	// Failures up to here happen before anything is mounted and are fatal.
	versions, err := version.NewManager(cfg.VersionConfig())
	if err != nil {
		logger.Error("Failed to prepare snapshot store: %v", err)
		os.Exit(1)
	}
	if err := versions.Initialize(); err != nil {
		logger.Error("Failed to create initial snapshot: %v", err)
		os.Exit(1)
	}

	vfs := fs.NewVersionFS(versions)

	var mountOpts []fuse.MountOption
	if cfg.AllowOther {
		mountOpts = append(mountOpts, fuse.AllowOther())
	}
	if err := vfs.Mount(cfg.MountPoint, mountOpts...); err != nil {
		logger.Error("Mount failed: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return vfs.Serve()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		return vfs.Unmount(cfg.MountPoint)
	})

	logger.Info("Filesystem mounted and ready")

	if err := g.Wait(); err != nil {
		logger.Error("FUSE server error: %v", err)
		os.Exit(1)
	}
	logger.Info("Clean shutdown complete (last version %d)", versions.Version())
}
