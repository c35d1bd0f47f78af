// Package config turns command-line flags and environment variables into
// the settings versionfs runs with.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"versionfs/internal/logging"
	"versionfs/internal/version"

	"github.com/hashicorp/go-multierror"
)

// Config holds everything needed to mount one versioned file.
type Config struct {
	MountPoint string
	Target     string
	TargetDir  string
	Resume     bool
	AllowOther bool
	Verbose    bool
	Owner      version.Owner
}

// Parse reads flags from args (without the program name). Usage goes to
// output.
func Parse(name string, args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [flags] MOUNT_POINT\n\n", name)
		flags.PrintDefaults()
	}

	flags.StringVar(&cfg.Target, "target", "", "The target file to be versioned (required)")
	flags.StringVar(&cfg.Target, "t", "", "Shorthand for -target")
	flags.StringVar(&cfg.TargetDir, "target-dir", "", "Where the versions of the target file are saved (required)")
	flags.StringVar(&cfg.TargetDir, "o", "", "Shorthand for -target-dir")
	flags.BoolVar(&cfg.Resume, "resume", false, "Continue numbering from the highest version already in the target directory")
	flags.BoolVar(&cfg.AllowOther, "allow-other", false, "Allow other users to access the mount")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	switch flags.NArg() {
	case 0:
	case 1:
		cfg.MountPoint = flags.Arg(0)
	default:
		return nil, fmt.Errorf("expected one mount point, got %d arguments", flags.NArg())
	}

	owner, err := OwnerFromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.Owner = owner

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.MountPoint = filepath.Clean(cfg.MountPoint)
	cfg.TargetDir = filepath.Clean(cfg.TargetDir)
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.MountPoint == "" {
		errs = multierror.Append(errs, errors.New("mount point is required"))
	}
	if c.Target == "" {
		errs = multierror.Append(errs, errors.New("-target is required"))
	} else if err := version.ValidateName(c.Target); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.TargetDir == "" {
		errs = multierror.Append(errs, errors.New("-target-dir is required"))
	}

	return errs.ErrorOrNil()
}

// OwnerFromEnv returns the uid/gid reported on every node: the process's
// own, overridden by PUID and PGID when set.
func OwnerFromEnv(getenv func(string) string) (version.Owner, error) {
	owner := version.Owner{
		Uid: safeIntToUint32(os.Getuid()),
		Gid: safeIntToUint32(os.Getgid()),
	}

	var errs *multierror.Error
	if puid := getenv("PUID"); puid != "" {
		if v, err := strconv.ParseUint(puid, 10, 32); err == nil {
			owner.Uid = uint32(v)
		} else {
			errs = multierror.Append(errs, fmt.Errorf("invalid PUID %q: %w", puid, err))
		}
	}
	if pgid := getenv("PGID"); pgid != "" {
		if v, err := strconv.ParseUint(pgid, 10, 32); err == nil {
			owner.Gid = uint32(v)
		} else {
			errs = multierror.Append(errs, fmt.Errorf("invalid PGID %q: %w", pgid, err))
		}
	}

	return owner, errs.ErrorOrNil()
}

// LogLevel returns the level implied by the flags, or the logger's
// current level when no flag changes it.
func (c *Config) LogLevel(current logging.LogLevel) logging.LogLevel {
	if c.Verbose && current < logging.LevelDebug {
		return logging.LevelDebug
	}
	return current
}

// VersionConfig returns the version manager settings.
func (c *Config) VersionConfig() version.Config {
	return version.Config{
		Dir:    c.TargetDir,
		Name:   c.Target,
		Owner:  c.Owner,
		Resume: c.Resume,
	}
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	return uint32(n)
}
