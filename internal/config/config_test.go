package config

import (
	"io"
	"os"
	"strings"
	"testing"

	"versionfs/internal/logging"
	"versionfs/internal/version"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
)

func clearOwnerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PUID", "")
	t.Setenv("PGID", "")
}

func TestParse(t *testing.T) {
	clearOwnerEnv(t)

	cfg, err := Parse("versionfs", []string{"-t", "notes.txt", "-o", "/tmp/versions/", "-resume", "/mnt/notes"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := &Config{
		MountPoint: "/mnt/notes",
		Target:     "notes.txt",
		TargetDir:  "/tmp/versions",
		Resume:     true,
		Owner: version.Owner{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}

	vc := cfg.VersionConfig()
	if vc.Name != "notes.txt" || vc.Dir != "/tmp/versions" || !vc.Resume {
		t.Errorf("Unexpected version config: %+v", vc)
	}
}

func TestParseLongFlags(t *testing.T) {
	clearOwnerEnv(t)

	cfg, err := Parse("versionfs", []string{"-target", "a", "-target-dir", "store", "-allow-other", "-verbose", "mnt"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Target != "a" || cfg.TargetDir != "store" || cfg.MountPoint != "mnt" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if !cfg.AllowOther || !cfg.Verbose {
		t.Errorf("Expected allow-other and verbose to be set: %+v", cfg)
	}
	if got := cfg.LogLevel(logging.LevelInfo); got != logging.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", got)
	}
	if got := cfg.LogLevel(logging.LevelTrace); got != logging.LevelTrace {
		t.Errorf("LogLevel = %v, want TRACE to be kept", got)
	}
}

func TestParseReportsAllMissingValues(t *testing.T) {
	clearOwnerEnv(t)

	_, err := Parse("versionfs", nil, io.Discard)
	if err == nil {
		t.Fatal("Expected an error for empty arguments")
	}

	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("Expected *multierror.Error, got %T", err)
	}
	if len(merr.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d: %v", len(merr.Errors), err)
	}
}

func TestParseRejectsBadTargetName(t *testing.T) {
	clearOwnerEnv(t)

	_, err := Parse("versionfs", []string{"-t", "a/b", "-o", "store", "mnt"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "path separator") {
		t.Errorf("Expected path separator error, got %v", err)
	}
}

func TestParseRejectsExtraArguments(t *testing.T) {
	clearOwnerEnv(t)

	if _, err := Parse("versionfs", []string{"-t", "a", "-o", "store", "mnt", "extra"}, io.Discard); err == nil {
		t.Error("Expected an error for two positional arguments")
	}
}

func TestOwnerFromEnv(t *testing.T) {
	env := map[string]string{"PUID": "1000", "PGID": "100"}
	owner, err := OwnerFromEnv(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("OwnerFromEnv failed: %v", err)
	}
	if diff := cmp.Diff(version.Owner{Uid: 1000, Gid: 100}, owner); diff != "" {
		t.Errorf("unexpected owner (-want +got):\n%s", diff)
	}

	env = map[string]string{"PUID": "nope", "PGID": "-1"}
	if _, err := OwnerFromEnv(func(k string) string { return env[k] }); err == nil {
		t.Error("Expected error for malformed PUID/PGID")
	} else if merr, ok := err.(*multierror.Error); !ok || len(merr.Errors) != 2 {
		t.Errorf("Expected two aggregated errors, got %v", err)
	}
}
