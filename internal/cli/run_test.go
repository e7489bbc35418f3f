package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vvka-141/stagehand/pkg/stagehand"
)

func resetRunFlags() {
	runFlags = runFlagValues{timeout: 30 * time.Minute}
}

func writeProjectConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "stagehand.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestRunCmd_ArgsValidation(t *testing.T) {
	err := runCmd.Args(runCmd, []string{})
	if err == nil {
		t.Fatal("Expected error for missing input path")
	}
	exitCode := stagehand.ExitCodeForError(err)
	if exitCode != stagehand.ExitUsageError {
		t.Errorf("Expected exit code %d (usage), got %d for: %v", stagehand.ExitUsageError, exitCode, err)
	}
}

func TestRunCmd_ArgsValidation_TooMany(t *testing.T) {
	err := runCmd.Args(runCmd, []string{"a", "b"})
	if err == nil {
		t.Fatal("Expected error for too many args")
	}
}

func TestResolveDelimiter(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    rune
		wantErr bool
	}{
		{"empty uses default", "", '|', false},
		{"semicolon", ";", ';', false},
		{"tab", "\t", '\t', false},
		{"multibyte rune", "¦", '¦', false},
		{"two characters", "||", 0, true},
		{"word", "comma", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveDelimiter(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveDelimiter(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, stagehand.ErrInvalidConfig) {
					t.Errorf("error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("resolveDelimiter(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestBuildIngestConfig_FlagsOnly(t *testing.T) {
	resetRunFlags()
	t.Setenv("STAGEHAND_CONFIG", "")
	tempDir := t.TempDir()

	runFlags.stagingDB = "stg"
	runFlags.warehouseDB = "dwh"

	cfg, fileCfg, err := buildIngestConfig(runCmd, tempDir, false)
	if err != nil {
		t.Fatalf("buildIngestConfig() error = %v", err)
	}
	if fileCfg != nil {
		t.Error("expected no project config in empty directory")
	}

	if cfg.InputPath != tempDir {
		t.Errorf("InputPath = %q, want %q", cfg.InputPath, tempDir)
	}
	if cfg.StagingDatabase != "stg" || cfg.WarehouseDatabase != "dwh" {
		t.Errorf("databases = %q/%q", cfg.StagingDatabase, cfg.WarehouseDatabase)
	}
	if cfg.Delimiter != stagehand.DefaultDelimiter {
		t.Errorf("Delimiter = %q, want default", cfg.Delimiter)
	}
	if cfg.MarkerExtension != stagehand.DefaultMarkerExtension {
		t.Errorf("MarkerExtension = %q, want default", cfg.MarkerExtension)
	}
	if cfg.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v, want 30m", cfg.Timeout)
	}
}

func TestBuildIngestConfig_MissingDatabases(t *testing.T) {
	resetRunFlags()
	t.Setenv("STAGEHAND_CONFIG", "")
	tempDir := t.TempDir()

	_, _, err := buildIngestConfig(runCmd, tempDir, false)
	if err == nil {
		t.Fatal("expected validation error without target databases")
	}
	if stagehand.ExitCodeForError(err) != stagehand.ExitConfigError {
		t.Errorf("exit code = %d, want %d", stagehand.ExitCodeForError(err), stagehand.ExitConfigError)
	}
}

func TestBuildIngestConfig_ProjectFileSupplies(t *testing.T) {
	resetRunFlags()
	t.Setenv("STAGEHAND_CONFIG", "")
	tempDir := t.TempDir()
	writeProjectConfig(t, tempDir, `
connection:
  staging_database: file_stg
  warehouse_database: file_dwh
pipeline:
  delimiter: ";"
  marker_extension: .ready
  timeout: 5m
logging:
  verbose: true
`)

	cfg, fileCfg, err := buildIngestConfig(runCmd, tempDir, false)
	if err != nil {
		t.Fatalf("buildIngestConfig() error = %v", err)
	}
	if fileCfg == nil {
		t.Fatal("expected project config to load")
	}

	if cfg.StagingDatabase != "file_stg" || cfg.WarehouseDatabase != "file_dwh" {
		t.Errorf("databases = %q/%q", cfg.StagingDatabase, cfg.WarehouseDatabase)
	}
	if cfg.Delimiter != ';' {
		t.Errorf("Delimiter = %q, want ';'", cfg.Delimiter)
	}
	if cfg.MarkerExtension != ".ready" {
		t.Errorf("MarkerExtension = %q, want .ready", cfg.MarkerExtension)
	}
	if cfg.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v, want 5m from file", cfg.Timeout)
	}
	if !cfg.Verbose {
		t.Error("verbose from project file should carry into the config")
	}
}

func TestBuildIngestConfig_FlagsBeatProjectFile(t *testing.T) {
	resetRunFlags()
	t.Setenv("STAGEHAND_CONFIG", "")
	tempDir := t.TempDir()
	writeProjectConfig(t, tempDir, `
connection:
  staging_database: file_stg
  warehouse_database: file_dwh
pipeline:
  delimiter: ";"
  archive_dir: /from/file
`)

	runFlags.stagingDB = "flag_stg"
	runFlags.delimiter = ","
	runFlags.archiveDir = "/from/flag"

	cfg, _, err := buildIngestConfig(runCmd, tempDir, false)
	if err != nil {
		t.Fatalf("buildIngestConfig() error = %v", err)
	}

	if cfg.StagingDatabase != "flag_stg" {
		t.Errorf("StagingDatabase = %q, want flag value", cfg.StagingDatabase)
	}
	if cfg.WarehouseDatabase != "file_dwh" {
		t.Errorf("WarehouseDatabase = %q, want file value", cfg.WarehouseDatabase)
	}
	if cfg.Delimiter != ',' {
		t.Errorf("Delimiter = %q, want flag value", cfg.Delimiter)
	}
	if cfg.ArchivePath != "/from/flag" {
		t.Errorf("ArchivePath = %q, want flag value", cfg.ArchivePath)
	}
}

func TestBuildIngestConfig_BadDelimiterInFile(t *testing.T) {
	resetRunFlags()
	t.Setenv("STAGEHAND_CONFIG", "")
	tempDir := t.TempDir()
	writeProjectConfig(t, tempDir, `
connection:
  staging_database: stg
  warehouse_database: dwh
pipeline:
  delimiter: "||"
`)

	_, _, err := buildIngestConfig(runCmd, tempDir, false)
	if !errors.Is(err, stagehand.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}
