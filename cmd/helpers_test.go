package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/config"
)

// setTestConfig installs a config backed by a temp SQLite database and
// restores the previous value afterwards.
func setTestConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	cfg = &config.Config{
		Pipeline: config.DefaultPipeline(),
		Validate: config.ValidateConfig{PreviewLimit: 50, FastScanLimitBytes: 1 << 20},
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "history.db"),
		},
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "info", Format: "json"},
	}
	return cfg
}

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

// sampleInputs writes a small CRM and Google export that share one phone.
func sampleInputs(t *testing.T) (crm, google string) {
	t.Helper()
	dir := t.TempDir()
	crm = writeFile(t, dir, "crm.csv",
		"Nome;Telefone;Tags",
		"Ana Souza;(11) 98765-4321;vip",
		"Bruno;11912345678;",
	)
	google = writeFile(t, dir, "google.csv",
		"Name,Phone 1 - Value",
		"Ana,+55 11 98765-4321",
	)
	return crm, google
}
