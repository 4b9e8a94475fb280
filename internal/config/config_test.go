package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "stdio", cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "mcp-pdf-boxes", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, ".env", cfg.EnvFile)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.PDFDirectory)

	opts, err := cfg.ExtractOptions()
	require.NoError(t, err)
	assert.Equal(t, boxes.DefaultOptions(), opts)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr bool
	}{
		{name: "valid config - stdio mode", modify: func(*Config) {}},
		{name: "valid config - server mode", modify: func(cfg *Config) { cfg.Mode = ModeServer }},
		{name: "valid config - extract mode", modify: func(cfg *Config) {
			cfg.Mode = ModeExtract
			cfg.Input = "form.pdf"
		}},
		{name: "invalid mode", modify: func(cfg *Config) { cfg.Mode = "grpc" }, wantErr: true},
		{name: "port too low", modify: func(cfg *Config) {
			cfg.Mode = ModeServer
			cfg.Port = 0
		}, wantErr: true},
		{name: "port ignored in stdio mode", modify: func(cfg *Config) { cfg.Port = 0 }},
		{name: "empty directory", modify: func(cfg *Config) { cfg.PDFDirectory = "" }, wantErr: true},
		{name: "zero max file size", modify: func(cfg *Config) { cfg.MaxFileSize = 0 }, wantErr: true},
		{name: "range does not fit code width", modify: func(cfg *Config) { cfg.RangeEnd = 100000 }, wantErr: true},
		{name: "non-positive tolerance", modify: func(cfg *Config) { cfg.YTolerance = 0 }, wantErr: true},
		{name: "code width too large", modify: func(cfg *Config) { cfg.CodeWidth = 12 }, wantErr: true},
		{name: "output format", modify: func(cfg *Config) { cfg.OutputFormat = "XLSX" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "pdfs")
	cfg := DefaultConfig()
	cfg.PDFDirectory = dir

	require.NoError(t, cfg.Validate())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigValidateLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.LogLevel = level
			assert.NoError(t, cfg.Validate())
		})
	}
	for _, level := range []string{"", "trace", "INFO", "warning"} {
		t.Run("invalid "+level, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.LogLevel = level
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigExportOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumberFormat = "en"
	cfg.Sheet = ""

	opts := cfg.ExportOptions()
	assert.Equal(t, "Casillas", opts.Sheet)
	assert.Equal(t, "Casilla", opts.CodeHeader)
	assert.Equal(t, "Valor", opts.ValueHeader)
	assert.Equal(t, boxes.FormatEN, opts.NumberFormat)
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "localhost"
	cfg.Port = 3000
	cfg.Password = "secret"

	assert.Equal(t, "localhost:3000", cfg.Address())
	assert.True(t, cfg.IsStdioMode())
	assert.False(t, cfg.IsServerMode())
	assert.False(t, cfg.IsExtractMode())
	assert.False(t, cfg.IsDebug())

	s := cfg.String()
	assert.Contains(t, s, "Mode: stdio")
	assert.Contains(t, s, "Range: 1501-2493")
	assert.NotContains(t, s, "secret")

	cfg.LogLevel = "debug"
	cfg.Mode = ModeServer
	assert.True(t, cfg.IsDebug())
	assert.True(t, cfg.IsServerMode())
}
