package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-boxes/internal/boxes"
	"github.com/a3tai/mcp-pdf-boxes/internal/export"
)

const (
	// Mode constants
	ModeStdio   = "stdio"
	ModeServer  = "server"
	ModeExtract = "extract"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultEnvFile     = ".env"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "MCP_PDF"
)

// ErrVersionRequested is returned by LoadFromFlags when a version flag is present
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the PDF boxes server
type Config struct {
	// Server configuration
	Mode string // "stdio", "server" or "extract"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes
	Password     string

	// Extraction defaults
	RangeStart   int
	RangeEnd     int
	YTolerance   float64
	NumberFormat string
	CodeWidth    int
	Assignment   string

	// Extract mode and export
	Input        string
	Output       string
	OutputFormat string
	Sheet        string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	EnvFile    string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	defaults := boxes.DefaultOptions()
	return &Config{
		Mode:         ModeStdio, // Default to stdio mode for MCP compatibility
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		MaxFileSize:  DefaultMaxFileSize,
		RangeStart:   defaults.Range.Start,
		RangeEnd:     defaults.Range.End,
		YTolerance:   defaults.YTolerance,
		NumberFormat: defaults.Format.Name,
		CodeWidth:    defaults.CodeWidth,
		Assignment:   string(defaults.Assignment),
		Sheet:        export.DefaultSheet,
		Version:      "1.0.0",
		ServerName:   "mcp-pdf-boxes",
		LogLevel:     DefaultLogLevel,
		EnvFile:      DefaultEnvFile,
	}
}

// LoadFromFlags parses command line flags, the .env file and the environment
// and returns a validated configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	// Viper reads the environment lazily, so values from the .env file are
	// visible as long as it is loaded before the config is populated.
	if err := loadEnvFile(viper.GetString("env-file"), pflag.CommandLine.Changed("env-file")); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix; range-start is read from MCP_PDF_RANGE_START
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("password", cfg.Password)
	viper.SetDefault("range-start", cfg.RangeStart)
	viper.SetDefault("range-end", cfg.RangeEnd)
	viper.SetDefault("y-tolerance", cfg.YTolerance)
	viper.SetDefault("number-format", cfg.NumberFormat)
	viper.SetDefault("code-width", cfg.CodeWidth)
	viper.SetDefault("assignment", cfg.Assignment)
	viper.SetDefault("input", cfg.Input)
	viper.SetDefault("output", cfg.Output)
	viper.SetDefault("output-format", cfg.OutputFormat)
	viper.SetDefault("sheet", cfg.Sheet)
	viper.SetDefault("env-file", cfg.EnvFile)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode,
		"Run mode: 'stdio' for MCP standard I/O, 'server' for the HTTP API, 'extract' for a one-shot export")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("password", cfg.Password, "Password for encrypted PDF files")

	pflag.Int("range-start", cfg.RangeStart, "First box code of the table")
	pflag.Int("range-end", cfg.RangeEnd, "Last box code of the table")
	pflag.Float64("y-tolerance", cfg.YTolerance, "Maximum vertical offset between a code and its amount")
	pflag.String("number-format", cfg.NumberFormat,
		"Amount format: "+strings.Join(boxes.NumberFormatNames(), ", "))
	pflag.Int("code-width", cfg.CodeWidth, "Number of digits in a printed box code")
	pflag.String("assignment", cfg.Assignment, "Amount assignment: 'nearest' or 'exclusive'")

	pflag.String("input", cfg.Input, "PDF file to read (extract mode)")
	pflag.String("output", cfg.Output, "Output file; format from extension unless --output-format is set (extract mode)")
	pflag.String("output-format", cfg.OutputFormat, "Output format: xlsx, csv or json")
	pflag.String("sheet", cfg.Sheet, "Worksheet name for xlsx output")
	pflag.String("env-file", cfg.EnvFile, "Environment file loaded before reading MCP_PDF_* variables")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxfilesize", "password",
		"range-start", "range-end", "y-tolerance", "number-format", "code-width", "assignment",
		"input", "output", "output-format", "sheet", "env-file",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Boxes - reads numbered form boxes and their amounts from PDF files\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # HTTP API on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=extract --input=form.pdf --output=boxes.xlsx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from the --env-file):\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MODE           Run mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_HOST           Server host\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_PORT           Server port\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_DIR            PDF directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_LOGLEVEL       Log level\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_MAXFILESIZE    Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_RANGE_START    First box code\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_RANGE_END      Last box code\n")
		fmt.Fprintf(os.Stderr, "  MCP_PDF_NUMBER_FORMAT  Amount format\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is only an error when it
// was asked for explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("cannot load env file %s: %w", path, err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Password = viper.GetString("password")
	cfg.RangeStart = viper.GetInt("range-start")
	cfg.RangeEnd = viper.GetInt("range-end")
	cfg.YTolerance = viper.GetFloat64("y-tolerance")
	cfg.NumberFormat = viper.GetString("number-format")
	cfg.CodeWidth = viper.GetInt("code-width")
	cfg.Assignment = viper.GetString("assignment")
	cfg.Input = viper.GetString("input")
	cfg.Output = viper.GetString("output")
	cfg.OutputFormat = viper.GetString("output-format")
	cfg.Sheet = viper.GetString("sheet")
	cfg.EnvFile = viper.GetString("env-file")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer && c.Mode != ModeExtract {
		return errors.New("mode must be one of 'stdio', 'server' or 'extract'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if _, err := c.ExtractOptions(); err != nil {
		return fmt.Errorf("invalid extraction options: %w", err)
	}

	if c.OutputFormat != "" {
		if _, err := export.ParseFormat(c.OutputFormat); err != nil {
			return err
		}
	}

	if c.Mode == ModeExtract && c.Input == "" {
		return errors.New("extract mode requires --input")
	}

	return nil
}

// ExtractOptions returns the configured extraction defaults
func (c *Config) ExtractOptions() (boxes.Options, error) {
	format, err := boxes.LookupNumberFormat(c.NumberFormat)
	if err != nil {
		return boxes.Options{}, err
	}
	opts := boxes.Options{
		Range:      boxes.Range{Start: c.RangeStart, End: c.RangeEnd},
		YTolerance: c.YTolerance,
		Format:     format,
		CodeWidth:  c.CodeWidth,
		Assignment: boxes.Assignment(c.Assignment),
	}
	if err := opts.Validate(); err != nil {
		return boxes.Options{}, err
	}
	return opts, nil
}

// ExportOptions returns the configured export options
func (c *Config) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	if c.Sheet != "" {
		opts.Sheet = c.Sheet
	}
	if format, err := boxes.LookupNumberFormat(c.NumberFormat); err == nil {
		opts.NumberFormat = format
	}
	return opts
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The password is not included.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"Range: %d-%d, YTolerance: %g, NumberFormat: %s, Assignment: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.RangeStart, c.RangeEnd, c.YTolerance, c.NumberFormat, c.Assignment)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsExtractMode returns true for a one-shot extraction run
func (c *Config) IsExtractMode() bool {
	return c.Mode == ModeExtract
}
