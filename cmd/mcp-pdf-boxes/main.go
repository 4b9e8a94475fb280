package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-boxes/internal/config"
	"github.com/a3tai/mcp-pdf-boxes/internal/export"
	"github.com/a3tai/mcp-pdf-boxes/internal/httpapi"
	"github.com/a3tai/mcp-pdf-boxes/internal/logging"
	"github.com/a3tai/mcp-pdf-boxes/internal/mcp"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	// Check for version flag before parsing other flags
	if hasVersionFlag(os.Args[1:]) {
		printVersion(os.Stdout)
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		if errors.Is(err, config.ErrVersionRequested) {
			printVersion(os.Stdout)
			return
		}
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := logging.New(cfg)
	if cfg.IsDebug() {
		logger.WithField("config", cfg.String()).Debug("starting with configuration")
	}

	pdfService, err := newService(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to create PDF service")
		fmt.Fprintf(os.Stderr, "Failed to create PDF service: %v\n", err)
		os.Exit(1)
	}

	// Set up context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	switch {
	case cfg.IsExtractMode():
		err = runExtractMode(cfg, pdfService, os.Stdout)
	case cfg.IsServerMode():
		err = runServerMode(ctx, cfg, pdfService, logger)
	default:
		err = runStdioMode(ctx, cfg, pdfService, logger)
	}
	if err != nil {
		logger.WithError(err).Error("run failed")
		if !cfg.IsStdioMode() || cfg.IsDebug() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// newService creates the PDF service from the configured defaults
func newService(cfg *config.Config, logger *logrus.Logger) (*pdf.Service, error) {
	opts, err := cfg.ExtractOptions()
	if err != nil {
		return nil, err
	}
	service, err := pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory, opts, cfg.ExportOptions(), logger)
	if err != nil {
		return nil, err
	}
	service.SetDefaultPassword(cfg.Password)
	return service, nil
}

// runStdioMode serves MCP over stdio; the parent process controls our lifecycle
func runStdioMode(ctx context.Context, cfg *config.Config, pdfService *pdf.Service, logger *logrus.Logger) error {
	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

// runServerMode serves the HTTP API until a shutdown signal arrives
func runServerMode(ctx context.Context, cfg *config.Config, pdfService *pdf.Service, logger *logrus.Logger) error {
	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(pdfService, logger, cfg.ServerName, cfg.Version)
	server := httpapi.NewServer(cfg.Address(), router, logger)

	if err := server.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped successfully")
	return nil
}

// runExtractMode extracts the input file once. The table is written to
// --output when set, otherwise to stdout.
func runExtractMode(cfg *config.Config, pdfService *pdf.Service, stdout io.Writer) error {
	if cfg.Output != "" {
		result, err := pdfService.ExportBoxesFile(pdf.PDFExportBoxesRequest{
			Path:     cfg.Input,
			Output:   cfg.Output,
			Format:   cfg.OutputFormat,
			Password: cfg.Password,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %d boxes (%d with a value) to %s\n", result.Rows, result.Matched, result.Output)
		return nil
	}

	result, err := pdfService.ExtractBoxesFile(pdf.PDFExtractBoxesRequest{
		Path:     cfg.Input,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}

	format := export.FormatJSON
	if cfg.OutputFormat != "" {
		if format, err = export.ParseFormat(cfg.OutputFormat); err != nil {
			return err
		}
	}
	return export.Write(stdout, format, result.Rows, pdfService.ExportOptions(pdf.Overrides{}))
}

// hasVersionFlag reports whether args ask for the version
func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Boxes\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
