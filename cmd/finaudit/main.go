// Package main provides the CLI entry point for finaudit.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ukaji3/finaudit-go/pkg/finaudit"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/config"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/output"
	"github.com/ukaji3/finaudit-go/pkg/finaudit/server"
)

var (
	configPath     string
	outputPath     string
	format         string
	pretty         bool
	xlsxPath       string
	tolerance      string
	keywords       []string
	workers        int
	headerRows     int
	noPrintAreas   bool
	sheets         []string
	verbose        bool
	failOnFindings bool
	addr           string
)

// errFindings signals a run that completed with findings under
// --fail-on-findings.
var errFindings = errors.New("findings reported")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finaudit [input]...",
		Short: "Verify financial-statement tables",
		Long: `finaudit checks the tables of audit reports (xlsx workbooks or HTML filings):
totals against their line items, line items shared between statements,
and anomalous value patterns.`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runVerify,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addVerifyFlags(rootCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify [input]...",
		Short: "Verify the tables of one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runVerify,
	}
	addVerifyFlags(verifyCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the verification API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(verifyCmd, serveCmd)
	return rootCmd
}

func addVerifyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "TOML configuration file")
	flags.StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	flags.StringVarP(&format, "format", "f", "text", "Output format: text, json, csv")
	flags.BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	flags.StringVar(&xlsxPath, "xlsx", "", "Also write an annotated xlsx workbook to this path")
	flags.StringVar(&tolerance, "tolerance", "", "Absolute difference treated as equal (overrides config)")
	flags.StringArrayVar(&keywords, "keyword", nil, "Total row keyword, repeatable (overrides config)")
	flags.IntVar(&workers, "workers", 0, "Tables verified concurrently (default: GOMAXPROCS)")
	flags.IntVar(&headerRows, "header-rows", -1, "Header rows per table (default: 1)")
	flags.BoolVar(&noPrintAreas, "no-print-areas", false, "Read whole sheets even when print areas are defined")
	flags.StringArrayVar(&sheets, "sheet", nil, "Only read the named sheet, repeatable")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log verification steps to stderr")
	flags.BoolVar(&failOnFindings, "fail-on-findings", false, "Exit with status 1 when findings are reported")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("tolerance") {
		d, err := decimal.NewFromString(strings.TrimSpace(tolerance))
		if err != nil {
			return cfg, &finaudit.ConfigError{Option: "tolerance", Reason: fmt.Sprintf("not a number: %q", tolerance)}
		}
		cfg.Verify.Thresholds.Tolerance = d
	}
	if flags.Changed("keyword") {
		cfg.Verify.TotalKeywords = keywords
	}
	if flags.Changed("workers") {
		cfg.Verify.Workers = workers
	}
	if flags.Changed("header-rows") {
		if headerRows < 0 {
			return cfg, &finaudit.ConfigError{Option: "header-rows", Reason: "must not be negative"}
		}
		cfg.Extract.HeaderRows = &headerRows
	}
	if flags.Changed("no-print-areas") {
		include := !noPrintAreas
		cfg.Extract.IncludePrintAreas = &include
	}
	if flags.Changed("sheet") {
		cfg.Extract.Sheets = sheets
	}
	if verbose {
		cfg.Verify.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return cfg, cfg.Verify.Validate()
}

func runVerify(cmd *cobra.Command, args []string) error {
	switch format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("invalid format: %s (must be text, json, or csv)", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var tables []models.RawTable
	for _, inputPath := range args {
		extracted, err := finaudit.ExtractFile(inputPath, cfg.Extract)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		if len(args) > 1 {
			prefix := filepath.Base(inputPath) + "/"
			for i := range extracted {
				extracted[i].Name = prefix + extracted[i].Name
			}
		}
		tables = append(tables, extracted...)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := finaudit.Verify(ctx, tables, cfg.Verify)
	if err != nil && report == nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case "json":
		data, jerr := output.ToJSON(report, pretty)
		if jerr != nil {
			return fmt.Errorf("serialization failed: %w", jerr)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	case "csv":
		if werr := output.WriteCSV(&buf, report); werr != nil {
			return fmt.Errorf("serialization failed: %w", werr)
		}
	default:
		if werr := output.WriteText(&buf, strings.Join(baseNames(args), ", "), report); werr != nil {
			return fmt.Errorf("serialization failed: %w", werr)
		}
	}

	if outputPath != "" {
		if werr := os.WriteFile(outputPath, buf.Bytes(), 0644); werr != nil {
			return fmt.Errorf("failed to write output: %w", werr)
		}
	} else {
		os.Stdout.Write(buf.Bytes())
	}

	if xlsxPath != "" {
		if werr := writeWorkbook(xlsxPath, tables, report); werr != nil {
			return fmt.Errorf("failed to write workbook: %w", werr)
		}
	}

	if err != nil {
		// cancelled: the partial report was written
		return err
	}
	if failOnFindings && len(report.Findings) > 0 {
		return errFindings
	}
	return nil
}

func writeWorkbook(path string, tables []models.RawTable, report *models.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := output.WriteWorkbook(f, tables, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	// request traces stay in the report; the server logger covers requests
	cfg.Verify.Logger = nil

	app := server.New(cfg.Verify, logger).App()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr))
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	}
}
