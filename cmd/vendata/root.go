package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vendata/vendata/internal/ingestion"
	"github.com/vendata/vendata/internal/logging"
	"github.com/vendata/vendata/internal/mapping"
	"github.com/vendata/vendata/internal/pipeline"
	"github.com/vendata/vendata/internal/report"
	"github.com/vendata/vendata/internal/repository"
)

type cliOptions struct {
	vendorID      string
	mode          string
	threshold     float64
	assumeFinance bool
	verbose       bool
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "vendata",
		Short: "Normalize and inspect vendor order files",
		Long: `vendata runs CSV and XLSX order files through header inference,
row normalization, and deduplication, and reports on the outcome.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.vendorID, "vendor", "", "vendor id the file belongs to")
	root.PersistentFlags().StringVar(&opts.mode, "mode", "adaptive", "processing mode: strict, lenient, adaptive, diagnostic")
	root.PersistentFlags().Float64Var(&opts.threshold, "threshold", 0.7, "minimum accuracy for a passing run")
	root.PersistentFlags().BoolVar(&opts.assumeFinance, "assume-finance", false, "default finance-selected when the file has no finance column")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline internals")

	root.AddCommand(newIngestCommand(opts))
	root.AddCommand(newDiagnoseCommand(opts))
	root.AddCommand(newExportCommand(opts))
	root.AddCommand(newServeCommand(opts))
	return root
}

func (o *cliOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	logger, err := logging.New(true)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// resolveVendor falls back to the file's base name when --vendor is not set.
func (o *cliOptions) resolveVendor(path string) string {
	if o.vendorID != "" {
		return o.vendorID
	}
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func (o *cliOptions) run(ctx context.Context, path string, mode pipeline.Mode) (*pipeline.RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	processor := pipeline.NewProcessor(ingestion.NewService(mapping.NewCache(), o.logger()), nil, o.logger())
	processor.QualityThreshold = o.threshold
	processor.Stores = pipeline.Stores{
		Records: repository.NewMemoryRecordRepository(),
		Vendors: repository.NewMemoryVendorRepository(),
		Errors:  repository.NewMemoryErrorLogRepository(),
	}

	req := ingestion.Request{
		VendorID: o.resolveVendor(path),
		FileName: filepath.Base(path),
		Data:     bytes.NewReader(data),
		Options:  ingestion.PassOptions{AssumeFinanceSelected: o.assumeFinance},
	}
	return processor.Run(ctx, req, mode)
}

func newIngestCommand(opts *cliOptions) *cobra.Command {
	var htmlOut string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Run a file through the pipeline and print a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := pipeline.ParseMode(opts.mode)
			if err != nil {
				return err
			}

			run, runErr := opts.run(cmd.Context(), args[0], mode)
			if run == nil {
				return runErr
			}

			summary := report.Build(opts.resolveVendor(args[0]), filepath.Base(args[0]), run)
			if err := report.RenderText(cmd.OutOrStdout(), summary); err != nil {
				return err
			}

			if htmlOut != "" {
				f, err := os.Create(htmlOut)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", htmlOut, err)
				}
				defer f.Close()
				if err := report.RenderHTML(f, summary); err != nil {
					return err
				}
			}

			if runErr != nil {
				return fmt.Errorf("run failed: %w", runErr)
			}
			if !run.Passed {
				return fmt.Errorf("quality verdict %s is below the threshold", run.Verdict)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlOut, "html", "", "also write an HTML report to this path")
	return cmd
}

func newDiagnoseCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose <file>",
		Short: "Dry-run a file and print recommendations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := opts.run(cmd.Context(), args[0], pipeline.ModeDiagnostic)
			if run == nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Verdict: %s (accuracy %.2f)\n", run.Verdict, run.Accuracy)
			if run.Result != nil {
				fmt.Fprintf(out, "Mapping confidence: %.2f\n", run.Result.Mapping.Confidence)
			}
			fmt.Fprintln(out, "\nRecommendations:")
			for _, rec := range run.Recommendations {
				fmt.Fprintf(out, "  - %s\n", rec)
			}
			return err
		},
	}
}

// newServeCommand starts the upload API against in-memory stores. Useful for
// trying the pipeline without a database; cmd/server is the persistent
// deployment.
func newServeCommand(opts *cliOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload API backed by in-memory stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			processor := pipeline.NewProcessor(ingestion.NewService(mapping.NewCache(), opts.logger()), nil, opts.logger())
			processor.QualityThreshold = opts.threshold
			processor.Stores = pipeline.Stores{
				Records: repository.NewMemoryRecordRepository(),
				Vendors: repository.NewMemoryVendorRepository(),
				Errors:  repository.NewMemoryErrorLogRepository(),
			}

			mux := http.NewServeMux()
			mux.Handle("/api/ingest", pipeline.NewHTTPHandler(processor))
			mux.Handle("/api/diagnose", pipeline.NewDiagnoseHandler(processor))
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", port),
				Handler:      mux,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				fmt.Fprintf(cmd.OutOrStdout(), "listening on :%d (in-memory stores)\n", port)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	return cmd
}

func newExportCommand(opts *cliOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Normalize a file and export the records as canonical CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := pipeline.ParseMode(opts.mode)
			if err != nil {
				return err
			}

			run, runErr := opts.run(cmd.Context(), args[0], mode)
			if runErr != nil {
				return runErr
			}
			if run.Result == nil || len(run.Result.Records) == 0 {
				return fmt.Errorf("no records to export")
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return report.WriteCSV(w, run.Result.Records)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV here instead of stdout")
	return cmd
}
