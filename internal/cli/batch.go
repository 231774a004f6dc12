package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imprint/pkg/batch"
	"github.com/matzehuels/imprint/pkg/client"
	"github.com/matzehuels/imprint/pkg/config"
	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/report"
	"github.com/matzehuels/imprint/pkg/request"
)

// batchOpts holds the command-line flags for the batch command.
type batchOpts struct {
	remote   string // server address; empty renders locally
	workers  int
	timeout  time.Duration
	outDir   string
	noCache  bool
	refresh  bool
	noReport bool
	quiet    bool
}

// batchCommand creates the batch command. Input is a JSON array of requests
// (or a single request object) read from a file or stdin ("-").
func (c *CLI) batchCommand() *cobra.Command {
	var opts batchOpts

	cmd := &cobra.Command{
		Use:   "batch <requests.json|->",
		Short: "Render a file of requests",
		Long: `Batch renders every request in a JSON file, in order. A failing request
is reported and the batch continues; with --remote, an unreachable server
stops the batch and the remaining requests are reported as not run.`,
		Example: `  imprint batch orders.json
  imprint batch --remote 127.0.0.1:8000 --workers 4 orders.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), args[0], cmd.Flags().Changed("workers"), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.remote, "remote", "", "send requests to the server at this address")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "requests rendered concurrently (default from config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-request timeout with --remote (default from config)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "output directory (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached documents exist")
	cmd.Flags().BoolVar(&opts.noReport, "no-report", false, "do not store the batch report")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print totals only")

	return cmd
}

// submitCommand creates the submit command: one request to a running server.
func (c *CLI) submitCommand() *cobra.Command {
	var (
		opts   renderOpts
		remote string
	)

	cmd := &cobra.Command{
		Use:     "submit [text]",
		Short:   "Send one render request to a running server",
		Example: `  imprint submit --template card.png --id 42 "Ada Lovelace"`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.text = args[0]
			}
			if opts.template == "" {
				return errors.New(errors.ErrCodeInvalidRequest, "--template is required")
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			cl, err := newClient(remote, cfg, 0)
			if err != nil {
				return err
			}
			req, err := opts.request()
			if err != nil {
				return err
			}
			res, err := cl.Assemble(cmd.Context(), req)
			if err != nil {
				printError("%s: %s", errors.CodeOf(err), errors.UserMessage(err))
				return err
			}
			printResult(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "server address (default from config)")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template identifier")
	cmd.Flags().StringVar(&opts.text, "text", "", "text to draw (or pass as argument)")
	cmd.Flags().StringVar(&opts.font, "font", "", "font override")
	cmd.Flags().StringVar(&opts.id, "id", "", "request identifier used in the default output name")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file name (default {id}_{template})")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: png, jpeg, pdf")
	cmd.Flags().StringVar(&opts.baseDocument, "base-document", "", "PDF on the server to draw on")

	return cmd
}

// runBatch decodes the input, runs it and stores the report.
func (c *CLI) runBatch(ctx context.Context, input string, workersSet bool, opts *batchOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if !workersSet {
		opts.workers = cfg.Batch.Workers
	}
	if opts.outDir != "" {
		cfg.Paths.Output = opts.outDir
	}

	reqs, skipped, err := readBatch(input)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		logger.Warn("skipping malformed record", "index", s.Index+1, "reason", s.Reason)
	}

	var asm batch.Assembler
	if opts.remote != "" {
		cl, err := newClient(opts.remote, cfg, opts.timeout)
		if err != nil {
			return err
		}
		asm = cl
	} else {
		local, closeFn, err := c.newAssembler(ctx, assemblerOpts{noCache: opts.noCache, refresh: opts.refresh, output: cfg.Paths.Output})
		if err != nil {
			return err
		}
		defer closeFn()
		asm = local
	}

	prog := newProgress(logger)
	sum := batch.NewRunner(asm, opts.workers, logger).Run(ctx, reqs, skipped...)
	prog.done(fmt.Sprintf("Processed %d requests", sum.Total))

	if opts.quiet {
		printInfo("%d succeeded, %d failed, %d aborted, %d not run", sum.Succeeded, sum.Failed, sum.AbortedItems, sum.NotRun)
	} else {
		printNewline()
		printSummary(sum)
	}

	if !opts.noReport {
		if err := c.saveReport(ctx, cfg, sum); err != nil {
			logger.Error("report not saved", "err", err)
		}
	}

	switch {
	case sum.Aborted:
		return errors.New(errors.ErrCodeTransport, "batch aborted: %s", sum.AbortErr)
	case ctx.Err() != nil:
		return ctx.Err()
	case sum.Failed > 0:
		return fmt.Errorf("%d of %d requests failed", sum.Failed, sum.Total)
	}
	return nil
}

// readBatch decodes requests from a file, or stdin for "-".
func readBatch(input string) ([]request.Request, []request.Skipped, error) {
	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidRequest, err, "open batch file")
		}
		defer f.Close()
		r = f
	}
	return request.DecodeBatch(r)
}

// newClient builds a remote client; addr and timeout fall back to config.
func newClient(addr string, cfg config.Config, timeout time.Duration) (*client.Client, error) {
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if timeout <= 0 {
		timeout = cfg.Batch.Timeout.Duration
	}
	return client.New(addr, client.WithTimeout(timeout))
}

// saveReport writes the summary to every configured report store.
func (c *CLI) saveReport(ctx context.Context, cfg config.Config, sum batch.Summary) error {
	var (
		stores report.Multi
		path   string
	)
	if cfg.Report.File {
		fs, err := report.NewFileStore(cfg.ReportDir())
		if err != nil {
			return err
		}
		stores = append(stores, fs)
		path = fs.Path(sum.ID)
	}
	if cfg.Report.MongoURI != "" {
		ms, err := report.Connect(ctx, cfg.Report.MongoURI, cfg.Report.MongoDatabase, cfg.Report.MongoCollection)
		if err != nil {
			return err
		}
		defer ms.Close(context.Background())
		stores = append(stores, ms)
	}
	if err := stores.Save(ctx, sum); err != nil {
		return err
	}
	if path != "" {
		printDetail("Report: %s", path)
	}
	return nil
}
