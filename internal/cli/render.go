package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/pipeline"
	"github.com/matzehuels/imprint/pkg/request"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	id           string
	template     string
	text         string
	font         string
	output       string // output file name, relative to the output directory
	format       string
	baseDocument string
	outDir       string
	noCache      bool
	refresh      bool
}

// renderCommand creates the render command for compositing one request locally.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [text]",
		Short: "Composite text onto a template and write the document",
		Long: `Render draws text onto a template's base image (or page 0 of a base
document) and writes the result to the output directory.

Without --template on an interactive terminal, a template picker opens.`,
		Example: `  imprint render --template card.png --id 42 "Ada Lovelace"
  imprint render -t cover.png --base-document brochure.pdf -o brochure_42.pdf "Ada"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.text = args[0]
			}
			return c.runRender(cmd.Context(), cmd.Flags().Changed("text") || len(args) == 1, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template identifier")
	cmd.Flags().StringVar(&opts.text, "text", "", "text to draw (or pass as argument)")
	cmd.Flags().StringVar(&opts.font, "font", "", "font override")
	cmd.Flags().StringVar(&opts.id, "id", "", "request identifier used in the default output name")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file name (default {id}_{template})")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: png, jpeg, pdf (default from output name)")
	cmd.Flags().StringVar(&opts.baseDocument, "base-document", "", "PDF in the pictures directory to draw on")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "output directory (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached document exists")

	return cmd
}

// runRender builds the request from flags and assembles it.
func (c *CLI) runRender(ctx context.Context, hasText bool, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	asm, closeFn, err := c.newAssembler(ctx, assemblerOpts{noCache: opts.noCache, refresh: opts.refresh, output: opts.outDir})
	if err != nil {
		return err
	}
	defer closeFn()

	if opts.template == "" {
		picked, err := pickTemplate(asm)
		if err != nil {
			return err
		}
		opts.template = picked
	}
	if !hasText {
		return errors.New(errors.ErrCodeInvalidRequest, "text is required (pass it as argument or --text)")
	}

	req, err := opts.request()
	if err != nil {
		return err
	}

	spin := startSpinner(ctx, fmt.Sprintf("Rendering %s...", req.Label()))
	res, err := asm.Assemble(ctx, req)
	spin.Stop()
	if err != nil {
		logger.Debug("render failed", "err", err)
		printError("%s: %s", errors.CodeOf(err), errors.UserMessage(err))
		return err
	}

	printResult(res)
	return nil
}

// request turns flags into a request.
func (o *renderOpts) request() (request.Request, error) {
	req := request.Request{
		ID:           o.id,
		Output:       o.output,
		Template:     o.template,
		Text:         &o.text,
		Font:         o.font,
		BaseDocument: o.baseDocument,
	}
	if o.format != "" {
		f, err := document.ParseFormat(o.format)
		if err != nil {
			return request.Request{}, err
		}
		req.Format = f
	}
	if req.ID == "" && req.Output == "" {
		req.ID = "render"
	}
	return req, nil
}

// pickTemplate opens the interactive picker, or fails when stdin is not a
// terminal.
func pickTemplate(asm *pipeline.Assembler) (string, error) {
	ids := asm.Registry.IDs()
	if len(ids) == 0 {
		return "", errors.New(errors.ErrCodeConfiguration, "no templates registered")
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return "", errors.New(errors.ErrCodeInvalidRequest, "--template is required when not running in a terminal")
	}
	m, err := tea.NewProgram(newTemplateListModel(asm.Registry)).Run()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "template picker")
	}
	picked := m.(TemplateListModel).Selected
	if picked == "" {
		return "", context.Canceled
	}
	return picked, nil
}
