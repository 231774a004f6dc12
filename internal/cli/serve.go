package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imprint/pkg/server"
)

// serveCommand creates the serve command exposing the assembler over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve render requests over HTTP",
		Long: `Serve listens for render requests:

  POST /render        render one request (also /gerar-imagem/)
  GET  /templates     list template identifiers
  GET  /fonts         list font names
  GET  /healthz       liveness check

The server stops on SIGINT/SIGTERM after in-flight requests finish.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	asm, closeFn, err := c.newAssembler(ctx, assemblerOpts{noCache: noCache})
	if err != nil {
		return err
	}
	defer closeFn()

	printInfo("Serving %d templates on %s", asm.Registry.Len(), StyleHighlight.Render("http://"+addr))
	printNextStep("Submit a request", "imprint submit --remote "+addr+" -t <template> <text>")

	err = server.New(asm, c.Logger).ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
