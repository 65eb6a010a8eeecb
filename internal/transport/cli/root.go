// Package cli exposes the site clients as portfolioctl subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"portfolio-site/internal/bootstrap"
	"portfolio-site/internal/config"
)

// ToolsLoader builds the client wiring for one command run.
type ToolsLoader func(ctx context.Context) (*bootstrap.Tools, error)

// DefaultLoader loads configuration and connects the configured stores.
func DefaultLoader(ctx context.Context) (*bootstrap.Tools, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return bootstrap.NewTools(ctx, cfg)
}

type runner struct {
	load  ToolsLoader
	tools *bootstrap.Tools
}

// Execute runs one portfolioctl invocation and releases whatever the loader
// connected, whether or not the command succeeded.
func Execute(ctx context.Context, load ToolsLoader, args []string, in io.Reader, out io.Writer) error {
	r := &runner{load: load}
	defer r.close()

	root := r.rootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolioctl",
		Short:         "Talk to the portfolio site backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			tools, err := r.load(cmd.Context())
			if err != nil {
				return err
			}
			r.tools = tools
			return nil
		},
	}

	root.AddCommand(
		r.pingCommand(),
		r.chatCommand(),
		r.docsCommand(),
		r.themeCommand(),
	)
	return root
}

func (r *runner) close() {
	if r.tools == nil {
		return
	}
	if err := r.tools.Close(); err != nil {
		log.Printf("close resources failed: %v", err)
	}
}
