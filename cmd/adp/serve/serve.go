package servecmder

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/server"
)

const serveLongDesc string = `Serve the patterns over HTTP.

Every pattern has a POST /v1/<pattern> endpoint taking {"input": "..."};
/v1/sessions runs memory chat sessions; /api/chat is an Ollama-compatible
passthrough to the configured model; /dag/* inspects the recorded model
calls. Without --record the calls are kept in memory.

Examples:
  adp serve
  adp serve --listen :9090 --record ~/.adp/adp.db`

const serveShortDesc string = "Run the HTTP server"

type serveCommander struct {
	flags  *cmdenv.Flags
	listen string
}

func NewServeCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &serveCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default ADP_LISTEN or :8080)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	env, err := c.flags.Setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	listen := env.Config.Server.Listen
	if c.listen != "" {
		listen = c.listen
	}

	srv, err := server.New(server.Config{
		ListenAddr:     listen,
		SummarizeAfter: env.Config.Memory.SummarizeAfter,
		KeepLast:       env.Config.Memory.KeepLast,
	}, env.Model, env.Storer, env.Logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	if err := srv.Run(ctx); err != nil {
		env.Logger.Error("server failed", zap.Error(err))
		return err
	}
	return nil
}
