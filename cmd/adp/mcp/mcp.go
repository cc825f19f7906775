package mcpcmder

import (
	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/mcpserver"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tools"
)

const mcpLongDesc string = `Serve the agent's tools over the Model Context Protocol on stdio.

Point an MCP client at "adp mcp" to call search_information directly. Logs
go to stderr so stdout carries only protocol traffic.`

const mcpShortDesc string = "Serve tools to MCP clients over stdio"

type mcpCommander struct {
	flags *cmdenv.Flags
}

func NewMCPCmd(flags *cmdenv.Flags, version string) *cobra.Command {
	cmder := &mcpCommander{flags: flags}

	return &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cmder.flags.Logger()
			defer func() { _ = log.Sync() }()

			srv := mcpserver.New(tools.NewRegistry(tools.SearchInformationDefinition), version, log)
			return srv.Run(cmd.Context())
		},
	}
}
