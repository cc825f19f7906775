package rootcmder

import (
	"github.com/spf13/cobra"

	chaincmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/chain"
	chatcmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/chat"
	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	historycmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/history"
	mcpcmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/mcp"
	parallelcmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/parallel"
	reflectcmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/reflect"
	routecmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/route"
	servecmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/serve"
	teamcmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/team"
	toolscmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/tools"
)

// Version is set at build time.
var Version = "dev"

const rootLongDesc string = `adp runs agentic design patterns against a language model.

Each pattern command runs once on its argument, or on a built-in example
when none is given, and prints the result. The model is a local Ollama by
default (OLLAMA_MODEL, OLLAMA_BASE_URL); OpenAI and Anthropic are selected
with --provider or ADP_PROVIDER.

Settings are read, each overriding the last, from built-in defaults,
./adp.toml (or --config), ./.env, the environment and flags.`

const rootShortDesc string = "Agentic design patterns over a language model"

func NewRootCmd() *cobra.Command {
	flags := &cmdenv.Flags{}

	cmd := &cobra.Command{
		Use:           "adp",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags.Register(cmd)

	cmd.AddCommand(chaincmder.NewChainCmd(flags))
	cmd.AddCommand(routecmder.NewRouteCmd(flags))
	cmd.AddCommand(parallelcmder.NewParallelCmd(flags))
	cmd.AddCommand(reflectcmder.NewReflectCmd(flags))
	cmd.AddCommand(toolscmder.NewToolsCmd(flags))
	cmd.AddCommand(teamcmder.NewTeamCmd(flags))
	cmd.AddCommand(chatcmder.NewChatCmd(flags))
	cmd.AddCommand(servecmder.NewServeCmd(flags))
	cmd.AddCommand(mcpcmder.NewMCPCmd(flags, Version))
	cmd.AddCommand(historycmder.NewHistoryCmd(flags))

	return cmd
}
