package toolscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/tooluse"
)

const toolsLongDesc string = `Run the tool-use pattern.

An agent answers each query, calling the search_information tool when it
needs facts. Without an argument the built-in example queries run
concurrently; a failed query is reported and the others still finish.

Examples:
  adp tools
  adp tools "What is the population of Earth?"`

const toolsShortDesc string = "Answer questions with a tool-calling agent"

type toolsCommander struct {
	flags *cmdenv.Flags
}

func NewToolsCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &toolsCommander{flags: flags}

	return &cobra.Command{
		Use:   "tools [query]",
		Short: toolsShortDesc,
		Long:  toolsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := tooluse.ExampleQueries
			if len(args) == 1 {
				queries = args
			}
			return cmder.run(cmd.Context(), cmd, queries)
		},
	}
}

func (c *toolsCommander) run(ctx context.Context, cmd *cobra.Command, queries []string) error {
	env, err := c.flags.Setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	outcomes := tooluse.New(env.Model, nil, env.Logger).RunAll(ctx, queries)

	var failed int
	for _, o := range outcomes {
		env.Out.Heading("Running agent with query: '" + o.Query + "'")
		if o.Err != nil {
			failed++
			env.Out.Error("agent execution", o.Err)
			continue
		}
		env.Out.Reply("Final agent response", o.Answer)
		env.Out.Note("(%d tool call(s))", o.ToolCalls)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d queries failed", cmdenv.ErrReported, failed, len(queries))
	}
	return nil
}
