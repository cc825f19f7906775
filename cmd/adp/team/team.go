package teamcmder

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/multiagent"
)

const teamLongDesc string = `Run the multi-agent pattern.

A research agent collects facts, an analysis agent draws insights from them,
and a synthesis agent writes the final answer.

Examples:
  adp team
  adp team --show-steps "Why do distributed systems need consensus?"`

const teamShortDesc string = "Answer with a research, analysis and synthesis team"

type teamCommander struct {
	flags     *cmdenv.Flags
	showSteps bool
}

func NewTeamCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &teamCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "team [question]",
		Short: teamShortDesc,
		Long:  teamLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, cmdenv.Input(args, multiagent.ExampleQuery))
		},
	}

	cmd.Flags().BoolVar(&cmder.showSteps, "show-steps", false, "Also print the research notes and analysis")

	return cmd
}

func (c *teamCommander) run(ctx context.Context, cmd *cobra.Command, query string) error {
	env, err := c.flags.Setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	team, err := multiagent.New(env.Model, env.Logger)
	if err != nil {
		return err
	}

	state, err := team.Run(ctx, query)
	if err != nil {
		return env.Report("multi-agent execution", err)
	}

	if c.showSteps {
		env.Out.Heading("Research Notes")
		env.Out.Reply("", state.ResearchNotes)
		env.Out.Heading("Analysis")
		env.Out.Reply("", state.Analysis)
	}

	env.Out.Heading("Final Answer")
	env.Out.Reply("", state.FinalAnswer)
	return nil
}
