package parallelcmder

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/parallel"
)

const parallelLongDesc string = `Run the parallelization pattern.

A summary, three questions and a list of key terms are generated for the
topic concurrently, then a final prompt synthesises them into one answer.

Examples:
  adp parallel
  adp parallel "The history of the printing press"
  adp parallel --show-branches "Quantum computing"`

const parallelShortDesc string = "Fan a topic out to concurrent prompts and synthesise"

type parallelCommander struct {
	flags        *cmdenv.Flags
	showBranches bool
}

func NewParallelCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &parallelCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "parallel [topic]",
		Short: parallelShortDesc,
		Long:  parallelLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, cmdenv.Input(args, parallel.ExampleTopic))
		},
	}

	cmd.Flags().BoolVar(&cmder.showBranches, "show-branches", false, "Also print each branch's output")

	return cmd
}

func (c *parallelCommander) run(ctx context.Context, cmd *cobra.Command, topic string) error {
	env, err := c.flags.Setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	env.Out.Heading("Running parallel example for topic: '" + topic + "'")

	res, err := parallel.New(env.Model).Run(ctx, topic)
	if err != nil {
		return env.Report("chain execution", err)
	}

	if c.showBranches {
		env.Out.Heading("Summary")
		env.Out.Reply("", res.Summary)
		env.Out.Heading("Questions")
		env.Out.Reply("", res.Questions)
		env.Out.Heading("Key Terms")
		env.Out.Reply("", res.KeyTerms)
	}

	env.Out.Heading("Final Response")
	env.Out.Reply("", res.Answer)
	return nil
}
