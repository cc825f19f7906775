package chaincmder

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/chaining"
)

const chainLongDesc string = `Run the prompt-chaining pattern.

The first prompt extracts the technical specifications from the text; the
second turns them into a JSON object with "cpu", "memory" and "storage" keys.
Without an argument a built-in laptop description is used.

Examples:
  adp chain
  adp chain "The phone has a 2 GHz CPU, 8GB of RAM and 256GB of storage."`

const chainShortDesc string = "Extract specifications and format them as JSON"

type chainCommander struct {
	flags    *cmdenv.Flags
	validate bool
}

func NewChainCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &chainCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "chain [text]",
		Short: chainShortDesc,
		Long:  chainLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, cmdenv.Input(args, chaining.ExampleInput))
		},
	}

	cmd.Flags().BoolVar(&cmder.validate, "validate", false, "Fail unless the output is a JSON object with cpu, memory and storage")

	return cmd
}

func (c *chainCommander) run(ctx context.Context, cmd *cobra.Command, text string) error {
	env, err := c.flags.Setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	env.Out.Note("Processing with model: %s", env.Config.Model.Name)

	out, err := chaining.New(env.Model).Run(ctx, text)
	if err != nil {
		return env.Report("chain execution", err)
	}

	if c.validate {
		if _, err := chaining.ParseSpecs(out); err != nil {
			return env.Report("output validation", err)
		}
	}

	env.Out.Heading("Final JSON Result")
	env.Out.Reply("", out)
	return nil
}
