package reflectcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/reflection"
)

const reflectLongDesc string = `Run the reflection pattern.

A producer drafts an answer, a critic reviews it, and the draft is refined
until the critic replies CODE_IS_PERFECT or the iteration budget runs out.

Examples:
  adp reflect
  adp reflect --max-iterations 5 "Write a Go function that reverses a string"`

const reflectShortDesc string = "Draft, critique and refine an answer"

type reflectCommander struct {
	flags         *cmdenv.Flags
	maxIterations int
	criticModel   string
	verbose       bool
}

func NewReflectCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &reflectCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "reflect [task]",
		Short: reflectShortDesc,
		Long:  reflectLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, cmdenv.Input(args, reflection.ExampleTask))
		},
	}

	cmd.Flags().IntVar(&cmder.maxIterations, "max-iterations", reflection.DefaultMaxIterations, "Maximum number of drafts")
	cmd.Flags().StringVar(&cmder.criticModel, "critic-model", "", "Model name for the critic (default: same as --model)")
	cmd.Flags().BoolVarP(&cmder.verbose, "verbose", "v", false, "Print every draft and critique")

	return cmd
}

func (c *reflectCommander) run(ctx context.Context, cmd *cobra.Command, task string) error {
	env, err := c.flags.Setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	opts := []reflection.Option{
		reflection.WithMaxIterations(c.maxIterations),
		reflection.WithLogger(env.Logger),
	}
	if c.criticModel != "" {
		critic := *env.Model
		critic.Name = c.criticModel
		opts = append(opts, reflection.WithCritic(&critic))
	}

	res, err := reflection.New(env.Model, opts...).Run(ctx, task)
	if err != nil {
		return env.Report("reflection", err)
	}

	if c.verbose {
		for i, it := range res.Iterations {
			env.Out.Heading(fmt.Sprintf("Iteration %d: draft", i+1))
			env.Out.Reply("", it.Draft)
			env.Out.Heading(fmt.Sprintf("Iteration %d: critique", i+1))
			env.Out.Reply("", it.Critique)
		}
	}

	env.Out.Heading("Final Result")
	env.Out.Reply("", res.Final)
	if res.Accepted {
		env.Out.Note("Accepted by the critic after %d iteration(s).", len(res.Iterations))
	} else {
		env.Out.Note("Stopped after %d iteration(s) without approval.", len(res.Iterations))
	}
	return nil
}
