package routecmder

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	"github.com/ncminhbka/Agentic-Design-Patterns/patterns/routing"
)

const routeLongDesc string = `Run the routing pattern.

The model classifies each request as booker, info or unclear and the
matching handler answers it. Without an argument the three built-in example
requests are routed in turn.

Examples:
  adp route
  adp route "I want to book a flight to Hanoi"`

const routeShortDesc string = "Route requests to a handler chosen by the model"

type routeCommander struct {
	flags *cmdenv.Flags
}

func NewRouteCmd(flags *cmdenv.Flags) *cobra.Command {
	cmder := &routeCommander{flags: flags}

	return &cobra.Command{
		Use:   "route [request]",
		Short: routeShortDesc,
		Long:  routeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests := routing.ExampleRequests
			if len(args) == 1 {
				requests = args
			}
			return cmder.run(cmd.Context(), cmd, requests)
		},
	}
}

func (c *routeCommander) run(ctx context.Context, cmd *cobra.Command, requests []string) error {
	env, err := c.flags.Setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	coordinator := routing.New(env.Model, env.Logger)
	for _, req := range requests {
		decision, err := coordinator.Route(ctx, req)
		if err != nil {
			return env.Report("routing", err)
		}
		env.Out.Heading("Routed to: " + string(decision.Route))
		env.Out.Reply("Request", req)
		env.Out.Reply("Response", decision.Response)
	}
	return nil
}
