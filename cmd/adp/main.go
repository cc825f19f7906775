package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/cmdenv"
	rootcmder "github.com/ncminhbka/Agentic-Design-Patterns/cmd/adp/root"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootcmder.NewRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cmdenv.ErrReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
