package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/AnyUserName/pmb-cli/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[pmb] error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
