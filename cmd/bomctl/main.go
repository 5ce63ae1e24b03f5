package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/JonMunkholm/bomview/internal/cli"
	"github.com/JonMunkholm/bomview/internal/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "bomctl:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}
