package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/next-trace/scg-user-event-relay/internal/config"
)

func main() {
	cmd := &cli.Command{
		Name:  "relay",
		Usage: "Relay identity provider user events to a durable message stream",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			runCmd,
			checkCmd,
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "relay:", err)
		os.Exit(1)
	}
}
