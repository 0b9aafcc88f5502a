package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/animalsay/internal/display"
)

var sayCmd = &cobra.Command{
	Use:   "say <utterance>",
	Short: "Handle one utterance and exit",
	Example: `  animalsay say "what does the duck say"
  animalsay say imitate a horse`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

func runSay(cmd *cobra.Command, args []string) error {
	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	co, err := buildCore(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	console := display.NewConsole(os.Stdout)
	a := newApp(co, buildOutput(ctx, cfg, console, log), console, log)
	a.handle(ctx, strings.Join(args, " "))
	a.drain(ctx, 30*time.Second)
	return nil
}
