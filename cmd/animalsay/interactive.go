package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/animalsay/internal/display"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

func runInteractive(cmd *cobra.Command, _ []string) error {
	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	co, err := buildCore(cfg, log)
	if err != nil {
		return err
	}
	log.Info("indexed %d animal sound codes in %s", co.index.Len(), co.index.Dir())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UI.Fancy && term.IsTerminal(os.Stdin.Fd()) {
		return runUI(ctx, co, log)
	}
	return runPlain(ctx, co, log)
}

// runUI runs the status-bar prompt. Bubble Tea owns the terminal until the
// app loop ends.
func runUI(ctx context.Context, co *core, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ui := display.NewUI(display.Status{Animals: co.index.Len()})
	out := buildOutput(ctx, cfg, ui, log)
	out.audio = ui.TrackPlayback(out.audio)

	a := newApp(co, out, ui, log)
	a.prefetch(ctx)
	if cfg.Voice.Enabled {
		if err := a.startVoice(ctx, cfg); err != nil {
			return err
		}
	}
	ui.UpdateStatus(func(s *display.Status) {
		s.Speech = out.mode
		s.Voice = a.ear != nil
	})

	fmt.Println(display.RenderBanner())
	fmt.Println(display.BannerStyle.Render(hintLine(a)))
	fmt.Println()

	go func() {
		ui.WaitReady()
		a.run(ctx, ui.InputChan(), nil)
		ui.Quit()
	}()

	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
		return err
	}
	return nil
}

// runPlain reads lines from stdin. Used when stdin is not a terminal or the
// status bar is turned off.
func runPlain(ctx context.Context, co *core, log *logger.Logger) error {
	console := display.NewConsole(os.Stdout)
	out := buildOutput(ctx, cfg, console, log)
	a := newApp(co, out, console, log)
	a.prefetch(ctx)
	if cfg.Voice.Enabled {
		if err := a.startVoice(ctx, cfg); err != nil {
			return err
		}
	}

	interactive := term.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Println(display.RenderBanner())
		console.PrintHint(hintLine(a))
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var prompt func()
	if interactive {
		prompt = console.Prompt
	}
	a.run(ctx, lines, prompt)
	a.drain(ctx, 10*time.Second)
	return nil
}

func hintLine(a *app) string {
	if a.ear != nil {
		return "  Voice mode ON: say \"hey animal\" or type. Type 'quit' to exit."
	}
	return "  Type 'help' for examples, 'quit' to exit."
}
