// AnimalSay tells you what animals say and plays what they sound like.
//
// Usage:
//
//	animalsay [--voice] [--plain]         interactive prompt
//	animalsay say "what does the cow say"  one utterance, then exit
//	animalsay animals                      print the known animals as YAML
package main

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/animalsay/internal/config"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

var (
	cfgFile  string
	verbose  bool
	quiet    bool
	noSpeech bool
	noAI     bool
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "animalsay",
	Short:             "Ask what animals say, and hear them",
	Long:              "AnimalSay answers \"what does the cow say?\" and plays recorded animal sounds on request.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runInteractive,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./animalsay.yaml)")
	pf.String("sounds-dir", "", "directory of <code>-<n>.<ext> sound files")
	pf.String("locale-dir", "", "directory whose locale files override the built-in ones")
	pf.String("lang", "", "locale language (default en-us)")
	pf.String("log-file", "", `file to write logs to ("stderr" logs to the console)`)
	pf.BoolVar(&verbose, "verbose", false, "enable verbose/debug logging")
	pf.BoolVar(&quiet, "quiet", false, "disable all logging")
	pf.BoolVar(&noSpeech, "no-speech", false, "disable text-to-speech even if Azure keys are set")
	pf.BoolVar(&noAI, "no-ai", false, "disable the chat-model fallback even if GPT keys are set")

	rootCmd.Flags().Bool("voice", false, "enable voice input via local Whisper STT")
	rootCmd.Flags().Bool("plain", false, "use a plain line prompt instead of the status-bar UI")

	rootCmd.AddCommand(sayCmd, animalsCmd)
}

// loadConfig merges defaults, the config file, ANIMALSAY_* env vars and
// flags into cfg.
func loadConfig(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	l := config.NewLoader()
	if err := l.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	c, err := l.Load(cfgFile)
	if err != nil {
		return err
	}

	if verbose {
		c.LogLevel = "verbose"
	}
	if quiet {
		c.LogLevel = "off"
	}
	if noSpeech {
		c.Speech.Enabled = false
	}
	if noAI {
		c.AI.Enabled = false
	}
	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		c.UI.Fancy = false
	}
	cfg = c
	return nil
}

// openLog builds the logger described by c. Logs go to a file by default
// so the prompt stays clean; close must be called on exit.
func openLog(c *config.Config) (log *logger.Logger, closeFn func(), err error) {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	closeFn = func() {}
	if c.LogFile != "" && c.LogFile != "stderr" && level != logger.LevelOff {
		if dir := filepath.Dir(c.LogFile); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", c.LogFile, err)
		} else {
			out = f
			closeFn = func() { f.Close() }
		}
	}

	// Third-party packages (the whisper transcriber) log through the
	// standard logger; keep them off the terminal.
	if level == logger.LevelOff {
		stdlog.SetOutput(io.Discard)
	} else {
		stdlog.SetOutput(out)
	}
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(level, out), closeFn, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
