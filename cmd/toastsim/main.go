package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/toastkit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:   "toastsim",
		Short: "Replay toast notification scenarios",
		Long: `toastsim replays scripted toast scenarios against the toastkit engine.

A scenario is a YAML file of timed steps (add, update, remove, dismiss,
hover, leave, remove_all). By default it runs on a virtual clock and
prints a deterministic timeline of every add, transition, auto-dismissal
and removal. With --realtime it runs on the wall clock instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				errors.DisableColors()
			}
		},
	}

	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		runCmd(),
		validateCmd(),
		versionCmd(),
	)
	return root
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("⚠")
	dim      = color.New(color.FgHiBlack)
	heading  = color.New(color.Bold)
)

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", okMark, fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
