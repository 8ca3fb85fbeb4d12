package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "topos",
	Short: "A live-coding music sequencer",
	Long: `topos is a live-coding music sequencer: edit a short Lua script in your own
editor while the engine re-evaluates it on a musical clock and plays the
result through a MIDI port or the built-in synth.

A broken edit never stops playback; the last working version keeps running
until the draft evaluates cleanly again.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/topos/topos.yml)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
