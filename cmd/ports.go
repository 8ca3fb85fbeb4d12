package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/endrorytm/Topos/internal/output"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List available MIDI output ports",
	Run: func(cmd *cobra.Command, args []string) {
		defer midi.CloseDriver()
		names := output.Ports()
		if len(names) == 0 {
			fmt.Println("No MIDI output ports found.")
			return
		}
		for i, name := range names {
			fmt.Printf("%2d: %s\n", i, name)
		}
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
