package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/endrorytm/Topos/internal/clock"
	"github.com/endrorytm/Topos/internal/output"
	"github.com/endrorytm/Topos/internal/script"
	"github.com/endrorytm/Topos/internal/seq"
)

var checkCmd = &cobra.Command{
	Use:   "check <script.lua>",
	Short: "Evaluate a script once against a stopped clock",
	Long: `Evaluate a script once without starting the transport. Useful as a
pre-flight before going live: a script that fails here will be rejected by
the evaluator during a session too (and the previous version kept playing).`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// stderrSink reports script faults straight to standard error.
type stderrSink struct{}

func (stderrSink) Report(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	logger := log.New(io.Discard)
	clk := clock.New(logger)
	source := clock.NewSystemSource()
	reg := seq.NewRegistry()
	sink := output.NewWriterSink(io.Discard)

	eval := script.NewEvaluator(clk, source, reg, sink, stderrSink{}, logger)
	defer eval.Close()

	buf := script.NewBuffer(filepath.Base(args[0]))
	buf.SetCandidate(string(data))
	if err := eval.Evaluate(buf); err != nil {
		return fmt.Errorf("script did not evaluate cleanly")
	}
	fmt.Println("ok")
	return nil
}
