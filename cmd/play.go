package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/endrorytm/Topos/internal/audio"
	"github.com/endrorytm/Topos/internal/clock"
	"github.com/endrorytm/Topos/internal/config"
	"github.com/endrorytm/Topos/internal/output"
	"github.com/endrorytm/Topos/internal/script"
	"github.com/endrorytm/Topos/internal/seq"
	"github.com/endrorytm/Topos/internal/tui"
)

var (
	playPort    string
	playSynth   bool
	playDry     bool
	playBPM     float64
	playPPQN    int
	playStart   bool
	playLogFile string
)

var playCmd = &cobra.Command{
	Use:   "play <script.lua>",
	Short: "Run a live session on a script file",
	Long: `Run a live session: the script file is watched for changes and re-evaluated
once per pulse against the sequencing API. Output goes to a MIDI port by
default; --synth uses the built-in synthesizer and --dry only logs events.

Example:
  topos play groove.lua --port "IAC" --bpm 97
`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playPort, "port", "p", "", "MIDI output port (substring match, first port if empty)")
	playCmd.Flags().BoolVar(&playSynth, "synth", false, "play through the built-in synth instead of MIDI")
	playCmd.Flags().BoolVar(&playDry, "dry", false, "log events instead of playing them (pair with --log)")
	playCmd.Flags().Float64Var(&playBPM, "bpm", 0, "override the configured tempo")
	playCmd.Flags().IntVar(&playPPQN, "ppqn", 0, "override the configured resolution")
	playCmd.Flags().BoolVar(&playStart, "start", false, "start the transport immediately")
	playCmd.Flags().StringVar(&playLogFile, "log", "", "append engine logs to this file")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]
	if _, err := os.Stat(scriptPath); err != nil {
		return fmt.Errorf("script %s: %w", scriptPath, err)
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if playBPM > 0 {
		cfg.BPM = playBPM
	}
	if playPPQN > 0 {
		cfg.PPQN = playPPQN
	}

	// The TUI owns the terminal, so logs go to a file or nowhere.
	logW := io.Writer(io.Discard)
	if playLogFile != "" {
		f, err := os.OpenFile(playLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logW = f
	}
	logger := log.New(logW)

	source := clock.NewSystemSource()

	sink, sinkName, err := openSink(cfg, source, logW)
	if err != nil {
		return err
	}
	defer sink.Close()
	defer midi.CloseDriver()

	clk := clock.New(logger)
	clk.SetBPM(cfg.BPM)
	clk.SetPPQN(cfg.PPQN)
	clk.SetTimeSignature(cfg.TimeSignature.Beats, cfg.TimeSignature.Unit)

	reg := seq.NewRegistry()
	buf := script.NewBuffer(filepath.Base(scriptPath))

	// The pulse callback closes over the evaluator built a few lines down;
	// nothing fires before Start.
	var eval *script.Evaluator
	sched := clock.NewScheduler(clk, source, func(pulse int, at float64) {
		eval.Pulse(buf, pulse, at)
	}, logger)
	sched.Interval = cfg.PollInterval.Std()
	sched.Lookahead = cfg.Lookahead.Std().Seconds()

	model := tui.NewModel(sched, buf, scriptPath, sinkName)
	eval = script.NewEvaluator(clk, source, reg, sink, model, logger)
	defer eval.Close()

	if playStart {
		sched.Start()
	}

	p := tea.NewProgram(model, tea.WithAltScreen())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		sched.Stop()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running session: %w", err)
	}
	return nil
}

func openSink(cfg config.Config, source clock.TimeSource, logW io.Writer) (output.Sink, string, error) {
	switch {
	case playDry:
		return output.NewWriterSink(logW), "dry run", nil
	case playSynth || cfg.Output.Synth:
		synth, err := audio.NewSynth(audio.ParseWave(cfg.Output.Wave), cfg.Output.Volume)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize audio: %w", err)
		}
		return output.NewSynthSink(synth, source), fmt.Sprintf("synth (%s)", cfg.Output.Wave), nil
	default:
		port := playPort
		if port == "" {
			port = cfg.Output.Port
		}
		m, err := output.OpenMIDI(port, source)
		if err != nil {
			return nil, "", err
		}
		return m, "midi: " + m.Port(), nil
	}
}
