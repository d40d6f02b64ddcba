package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lazypower/entropyd/internal/config"
	"github.com/lazypower/entropyd/internal/decay"
)

var (
	demoDuration time.Duration
	demoForceSim bool
)

var demoCmd = &cobra.Command{
	Use:   "demo [content]",
	Short: "Watch a string decay in the terminal",
	Long:  "Creates a decaying value and prints it once per second until it has fully corrupted or the duration elapses.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().DurationVar(&demoDuration, "duration", 15*time.Second, "how long to watch")
	demoCmd.Flags().BoolVar(&demoForceSim, "force-sim", false, "skip kernel device binding")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	content := "Hello World"
	if len(args) > 0 {
		content = strings.Join(args, " ")
	}

	dcfg := cfg.DecayConfig()
	if demoForceSim {
		dcfg.ForceSimulation = true
	}

	s, err := decay.New(content, dcfg)
	if err != nil {
		return fmt.Errorf("create value: %w", err)
	}
	defer s.Close()

	mode := "sim"
	if s.IsBoundToResource() {
		mode = "device"
	}
	fmt.Fprintf(os.Stderr, "decaying %q in %s mode\n", content, mode)

	start := time.Now()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		fmt.Printf("%-18s %s\n", humanize.Time(start), s.Value())
		select {
		case <-ticker.C:
			if time.Since(start) >= demoDuration {
				fmt.Fprintln(os.Stderr, "done")
				return nil
			}
		case <-interrupt:
			fmt.Fprintln(os.Stderr, "\ninterrupted")
			return nil
		}
	}
}
