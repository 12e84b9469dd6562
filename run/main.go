package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maseology/mmio"
	"github.com/spf13/cobra"

	"github.com/sequence-dev/sequence"
	"github.com/sequence-dev/sequence/config"
)

var version = "2.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sequence",
		Short: "Sequence-stratigraphic model of a 1D cross-shore profile",
		Long: `sequence evolves a shore-normal elevation profile under sea-level change,
subsidence, fluvial and submarine sediment transport, compaction and
lithospheric flexure, archiving the deposited section layer by layer.

A run directory holds one or more sequence*.toml (or sequence*.yaml)
configuration files plus the csv inputs they name; results are written
there as NetCDF and csv.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogLevel(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolP("silent", "s", false, "Only log errors; no progress bar")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log component detail and timing")

	rootCmd.AddCommand(
		newRunCmd(),
		newSetupCmd(),
		newGenerateCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setLogLevel(cmd *cobra.Command) {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	if s, _ := cmd.Flags().GetBool("silent"); s {
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})))
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Run the simulation configured in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			silent, _ := cmd.Flags().GetBool("silent")
			verbose, _ := cmd.Flags().GetBool("verbose")
			resume, _ := cmd.Flags().GetString("resume")
			snapshot, _ := cmd.Flags().GetString("snapshot")
			return runModel(dir, silent, verbose, resume, snapshot)
		},
	}
	cmd.Flags().String("resume", "", "Resume a saved run state (path relative to dir)")
	cmd.Flags().String("snapshot", "", "Save the run state when done (path relative to dir)")
	return cmd
}

func runModel(dir string, silent, verbose bool, resume, snapshot string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(dir); err != nil {
		return err
	}
	defer func() { _ = os.Chdir(wd) }()

	tt := mmio.NewTimer()

	times, names, err := config.Find(".")
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no sequence*.toml or sequence*.yaml files in %s", dir)
	}
	for _, name := range names {
		slog.Debug("configuration file", "name", name)
	}
	tv, err := config.FromFiles(names, times)
	if err != nil {
		return err
	}

	sim, w, err := sequence.Build(tv)
	if err != nil {
		return err
	}

	running := sim.Pipe.Components()
	for _, name := range running {
		slog.Info("enabled", "component", name)
	}
	for _, name := range config.AllProcesses() {
		if !contains(running, name) {
			slog.Warn("disabled", "component", name)
		}
	}
	if procs, set := tv.Initial().Processes(); set && len(procs) == 0 {
		slog.Warn("all processes have been disabled; only fluvial and shoreline run")
	}

	if resume != "" {
		if err := sim.LoadGob(resume); err != nil {
			return err
		}
		slog.Info("resumed", "file", resume, "steps", sim.Clock.StepsTaken())
	}
	if !silent {
		tt.Print("setup complete")
	}

	runErr := sim.Run(w, silent)
	if w != nil {
		if err := w.Finalize(sim); err != nil && runErr == nil {
			runErr = err
		}
	}
	if snapshot != "" {
		// a failed run still snapshots its last committed state
		if err := sim.SaveGob(snapshot); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return runErr
	}
	if !silent {
		tt.Lap("run complete")
	}

	if verbose {
		reportTimers(sim)
	}
	return nil
}

func reportTimers(sim *sequence.Simulation) {
	type lap struct {
		name string
		d    time.Duration
	}
	var rows []lap
	var total time.Duration
	for name, d := range sim.Timer {
		rows = append(rows, lap{name, d})
		total += d
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].d > rows[j].d })

	fmt.Println("\ncomponent timing:")
	for _, r := range rows {
		pct := 0.
		if total > 0 {
			pct = 100. * float64(r.d) / float64(total)
		}
		fmt.Printf("  %-22s %12v %5.1f%%\n", r.name, r.d.Round(time.Microsecond), pct)
	}
}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup [dir]",
		Short: "Write a set of example input files into a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
				mmio.MakeDir(dir)
			}
			for _, name := range config.SampleNames() {
				fp := filepath.Join(dir, name)
				if _, ok := mmio.FileExists(fp); ok {
					return fmt.Errorf("%s already exists", fp)
				}
			}
			for _, name := range config.SampleNames() {
				fp := filepath.Join(dir, name)
				body, _ := config.Sample(name)
				if err := os.WriteFile(fp, []byte(body), 0644); err != nil {
					return err
				}
				fmt.Println(fp)
			}
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "generate <file>",
		Short:     "Print one example input file to stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.SampleNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, ok := config.Sample(args[0])
			if !ok {
				return fmt.Errorf("unknown input file %q (choose from %s)",
					args[0], strings.Join(config.SampleNames(), ", "))
			}
			fmt.Print(body)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sequence %s\n", version)
		},
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
