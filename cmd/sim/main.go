package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"blockfall/config"
	"blockfall/logging"
	"blockfall/settings"
	"blockfall/sim"

	"github.com/spf13/cobra"
)

var (
	configFile string
	variant    string
	games      int
	workers    int
	maxPieces  int
	seed       uint64
	output     string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "blockfall-sim",
	Short: "Play headless games and report scores and chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := settings.ParseVariant(variant)
		if err != nil {
			return err
		}
		cfg, err := config.Load(configFile, v)
		if err != nil {
			return err
		}
		l := logging.New(os.Stderr, "sim", cfg.Log.Level)
		if cmd.Flags().Changed("seed") {
			cfg.Settings.Seed = seed
		}

		o := sim.Options{
			Settings:  cfg.Settings,
			Games:     games,
			Workers:   workers,
			MaxPieces: maxPieces,
		}
		if !quiet {
			o.Progress = os.Stderr
		}
		r, err := sim.Run(o, l)
		if err != nil {
			return err
		}
		fmt.Print(r.Table())
		if output != "" {
			if err := r.WriteFile(output); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			l.Info("report written", slog.String("path", output))
		}
		return nil
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configFile, "config", "", "config file")
	f.StringVarP(&variant, "variant", "v", string(settings.Puyo), "puyo, stacker, columns or clicker")
	f.IntVarP(&games, "games", "n", 100, "number of games")
	f.IntVarP(&workers, "workers", "w", runtime.NumCPU(), "games played at once")
	f.IntVar(&maxPieces, "max-pieces", 500, "pieces per game, 0 for no limit")
	f.Uint64Var(&seed, "seed", 0, "seed of the first game")
	f.StringVarP(&output, "output", "o", "", "YAML report file, zstd compressed if it ends in .zst")
	f.BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
