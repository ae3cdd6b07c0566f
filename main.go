package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"blockfall/client"
	"blockfall/config"
	"blockfall/logging"
	"blockfall/scenario"
	"blockfall/settings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	hideCursor = "\033[2J\033[?25l" // also clear screen
	showCursor = "\033[30;0H\n\r\033[?25h"
)

var (
	configFile   string
	variant      string
	scenarioName string
	scenarioFile string
	name         string
	address      string
	logFile      string
	noGhost      bool
)

var rootCmd = &cobra.Command{
	Use:   "blockfall",
	Short: "Falling block puzzles in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := settings.ParseVariant(variant)
		if err != nil {
			return err
		}
		cfg, err := config.Load(configFile, v)
		if err != nil {
			return err
		}
		sc, err := loadScenario(cfg)
		if err != nil {
			return err
		}

		l := logging.Discard()
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()
			l = logging.New(f, "blockfall", cfg.Log.Level)
		}
		if !cmd.Flags().Changed("addr") {
			address = cfg.Server.Addr
		}

		c, err := client.New(os.Stdout, l, &client.Options{
			Scenario: sc,
			NoGhost:  noGhost,
			Address:  address,
			Name:     name,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				l.Error("unable to close client", slog.String("error", err.Error()))
			}
		}()

		restore, err := startRawConsole()
		if err != nil {
			return err
		}
		defer restore()
		c.Start()
		return nil
	},
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built in scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		for _, n := range scenario.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
	},
}

// loadScenario picks the scenario flag, then the scenario file, then a plain
// game on the configured settings.
func loadScenario(cfg *config.Config) (scenario.Scenario, error) {
	switch {
	case scenarioName != "":
		return scenario.Builtin(scenarioName)
	case scenarioFile != "":
		f, err := os.Open(scenarioFile)
		if err != nil {
			return scenario.Scenario{}, err
		}
		defer f.Close()
		return scenario.Load(f)
	}
	return scenario.Scenario{Name: string(cfg.Settings.Variant), Settings: cfg.Settings}, nil
}

func startRawConsole() (func(), error) {
	fmt.Print(hideCursor)
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("setting terminal to raw mode: %w", err)
	}

	return func() {
		if err := term.Restore(int(os.Stdin.Fd()), oldState); err != nil {
			fmt.Fprintf(os.Stderr, "unable to restore the terminal original state: %v\n", err)
		}
		fmt.Print(showCursor)
	}, nil
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configFile, "config", "", "config file")
	f.StringVarP(&variant, "variant", "v", string(settings.Puyo), "puyo, stacker, columns or clicker")
	f.StringVarP(&scenarioName, "scenario", "s", "", "built in scenario: "+strings.Join(scenario.Names(), ", "))
	f.StringVar(&scenarioFile, "scenario-file", "", "scenario YAML file")
	f.StringVarP(&name, "name", "n", os.Getenv("USER"), "player name")
	f.StringVar(&address, "addr", "", "spectator server address, defaults to the configured one")
	f.StringVar(&logFile, "log", "", "append logs to this file")
	f.BoolVar(&noGhost, "no-ghost", false, "hide the ghost piece")
	rootCmd.AddCommand(scenariosCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
