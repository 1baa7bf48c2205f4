package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/viewvolt/extension/internal/app"
	"github.com/viewvolt/extension/internal/config"
)

// BuildDate can be set at build time via ldflags.
var BuildDate = "unknown"

var configDir string

var rootCmd = &cobra.Command{
	Use:   "viewvolt",
	Short: "Saved camera positions for 3D views",
	Long: `viewvolt keeps named camera positions and restores them on demand.
Without a subcommand it reads one host command per line from stdin, for
example ":VIEW:ADD:|Front|0,0,10|0,1,0|0,0,-1", and prints the reply.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return session(cmd, func(a *app.App, view *consoleView, ui *consoleUI) error {
			return runShell(a.Bridge, view, ui)
		})
	},
}

var callCmd = &cobra.Command{
	Use:   "call <command> [args...]",
	Short: "Send a single host command and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return session(cmd, func(a *app.App, _ *consoleView, ui *consoleUI) error {
			fmt.Fprintln(ui.out, a.Bridge.Call(args[0], args[1:]))
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "viewvolt %s (built %s)\n", app.Version, BuildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "directory holding "+config.FileName+" (default: user config dir)")
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(versionCmd)
}

func session(cmd *cobra.Command, run func(*app.App, *consoleView, *consoleUI) error) error {
	dir := configDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(base, config.AppDirName)
	}

	view := &consoleView{pose: defaultCamera}
	ui := &consoleUI{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}

	a, err := app.New(app.Options{ConfigDir: dir, Host: consoleHost{view: view}, UI: ui})
	if err != nil {
		return err
	}
	defer a.Close()

	return run(a, view, ui)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
