package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/l1jgo/autobuild/internal/config"
)

const defaultConfigPath = "config/autobuild.toml"

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:     "autobuild",
		Version: version,
		Short:   "Blueprint-driven construction automaton",
		Long: `autobuild replays stored blueprints into a sandbox world: it finds ground
for the foundations, debits materials as it goes, pauses while the builder
is short, and settles structural stability once the build is done.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default $AUTOBUILD_CONFIG or "+defaultConfigPath+")")

	load := func() (*config.Config, error) { return loadConfig(cfgPath) }
	root.AddCommand(newBuildCmd(load))
	root.AddCommand(newBlueprintCmd(load))
	root.AddCommand(newMigrateCmd(load))
	return root
}

// loadConfig reads the given file. Without an explicit path a missing
// default file falls back to the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
		if p := os.Getenv("AUTOBUILD_CONFIG"); p != "" {
			path, explicit = p, true
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.Defaults(), nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
