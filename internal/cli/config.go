package cli

import (
	"fmt"
	"strings"

	"github.com/haldirsson/coblame/internal/config"
	"github.com/haldirsson/coblame/internal/util"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var global bool
	var list bool

	cmd := &cobra.Command{
		Use:   "config <key> [value]",
		Short: "Get and set blame engine and database options",
		Long: fmt.Sprintf(`Get and set configuration options.

Local config (.coblame/config.toml) and the global config (%s)
are separate files; blame reads only the local one.

Examples:
  coblame config database.url                    # Get value
  coblame config blame.rename_score 75            # Set value
  coblame config --global blame.workers 8         # Set in global config
  coblame config --list                           # List all config

Available keys:
%s`, config.GlobalConfigPath(), config.GenerateLocalHelpText()),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(args, global, list)
		},
	}

	cmd.Flags().BoolVarP(&global, "global", "g", false, "operate on the global config instead of the repository's")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list all configuration values")

	return cmd
}

func runConfig(args []string, global, list bool) error {
	if global {
		return runGlobalConfig(args, list)
	}
	return runLocalConfig(args, list)
}

func runLocalConfig(args []string, list bool) error {
	root, err := util.FindRepoRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if list {
		for _, key := range config.ListLocalKeys() {
			if value, ok := cfg.GetValue(key); ok {
				fmt.Printf("%s=%s\n", key, value)
			}
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("usage: coblame config [--global] <key> [value]")
	}

	key := strings.ToLower(args[0])

	if len(args) == 1 {
		value, ok := cfg.GetValue(key)
		if !ok {
			return fmt.Errorf("unknown config key: %s", key)
		}
		fmt.Println(value)
		return nil
	}

	if err := cfg.SetValue(key, args[1]); err != nil {
		return err
	}
	if err := cfg.Save(root); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func runGlobalConfig(args []string, list bool) error {
	cfg, err := config.LoadGlobal()
	if err != nil {
		return fmt.Errorf("failed to load global config: %w", err)
	}

	if list {
		for _, key := range config.ListGlobalKeys() {
			if value, ok := cfg.GetValue(key); ok {
				fmt.Printf("%s=%s\n", key, value)
			}
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("usage: coblame config --global <key> [value]")
	}

	key := strings.ToLower(args[0])

	if len(args) == 1 {
		value, ok := cfg.GetValue(key)
		if !ok {
			return fmt.Errorf("unknown config key: %s", key)
		}
		fmt.Println(value)
		return nil
	}

	if err := cfg.SetValue(key, args[1]); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save global config: %w", err)
	}
	return nil
}
