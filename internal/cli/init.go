package cli

import (
	"fmt"
	"os"

	"github.com/haldirsson/coblame/internal/config"
	"github.com/haldirsson/coblame/internal/ui/styles"
	"github.com/haldirsson/coblame/internal/util"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [database-url]",
		Short: "Create a .coblame directory pointing at an object store",
		Long: `Create a .coblame directory in the current directory, marking it as
a repository root. If a database URL is given it is written to
.coblame/config.toml; otherwise coblame falls back to the
COBLAME_DATABASE_URL environment variable at blame time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	if _, err := util.FindRepoRootFrom(cwd); err == nil {
		return util.ErrAlreadyInitialized
	}

	if err := os.MkdirAll(util.RepoDirPath(cwd), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", util.RepoDir, err)
	}

	cfg := config.DefaultConfig(cwd)
	if len(args) == 1 {
		cfg.Database.URL = args[0]
	}
	if err := cfg.Save(cwd); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Println(styles.SuccessMsg(fmt.Sprintf("Initialized coblame repository in %s", util.RepoDirPath(cwd))))
	if cfg.Database.URL == "" {
		fmt.Println(styles.MutedMsg("No database URL set; export COBLAME_DATABASE_URL or run 'coblame config database.url <url>'"))
	}
	return nil
}
