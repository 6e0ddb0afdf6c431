package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/haldirsson/coblame/internal/config"
	"github.com/haldirsson/coblame/internal/objstore"
	"github.com/haldirsson/coblame/internal/ui/styles"
	"github.com/haldirsson/coblame/internal/util"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and database connectivity",
		Long: `Run diagnostics to check if coblame is properly configured.

This command checks:
  - Repository detection (.coblame directory)
  - Local and global configuration
  - Object store connectivity`,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println(styles.Boldf("coblame doctor"))
	fmt.Println()

	allOK := true

	fmt.Print("Checking global configuration... ")
	if _, err := config.LoadGlobal(); err != nil {
		fmt.Println(styles.Errorf("FAILED"))
		fmt.Printf("  Error: %v\n", err)
		allOK = false
	} else {
		fmt.Println(styles.Successf("OK") + fmt.Sprintf(" (%s)", config.GlobalConfigPath()))
	}

	fmt.Print("Checking repository... ")
	root, err := util.FindRepoRoot()
	if err != nil {
		fmt.Println(styles.Mute("NOT IN REPO"))
		fmt.Println("  Run 'coblame init <database-url>' to create a repository")
		fmt.Println()
		if allOK {
			fmt.Println(styles.Successf("All checks passed!"))
		} else {
			fmt.Println(styles.Warningf("Some issues were found. See above for details."))
		}
		return nil
	}
	fmt.Println(styles.Successf("OK") + fmt.Sprintf(" (%s)", root))

	fmt.Print("Checking local configuration... ")
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Println(styles.Errorf("FAILED"))
		fmt.Printf("  Error: %v\n", err)
		allOK = false

		fmt.Println()
		if allOK {
			fmt.Println(styles.Successf("All checks passed!"))
		} else {
			fmt.Println(styles.Warningf("Some issues were found. See above for details."))
		}
		return nil
	}
	fmt.Println(styles.Successf("OK"))

	fmt.Print("Checking database connection... ")
	dbURL := cfg.DatabaseURL()
	if dbURL == "" {
		fmt.Println(styles.Warningf("NOT SET"))
		fmt.Println("  Missing: database.url (or COBLAME_DATABASE_URL)")
		allOK = false
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := objstore.Connect(ctx, dbURL)
		if err != nil {
			fmt.Println(styles.Errorf("FAILED"))
			fmt.Printf("  Error: %v\n", err)
			allOK = false
		} else {
			fmt.Println(styles.Successf("OK"))
			if head, ok, err := store.Head(ctx); err == nil && ok {
				fmt.Printf("  HEAD: %s\n", util.ShortID(string(head)))
			} else if err == nil {
				fmt.Println(styles.Mute("  No HEAD set yet"))
			}
			store.Close()
		}
	}

	fmt.Println()
	if allOK {
		fmt.Println(styles.Successf("All checks passed!"))
	} else {
		fmt.Println(styles.Warningf("Some issues were found. See above for details."))
	}

	return nil
}
