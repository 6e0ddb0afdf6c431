package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/haldirsson/coblame/internal/ui/styles"
	"github.com/haldirsson/coblame/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "coblame",
	Short: "Simultaneous multi-file blame over a content-addressed commit graph",
	Long: `coblame walks a PostgreSQL-backed commit graph backward from HEAD,
following renames and merges across every parent at once, to attribute
each line of a file to the commit that introduced it.

Point it at an object store with 'coblame init <database-url>' (or the
COBLAME_DATABASE_URL environment variable), then run 'coblame blame <file>'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		var coblameErr *util.CoblameError
		if errors.As(err, &coblameErr) {
			fmt.Fprintln(os.Stderr, coblameErr.Format())
		} else {
			fmt.Fprintln(os.Stderr, styles.ErrorMsg(err.Error()))
		}
		return err
	}
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			os.Setenv("COBLAME_NO_COLOR", "1")
		}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newConfigCmd(),
		newDoctorCmd(),
		newBlameCmd(),
		newCompletionCmd(),
	)
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for coblame.

To load completions:

Bash:
  $ source <(coblame completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ coblame completion bash > /etc/bash_completion.d/coblame
  # macOS:
  $ coblame completion bash > $(brew --prefix)/etc/bash_completion.d/coblame

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ coblame completion zsh > "${fpath[1]}/_coblame"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ coblame completion fish | source

  # To load completions for each session, execute once:
  $ coblame completion fish > ~/.config/fish/completions/coblame.fish

PowerShell:
  PS> coblame completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> coblame completion powershell > coblame.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("coblame version %s\n", Version)
			fmt.Printf("  commit: %s\n", CommitSHA)
			fmt.Printf("  built:  %s\n", BuildDate)
		},
	}
}
