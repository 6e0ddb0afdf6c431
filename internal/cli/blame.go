package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/haldirsson/coblame/internal/blame"
	"github.com/haldirsson/coblame/internal/config"
	"github.com/haldirsson/coblame/internal/diffengine"
	"github.com/haldirsson/coblame/internal/objstore"
	"github.com/haldirsson/coblame/internal/ui"
	"github.com/haldirsson/coblame/internal/ui/styles"
	"github.com/haldirsson/coblame/internal/util"
	"github.com/spf13/cobra"
)

func newBlameCmd() *cobra.Command {
	var (
		workers           int
		useWorkingTree    bool
		renameScore       int
		breakScore        int
		renameLimit       int
		bigFileThreshold  int64
		skipBinaryRenames bool
		lineComparator    string
		diffAlgorithm     string
		porcelain         bool
	)

	cmd := &cobra.Command{
		Use:   "blame <file> [file...]",
		Short: "Show what revision and author last modified each line",
		Long: `Show what revision and author last modified each line of one or more
files, simultaneously.

Walks the commit graph backward from HEAD, following renames and merges
across every parent at once, to attribute every line of every requested
file to the commit that introduced it. Multiple files share a single
graph walk, which is the point: asking for N files costs one traversal,
not N.

For each line, shows:
  - Short commit hash
  - Author email
  - Date
  - Line number

The line's text itself is not printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := parseLineComparator(lineComparator)
			if err != nil {
				return err
			}
			alg, err := parseDiffAlgorithm(diffAlgorithm)
			if err != nil {
				return err
			}
			return runBlame(cmd, args, blameFlags{
				workers:           workers,
				useWorkingTree:    useWorkingTree,
				renameScore:       renameScore,
				breakScore:        breakScore,
				renameLimit:       renameLimit,
				bigFileThreshold:  bigFileThreshold,
				skipBinaryRenames: skipBinaryRenames,
				lineComparator:    cmp,
				diffAlgorithm:     alg,
				porcelain:         porcelain,
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "blame worker pool size (0 uses the repository default)")
	cmd.Flags().BoolVarP(&useWorkingTree, "working-tree", "w", false, "start the walk from a working-tree node anchored at HEAD; no files are read from disk, so its content is HEAD's")
	cmd.Flags().IntVar(&renameScore, "rename-score", 0, "minimum similarity score (0-100) to treat an add/delete pair as a rename (0 uses the repository default)")
	cmd.Flags().IntVar(&breakScore, "break-score", 0, "similarity score below which a modify is broken into a delete+add; 0 uses the repository default")
	cmd.Flags().IntVar(&renameLimit, "rename-limit", 0, "maximum add/delete candidate pairs scored per commit; 0 is unlimited")
	cmd.Flags().Int64Var(&bigFileThreshold, "big-file-threshold", 0, "files larger than this many bytes skip similarity scoring (0 uses the repository default)")
	cmd.Flags().BoolVar(&skipBinaryRenames, "skip-binary-renames", false, "skip similarity scoring entirely for binary content")
	cmd.Flags().StringVar(&lineComparator, "line-comparator", "default", "line equality check before diffing: default|ignore-whitespace")
	cmd.Flags().StringVar(&diffAlgorithm, "diff-algorithm", "myers", "diff algorithm: myers|histogram")
	cmd.Flags().BoolVar(&porcelain, "porcelain", false, "machine-readable output: one line per attribution, stable field order")

	return cmd
}

func parseLineComparator(s string) (diffengine.LineComparator, error) {
	switch s {
	case "", "default":
		return diffengine.CompareDefault, nil
	case "ignore-whitespace":
		return diffengine.CompareIgnoreWhitespace, nil
	default:
		return 0, fmt.Errorf("unknown --line-comparator: %s (want default|ignore-whitespace)", s)
	}
}

func parseDiffAlgorithm(s string) (diffengine.Algorithm, error) {
	switch s {
	case "", "myers":
		return diffengine.AlgorithmMyers, nil
	case "histogram":
		return diffengine.AlgorithmHistogram, nil
	default:
		return 0, fmt.Errorf("unknown --diff-algorithm: %s (want myers|histogram)", s)
	}
}

type blameFlags struct {
	workers           int
	useWorkingTree    bool
	renameScore       int
	breakScore        int
	renameLimit       int
	bigFileThreshold  int64
	skipBinaryRenames bool
	lineComparator    diffengine.LineComparator
	diffAlgorithm     diffengine.Algorithm
	porcelain         bool
}

func runBlame(cmd *cobra.Command, paths []string, flags blameFlags) error {
	repoRoot, err := util.FindRepoRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := objstore.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		return util.DatabaseConnectionError(cfg.DatabaseURL(), err)
	}
	defer store.Close()

	workers := flags.workers
	if workers == 0 {
		workers = cfg.Blame.Workers
	}
	renameScore := flags.renameScore
	if renameScore == 0 {
		renameScore = cfg.Blame.RenameScore
	}
	breakScore := flags.breakScore
	if breakScore == 0 {
		breakScore = cfg.Blame.BreakScore
	}
	bigFileThreshold := flags.bigFileThreshold
	if bigFileThreshold == 0 {
		bigFileThreshold = cfg.Blame.BigFileThreshold
	}

	var spin *ui.Spinner
	if !flags.porcelain {
		spin = ui.NewSpinner(fmt.Sprintf("blaming %d file(s)", len(paths)))
		spin.Start()
		defer spin.Stop()
	}

	results, err := blame.Run(ctx, store, blame.Options{
		UseWorkingTree:    flags.useWorkingTree,
		FilePaths:         paths,
		RenameScore:       renameScore,
		BreakScore:        breakScore,
		RenameLimit:       flags.renameLimit,
		BigFileThreshold:  bigFileThreshold,
		SkipBinaryRenames: flags.skipBinaryRenames || cfg.Blame.SkipBinaryRenames,
		LineComparator:    flags.lineComparator,
		Algorithm:         flags.diffAlgorithm,
		Workers:           workers,
		Progress: func(iteration int, commitHash string) {
			if spin != nil {
				spin.SetMessage(fmt.Sprintf("blaming %d file(s): %d commits visited, at %s",
					len(paths), iteration, util.ShortID(commitHash)))
			}
		},
	})
	if err != nil {
		return err
	}
	if spin != nil {
		spin.Stop()
	}
	if len(results) == 0 {
		return util.ErrFileNotFound
	}

	for i, fr := range results {
		if !flags.porcelain && len(results) > 1 {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(styles.SectionHeader(fr.Path))
		}
		if flags.porcelain {
			printBlamePorcelain(fr)
		} else {
			printBlame(fr)
		}
	}
	return nil
}

func printBlamePorcelain(fr blame.FileResult) {
	for i, l := range fr.Lines {
		if l == nil {
			fmt.Printf("%s\t0000000\t\t\t%d\n", fr.Path, i+1)
			continue
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%d\n",
			fr.Path, l.CommitHash, util.ToValidUTF8(l.AuthorEmail), l.CommitDate.UTC().Format(time.RFC3339), i+1)
	}
}

func printBlame(fr blame.FileResult) {
	maxAuthorLen := 0
	for _, l := range fr.Lines {
		if l == nil {
			continue
		}
		if n := len(util.ToValidUTF8(l.AuthorEmail)); n > maxAuthorLen {
			maxAuthorLen = n
		}
	}
	if maxAuthorLen > 24 {
		maxAuthorLen = 24
	}

	lineNumWidth := len(fmt.Sprintf("%d", len(fr.Lines)))

	for i, l := range fr.Lines {
		shortHash := "0000000"
		author := "unknown"
		dateStr := "          "

		if l != nil {
			shortHash = util.ShortID(l.CommitHash)
			author = util.ToValidUTF8(l.AuthorEmail)
			if len(author) > maxAuthorLen {
				author = author[:maxAuthorLen]
			}
			if !l.CommitDate.IsZero() {
				dateStr = util.RelativeTimeShort(l.CommitDate)
			}
		}

		author = fmt.Sprintf("%-*s", maxAuthorLen, author)

		fmt.Printf("%s %s %s %*d)\n",
			styles.Yellow(shortHash),
			styles.Green(author),
			styles.Mute(dateStr),
			lineNumWidth, i+1)
	}
}
