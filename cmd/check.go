package cmd

import (
	"errors"
	"fmt"

	"github.com/samsaffron/buddy-render/internal/guard"
	"github.com/spf13/cobra"
)

var checkQuiet bool

// errNotRendered makes `check --quiet` exit non-zero without printing.
var errNotRendered = errors.New("content is not rendered")

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Report whether content is already rendered",
	Long: `Report whether text already carries the pipeline's rendering markers,
in which case render passes it through instead of processing it again.

Examples:
  buddy-render check reply.html
  buddy-render check -q reply.md || buddy-render render reply.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Print nothing; exit status 1 when not rendered")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readInput(path)
	if err != nil {
		return err
	}

	sig, rendered := guard.Match(text)
	if checkQuiet {
		if !rendered {
			cmd.SilenceErrors = true
			return errNotRendered
		}
		return nil
	}

	out := cmd.OutOrStdout()
	st := stylesFor(out)
	if rendered {
		fmt.Fprintln(out, st.FormatResult(true, fmt.Sprintf("already rendered (found %q)", sig)))
		return nil
	}
	fmt.Fprintln(out, st.FormatResult(false, "not rendered"))
	return nil
}
