package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// UsageError reports a malformed command line.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// Exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Execute runs the command line and returns the process exit status.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintf(stderr, "error: %s\n\n%s", usage.Msg, cmd.UsageString())
		return ExitUsage
	}
	fmt.Fprintf(stderr, "error: %s\n", err)
	return ExitFailure
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "docsplit <document> [output_dir]",
		Short: "Split a document into one text file per outline chapter",
		Long: `docsplit reads the outline (bookmarks or headings) of a document and
writes the plain text of every chapter to <output_dir>/<title>.txt.
Supported inputs: PDF, Markdown, HTML, DOCX and form-feed paged text.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return &UsageError{Msg: fmt.Sprintf("expected <document> [output_dir], got %d argument(s)", len(args))}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := "."
			if len(args) == 2 {
				outDir = args[1]
			}
			return splitDocument(cmd, f, args[0], outDir, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Msg: err.Error()}
	})

	cmd.Flags().StringVar(&f.engine, "engine", "", "PDF engine: native|fitz (default from DOCSPLIT_PDF_ENGINE, else native)")
	cmd.Flags().BoolVar(&f.dedupe, "dedupe", false, "Append -2, -3, ... instead of overwriting chapters with the same file name")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail on empty, inverted or out-of-bounds chapter ranges")
	cmd.Flags().StringVar(&f.outline, "outline", "", "CSV file (title,page[,depth], 1-based pages) replacing the document outline")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the resolved chapters without writing files")
	cmd.Flags().BoolVar(&f.pdftotext, "pdftotext", false, "Fall back to the pdftotext binary for pages the native engine cannot read")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	return cmd
}
