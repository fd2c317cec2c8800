package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/sergi/go-diff/diffmatchpatch"
	flag "github.com/spf13/pflag"
)

var errFileRequired = errors.New("file argument is required")

func newPreviewCommand(app *App) *Command {
	flags := flag.NewFlagSet("preview", flag.ContinueOnError)
	diff := flags.Bool("diff", false, "show a line diff between original and masked content")
	output := flags.StringP("output", "o", "", "write masked content to this file instead of stdout")
	reveal := flags.IntSlice("reveal", nil, "1-based line to leave unmasked (repeatable)")

	return &Command{
		Flags: flags,
		Usage: "preview [flags] <file>",
		Short: "Preview how a dotenv file masks, optionally as a diff",
		Long: `Preview the masked rendering of a dotenv file. With --diff, changed
lines are shown as a unified-style line diff instead of the full
rendering. With -o, the masked content is written atomically to the
given file (useful for producing shareable redacted copies).`,
		Examples: []string{
			"preview --diff .env",
			"preview -o redacted.env .env",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errFileRequired
			}

			content, sourcePath, err := readInput(app, args)
			if err != nil {
				return err
			}

			masked, err := renderMasked(app.Engine, content, sourcePath, revealSet(*reveal))
			if err != nil {
				return err
			}

			if *output != "" {
				outPath := *output
				if !filepath.IsAbs(outPath) {
					outPath = filepath.Join(app.WorkDir, outPath)
				}

				err = atomic.WriteFile(outPath, strings.NewReader(masked))
				if err != nil {
					return err
				}

				o.Println("wrote", *output)

				return nil
			}

			if *diff {
				o.Print(lineDiff(string(content), masked))

				return nil
			}

			o.Print(masked)

			return nil
		},
	}
}

// lineDiff renders a line-granular diff with -/+/space prefixes.
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		prefix := "  "

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			sb.WriteString(prefix)
			sb.WriteString(line)

			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}
