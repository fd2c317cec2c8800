package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/shelterhq/shelter/pkg/shelter"
)

var errNoInput = errors.New("no input: provide a file or pipe stdin")

func newMaskCommand(app *App) *Command {
	flags := flag.NewFlagSet("mask", flag.ContinueOnError)
	reveal := flags.IntSlice("reveal", nil, "1-based line to leave unmasked (repeatable)")
	value := flags.String("value", "", "mask a single value instead of a file")
	mode := flags.String("mode", "", "strategy for --value (default: configured default)")
	source := flags.String("source", "", "source name for pattern resolution when reading stdin")
	maskChar := flags.String("mask-char", "", "mask character for --value")
	showStart := flags.Int("show-start", 0, "leading characters to keep for --value (partial)")
	showEnd := flags.Int("show-end", 0, "trailing characters to keep for --value (partial)")
	minMask := flags.Int("min-mask", 0, "minimum masked characters for --value (partial)")
	fixedLength := flags.Int("fixed-length", 0, "fixed mask length for --value (full)")

	return &Command{
		Flags: flags,
		Usage: "mask [flags] [file]",
		Short: "Print a dotenv file (or stdin) with values masked",
		Long: `Print a dotenv file with every value replaced by its masked form.
Reads the named file, or stdin when no file is given. Layout, comments,
and keys are preserved byte for byte; only value regions change.

With --value, a single value is masked instead; the strategy option
flags apply to that strategy and are validated against its schema.`,
		Examples: []string{
			"mask .env",
			"mask --reveal 2 --reveal 5 .env.local",
			"mask --value hunter2 --mode partial",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			if *value != "" {
				opts := shelter.Options{}

				for name, v := range map[string]any{
					"mask_char":    *maskChar,
					"show_start":   *showStart,
					"show_end":     *showEnd,
					"min_mask":     *minMask,
					"fixed_length": *fixedLength,
				} {
					if flags.Changed(strings.ReplaceAll(name, "_", "-")) {
						opts[name] = v
					}
				}

				if len(opts) == 0 {
					opts = nil
				}

				masked, err := app.Engine.MaskValue(*value, shelter.MaskValueOptions{Mode: *mode, Options: opts})
				if err != nil {
					return err
				}

				o.Println(masked)

				return nil
			}

			content, sourcePath, err := readInput(app, args)
			if err != nil {
				return err
			}

			if sourcePath == "" {
				sourcePath = *source
			}

			masked, err := renderMasked(app.Engine, content, sourcePath, revealSet(*reveal))
			if err != nil {
				return err
			}

			o.Print(masked)

			return nil
		},
	}
}

// readInput returns the content of args[0] (resolved against the work
// directory) or, when no file is named, everything from stdin.
func readInput(app *App, args []string) ([]byte, string, error) {
	if len(args) > 0 && args[0] != "-" {
		path := args[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(app.WorkDir, path)
		}

		content, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", args[0], err)
		}

		return content, path, nil
	}

	if app.Stdin == nil {
		return nil, "", errNoInput
	}

	content, err := io.ReadAll(app.Stdin)
	if err != nil {
		return nil, "", fmt.Errorf("read stdin: %w", err)
	}

	return content, "", nil
}

// renderMasked runs the full pipeline and returns the display rendering.
func renderMasked(engine *shelter.Engine, content []byte, sourcePath string, revealed map[int]bool) (string, error) {
	result, err := engine.GenerateMasks(content, sourcePath)
	if err != nil {
		return "", err
	}

	var spans []shelter.OverlaySpan
	for _, line := range result.Lines {
		spans = append(spans, shelter.MapOverlays(line, result.Doc, revealed)...)
	}

	return shelter.RenderMasked(result.Doc, spans), nil
}

func revealSet(lines []int) map[int]bool {
	if len(lines) == 0 {
		return nil
	}

	set := make(map[int]bool, len(lines))
	for _, line := range lines {
		set[line] = true
	}

	return set
}
