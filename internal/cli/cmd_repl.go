package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/shelterhq/shelter/pkg/shelter"
)

func newReplCommand(app *App) *Command {
	flags := flag.NewFlagSet("repl", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "repl",
		Short: "Interactively preview masking for KEY=VALUE lines",
		Long: `Interactively preview masking. Type KEY=VALUE lines to see how they
mask under the current configuration, or a bare value to mask it with
the active strategy.

Repl commands:
  :mode <name>   switch the strategy used for bare values
  :quit          exit`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			prompt := liner.NewLiner()
			defer func() { _ = prompt.Close() }()

			prompt.SetCtrlCAborts(true)

			mode := ""

			for ctx.Err() == nil {
				input, err := prompt.Prompt("shelter> ")
				if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
					return nil
				}

				if err != nil {
					return fmt.Errorf("read: %w", err)
				}

				input = strings.TrimSpace(input)
				if input == "" {
					continue
				}

				prompt.AppendHistory(input)

				switch {
				case input == ":quit" || input == ":q":
					return nil
				case strings.HasPrefix(input, ":mode"):
					name := strings.TrimSpace(strings.TrimPrefix(input, ":mode"))
					if !app.Engine.Registry().Has(name) {
						o.ErrPrintln("unknown strategy:", name)

						continue
					}

					mode = name
					o.Println("mode:", name)
				case strings.Contains(input, "="):
					masked, err := renderMasked(app.Engine, []byte(input+"\n"), "", nil)
					if err != nil {
						o.ErrPrintln("error:", err)

						continue
					}

					o.Print(masked)
				default:
					masked, err := app.Engine.MaskValue(input, shelter.MaskValueOptions{Mode: mode})
					if err != nil {
						o.ErrPrintln("error:", err)

						continue
					}

					o.Println(masked)
				}
			}

			return nil
		},
	}
}
