package cli

import (
	"context"
	"encoding/json"
	"fmt"

	flag "github.com/spf13/pflag"
)

type parsedEntry struct {
	Key        string `json:"key"`
	Value      string `json:"value,omitempty"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	KeyStart   int    `json:"key_start"`
	KeyEnd     int    `json:"key_end"`
	ValueStart int    `json:"value_start"`
	ValueEnd   int    `json:"value_end"`
	Quote      string `json:"quote"`
	Exported   bool   `json:"exported,omitempty"`
	IsComment  bool   `json:"comment,omitempty"`
}

type parseOutput struct {
	Lines   int           `json:"lines"`
	Entries []parsedEntry `json:"entries"`
}

func newParseCommand(app *App) *Command {
	flags := flag.NewFlagSet("parse", flag.ContinueOnError)
	raw := flags.Bool("raw", false, "include raw values in the output")

	return &Command{
		Flags: flags,
		Usage: "parse [flags] [file]",
		Short: "Dump the parsed entries of a dotenv file as JSON",
		Long: `Dump every recognized key=value entry with its exact byte spans and
line range as JSON. Values are omitted unless --raw is given, so the
output is safe to paste into bug reports by default.`,
		Examples: []string{
			"parse .env",
			"parse --raw .env",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			content, _, err := readInput(app, args)
			if err != nil {
				return err
			}

			doc, err := app.Engine.Parse(content)
			if err != nil {
				return err
			}

			out := parseOutput{
				Lines:   doc.LineCount(),
				Entries: make([]parsedEntry, 0, len(doc.Entries)),
			}

			for _, e := range doc.Entries {
				entry := parsedEntry{
					Key:        e.Key,
					StartLine:  e.StartLine,
					EndLine:    e.EndLine,
					KeyStart:   e.KeyStart,
					KeyEnd:     e.KeyEnd,
					ValueStart: e.ValueStart,
					ValueEnd:   e.ValueEnd,
					Quote:      e.Quote.String(),
					Exported:   e.Exported,
					IsComment:  e.IsComment,
				}

				if *raw {
					entry.Value = e.Value
				}

				out.Entries = append(out.Entries, entry)
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			o.Println(string(data))

			return nil
		},
	}
}
