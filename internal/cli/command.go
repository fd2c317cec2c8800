package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one subcommand of the shelter binary. Identity comes from
// the first word of Usage; the FlagSet name is ignored.
type Command struct {
	// Flags holds the command-specific flags. Never nil.
	Flags *flag.FlagSet

	// Usage is the synopsis shown after "shelter" in help output,
	// e.g. "mask [flags] [file]".
	Usage string

	// Short is the one-line description for the command listing.
	Short string

	// Long is the full description for "shelter <cmd> --help".
	// Falls back to Short when empty.
	Long string

	// Examples are ready-to-run invocations without the leading
	// "shelter", rendered under an Examples heading in help output.
	Examples []string

	// Exec runs the command with the positional arguments left over
	// after flag parsing.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the one-line entry for the global command listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-26s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "shelter <cmd> --help":
// synopsis, description, flags, and examples.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: shelter", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder

		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}

	if len(c.Examples) > 0 {
		o.Println()
		o.Println("Examples:")

		for _, example := range c.Examples {
			o.Println("  shelter " + example)
		}
	}
}

// Run parses args against the command's flags and executes it, printing
// errors itself so output ordering stays consistent. The return value is
// the process exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // errors are reported below, not by pflag

	switch err := c.Flags.Parse(args); {
	case errors.Is(err, flag.ErrHelp):
		c.PrintHelp(o)
		return 0
	case err != nil:
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}
