package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/bazhenov/fast-estimate/pkg/streamsummary"
)

// TopCmd returns the top command.
func TopCmd(cfg Config) *Command {
	flags := flag.NewFlagSet("top", flag.ContinueOnError)
	size := flags.IntP("size", "s", cfg.TopSize, "Maximum `number` of tracked lines")
	output := flags.StringP("output", "o", "", "Write the result to `file` instead of stdout")

	return &Command{
		Flags: flags,
		Usage: "top [flags]",
		Short: "Estimate the most frequent input lines",
		Long: "Read lines from standard input until EOF and print the tracked lines in\n" +
			"descending frequency order, one per line as '<count> : <line>'. At most\n" +
			"--size lines are tracked (space-saving), so memory stays bounded on\n" +
			"arbitrarily long input.",
		Exec: func(ctx context.Context, o *IO, in io.Reader, args []string) error {
			return execTop(ctx, o, in, args, *size, *output)
		},
	}
}

func execTop(ctx context.Context, o *IO, in io.Reader, args []string, size int, output string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: %s", errUnexpectedArg, args[0])
	}

	if size < 1 {
		return fmt.Errorf("%w: --size %d", errSizeNotPositive, size)
	}

	summary, err := streamsummary.New(size)
	if err != nil {
		return err
	}

	if err := readLines(ctx, in, func(line string) { summary.Offer(line) }); err != nil {
		return err
	}

	var builder strings.Builder
	for _, item := range summary.Top() {
		fmt.Fprintf(&builder, "%6d : %s\n", item.Count, item.Data)
	}

	return emit(o, output, builder.String())
}
