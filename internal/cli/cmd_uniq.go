package cli

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/bazhenov/fast-estimate/pkg/linearcount"
)

// UniqCmd returns the uniq command.
func UniqCmd(cfg Config) *Command {
	flags := flag.NewFlagSet("uniq", flag.ContinueOnError)
	size := flags.IntP("size", "s", cfg.UniqSize, "Bitmap size in 4 byte `words`")
	hashName := flags.String("hash", cfg.Hash, "Hash `function` (md5|xxhash)")
	output := flags.StringP("output", "o", "", "Write the result to `file` instead of stdout")

	return &Command{
		Flags: flags,
		Usage: "uniq [flags]",
		Short: "Estimate the number of distinct input lines",
		Long: "Read lines from standard input until EOF and print an estimate of how\n" +
			"many distinct lines were seen, using linear counting over a fixed-size\n" +
			"bitmap. Memory use is bounded by --size regardless of input length.",
		Exec: func(ctx context.Context, o *IO, in io.Reader, args []string) error {
			return execUniq(ctx, o, in, args, *size, *hashName, *output)
		},
	}
}

func execUniq(
	ctx context.Context, o *IO, in io.Reader, args []string, size int, hashName, output string,
) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: %s", errUnexpectedArg, args[0])
	}

	if size < 1 {
		return fmt.Errorf("%w: --size %d", errSizeNotPositive, size)
	}

	hash, err := hashByName(hashName)
	if err != nil {
		return err
	}

	counter, err := linearcount.NewWithHash(size, hash)
	if err != nil {
		return err
	}

	if err := readLines(ctx, in, counter.Offer); err != nil {
		return err
	}

	return emit(o, output, fmt.Sprintf("%d\n", counter.Estimate()))
}

func hashByName(name string) (linearcount.Hash, error) {
	switch name {
	case HashMD5:
		return linearcount.MD5, nil
	case HashXXHash:
		return linearcount.XXHash, nil
	default:
		return nil, fmt.Errorf("%w: %q (want md5 or xxhash)", errUnknownHash, name)
	}
}
