package cli

import (
	"context"
	"io"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, _ io.Reader, _ []string) error {
			return execPrintConfig(o, cfg)
		},
	}
}

func execPrintConfig(o *IO, cfg *Config) error {
	o.Println("effective_cwd=" + cfg.EffectiveCwd)
	o.Printf("uniq_size=%d\n", cfg.UniqSize)
	o.Printf("top_size=%d\n", cfg.TopSize)
	o.Println("hash=" + cfg.Hash)

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			o.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			o.Println("project_config=" + cfg.Sources.Project)
		}
	}

	return nil
}
