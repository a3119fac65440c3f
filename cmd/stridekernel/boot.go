package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"stridekernel/config"
	"stridekernel/proc"
)

type bootCmd struct {
	configPath string
}

func (*bootCmd) Name() string     { return "boot" }
func (*bootCmd) Synopsis() string { return "boot a kernel against an ELF-like image and report its initial process" }
func (*bootCmd) Usage() string {
	return "boot -config <path> <image-path>\n"
}

func (c *bootCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a TOML boot config (optional)")
}

func (c *bootCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return subcommands.ExitFailure
	}
	image, rerr := os.ReadFile(f.Arg(0))
	if rerr != nil {
		fmt.Fprintln(os.Stderr, "image:", rerr)
		return subcommands.ExitFailure
	}
	k := proc.NewKernel(cfg, os.Stdin.Read, os.Stdout.Write)
	init, berr := k.Boot(image)
	if berr != 0 {
		fmt.Fprintln(os.Stderr, "boot failed:", berr)
		return subcommands.ExitFailure
	}
	fmt.Printf("booted initial process pid=%d threads=%d\n", init.Pid, len(init.Threads))
	return subcommands.ExitSuccess
}
