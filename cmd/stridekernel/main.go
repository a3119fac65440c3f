// Command stridekernel is a host-side demo harness for the kernel core:
// it boots a kernel against an ELF-like image and drives a handful of
// scenarios from spec.md §8 end to end, without any real RISC-V trap
// entry or hardware. Subcommand dispatch follows
// Talismancer-gvisor-ligolo's runsc/cli (github.com/google/subcommands),
// the same dependency the retrieval pack's gvisor-family repos use for
// their own CLI entrypoints.
package main

import (
	"context"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&bootCmd{}, "")
	subcommands.Register(&fairnessCmd{}, "")
	subcommands.Register(&bankerCmd{}, "")

	os.Exit(int(subcommands.Execute(context.Background())))
}
