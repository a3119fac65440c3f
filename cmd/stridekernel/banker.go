package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"stridekernel/defs"
	"stridekernel/proc"
	"stridekernel/sched"
)

// bankerCmd reproduces spec.md §8's banker-refusal scenario: semaphores
// A and B both init 1; T0 holds A and requests B; T1 holds B and
// requests A. T1's down(A) must come back -0xDEAD without blocking.
type bankerCmd struct{}

func (*bankerCmd) Name() string     { return "banker-demo" }
func (*bankerCmd) Synopsis() string { return "run the two-semaphore deadlock-refusal scenario" }
func (*bankerCmd) Usage() string    { return "banker-demo\n" }

func (*bankerCmd) SetFlags(*flag.FlagSet) {}

func (*bankerCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	p := proc.NewBareProcess([]int{16, 16})
	p.DeadlockDetect = true
	s := sched.New()

	semA := p.CreateSemaphore(1)
	semB := p.CreateSemaphore(1)

	if r := p.SemDown(semA, 0); r != proc.SemAcquired {
		fmt.Println("T0 down(A) unexpectedly did not acquire")
		return subcommands.ExitFailure
	}
	if r := p.SemDown(semB, 1); r != proc.SemAcquired {
		fmt.Println("T1 down(B) unexpectedly did not acquire")
		return subcommands.ExitFailure
	}
	if r := p.SemDown(semB, 0); r != proc.SemMustBlock {
		fmt.Println("T0 down(B) should have blocked, not deadlocked yet")
		return subcommands.ExitFailure
	}
	r := p.SemDown(semA, 1)
	if r != proc.SemDeadlock {
		fmt.Println("T1 down(A) should have been refused as a deadlock")
		return subcommands.ExitFailure
	}
	fmt.Println("T1 down(A) refused: -0xDEAD (", int64(defs.EDEADLK), ")")

	p.SemUp(semB, 1, s)
	fmt.Println("T1 released B; system can now progress")
	return subcommands.ExitSuccess
}
