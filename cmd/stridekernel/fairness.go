package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"stridekernel/proc"
	"stridekernel/sched"
)

// fairnessCmd reproduces spec.md §8's stride-fairness scenario: two
// threads at priorities 2 and 4 fetched in a tight loop; over 6000
// dispatches the ratio of the priority-4 thread's count to the
// priority-2 thread's count should land in [1.9, 2.1].
type fairnessCmd struct {
	dispatches int
}

func (*fairnessCmd) Name() string     { return "fairness-demo" }
func (*fairnessCmd) Synopsis() string { return "run the two-priority stride-fairness scenario" }
func (*fairnessCmd) Usage() string    { return "fairness-demo [-dispatches N]\n" }

func (c *fairnessCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.dispatches, "dispatches", 6000, "number of scheduler dispatches to run")
}

func (c *fairnessCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	p := proc.NewBareProcess([]int{2, 4})
	s := sched.New()
	for _, t := range p.Threads {
		s.Wake(t)
	}
	counts := make(map[int]int)
	for i := 0; i < c.dispatches; i++ {
		r := s.Fetch()
		if r == nil {
			break
		}
		counts[r.Tid()]++
		s.Wake(r)
	}
	ratio := float64(counts[1]) / float64(counts[0])
	fmt.Printf("tid0(prio2)=%d tid1(prio4)=%d ratio=%.3f\n", counts[0], counts[1], ratio)
	return subcommands.ExitSuccess
}
