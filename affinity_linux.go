//go:build linux

package taskpool

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pinToCPU binds the calling OS thread to the index-th CPU of the process's
// allowed set, wrapping around. The caller must hold runtime.LockOSThread.
func pinToCPU(index int) error {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return fmt.Errorf("sched_getaffinity: %w", err)
	}

	cpus := make([]int, 0, allowed.Count())
	for cpu := 0; len(cpus) < allowed.Count(); cpu++ {
		if allowed.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	if len(cpus) == 0 {
		return fmt.Errorf("no cpu available for worker %d", index)
	}

	cpu := cpus[index%len(cpus)]
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity cpu %d: %w", cpu, err)
	}
	return nil
}
