// Command taskpool-bench drives a configured pool with the round-trip
// workload: N counter increments submitted by M producers, a share of them
// from inside running tasks, then checks that every increment happened
// exactly once.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
