//go:build !linux

package taskpool

import "github.com/Swind/go-task-pool/core"

func pinToCPU(int) error {
	return core.ErrAffinityUnsupported
}
