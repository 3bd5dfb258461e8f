// Package sched drives cursors: a process-global runnable list served
// round-robin with a fixed step quantum, a GC cycle between rounds,
// and an I/O readiness poll phase that suspends cursors blocked on
// sockets and wakes exactly the ones whose readiness arrived.
package sched

import (
	"fmt"
	"io"
	"os"

	"github.com/mint-lang/mint/internal/config"
	"github.com/mint-lang/mint/internal/module"
	"github.com/mint-lang/mint/internal/vm"
)

// Scheduler multiplexes cursors over one OS thread. All cursor
// execution, socket-table mutation, and collection happen from the
// goroutine that calls Run, so none of the shared structures need
// locking.
type Scheduler struct {
	vm        *vm.VM
	queue     []*vm.Cursor
	suspended map[int]*vm.Cursor

	Sockets *SocketTable

	over     bool
	exitCode int

	Stderr io.Writer
}

func New(v *vm.VM) *Scheduler {
	return &Scheduler{
		vm:        v,
		suspended: make(map[int]*vm.Cursor),
		Sockets:   NewSocketTable(),
		Stderr:    os.Stderr,
	}
}

// Load creates a cursor over mod's entry point and queues it.
func (s *Scheduler) Load(mod *module.Module) *vm.Cursor {
	cur := s.vm.NewCursor(mod)
	s.queue = append(s.queue, cur)
	return cur
}

// Idle reports whether no cursor is runnable or suspended.
func (s *Scheduler) Idle() bool {
	return len(s.queue) == 0 && len(s.suspended) == 0
}

// Run drives rounds until every cursor has finished or exit-exec
// marked the scheduler over, and returns the process exit status.
func (s *Scheduler) Run() int {
	for !s.over && !s.Idle() {
		s.Round()
	}
	return s.exitCode
}

// Round is one full pass: give each runnable cursor one quantum, fold
// in cursors spawned during the pass, run a GC cycle, then poll for
// socket readiness if anything blocked since the last round.
func (s *Scheduler) Round() {
	runnable := s.queue
	s.queue = s.queue[len(s.queue):]

	for _, cur := range runnable {
		if s.over {
			s.queue = append(s.queue, cur)
			continue
		}
		finished := s.exec(cur, config.Quantum)
		s.adopt()
		switch {
		case finished:
			s.vm.Release(cur)
		case cur.Blocked >= 0:
			s.suspended[cur.Blocked] = cur
		default:
			s.queue = append(s.queue, cur)
		}
	}
	if s.over {
		return
	}

	s.vm.Heap.Collect()

	if s.Sockets.anyBlocked() {
		woken, err := s.Sockets.pollSockets()
		if err != nil {
			fmt.Fprintf(s.Stderr, "mint: poll: %v\n", err)
			return
		}
		for _, fd := range woken {
			cur, ok := s.suspended[fd]
			if !ok {
				continue
			}
			delete(s.suspended, fd)
			cur.Blocked = -1
			s.queue = append(s.queue, cur)
		}
	}
}

// exec grants cur up to quantum steps, stopping early when the cursor
// finishes, yields, or suspends on a socket. An unhandled raise is the
// default fatal path: its diagnostic goes to Stderr and the scheduler
// is marked over with a nonzero status, regardless of sibling cursors.
func (s *Scheduler) exec(cur *vm.Cursor, quantum int) bool {
	for i := 0; i < quantum; i++ {
		done, err := s.vm.Step(cur)
		if err != nil {
			if unhandled, ok := err.(*vm.Unhandled); ok {
				fmt.Fprintf(s.Stderr, "mint: %s\n", unhandled.Error())
				s.over = true
				s.exitCode = 1
				return true
			}
			fmt.Fprintf(s.Stderr, "mint: %v\n", err)
			s.over = true
			s.exitCode = 1
			return true
		}
		if done {
			if cur.ExitRequested {
				s.over = true
				s.exitCode = cur.ExitCode
			}
			return true
		}
		if cur.Yielded {
			cur.Yielded = false
			return false
		}
		if cur.Blocked >= 0 {
			return false
		}
	}
	return false
}

// adopt folds cursors spawned during the last exec into the run
// queue, behind every cursor already waiting.
func (s *Scheduler) adopt() {
	if len(s.vm.Spawned) == 0 {
		return
	}
	s.queue = append(s.queue, s.vm.Spawned...)
	s.vm.Spawned = s.vm.Spawned[:0]
}
