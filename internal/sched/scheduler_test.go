package sched

import (
	"bytes"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/kinds"
	"github.com/mint-lang/mint/internal/module"
	"github.com/mint-lang/mint/internal/native"
	"github.com/mint-lang/mint/internal/vm"
)

func newTestScheduler(t *testing.T) (*Scheduler, *vm.VM, *bytes.Buffer) {
	t.Helper()
	heap := gc.NewHeap()
	classes := class.NewRegistry()
	registry := module.NewRegistry(t.TempDir())
	v := vm.New(registry, classes, heap)
	out := new(bytes.Buffer)
	v.Stdout = out
	v.Stderr = new(bytes.Buffer)
	s := New(v)
	s.Stderr = v.Stderr.(*bytes.Buffer)
	return s, v, out
}

// printLoopModule prints tag n times, yielding after each print.
func printLoopModule(name, tag string, n int) *module.Module {
	m := module.New(name)
	tagIdx := m.AddConstant(kinds.NewString(tag))
	for i := 0; i < n; i++ {
		m.Emit(module.OpPushConst, tagIdx, 0, 0)
		m.Emit(module.OpPrint, 0, 0, 0)
		m.Emit(module.OpYield, 0, 0, 0)
	}
	m.Emit(module.OpHalt, 0, 0, 0)
	return m
}

func TestRoundRobinInterleavesAtYields(t *testing.T) {
	s, v, out := newTestScheduler(t)

	a := printLoopModule("a", "a", 3)
	b := printLoopModule("b", "b", 3)
	v.Registry.Register(a.Name, a)
	v.Registry.Register(b.Name, b)
	s.Load(a)
	s.Load(b)

	if code := s.Run(); code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}
	if got := out.String(); got != "ababab" {
		t.Errorf("interleaving = %q, want ababab", got)
	}
	if !s.Idle() {
		t.Error("scheduler must be idle after all cursors finish")
	}
}

func TestExitExecStopsSiblingCursors(t *testing.T) {
	s, v, out := newTestScheduler(t)

	exiter := module.New("exiter")
	code := exiter.AddConstant(kinds.NewInt(7))
	exiter.Emit(module.OpPushConst, code, 0, 0)
	exiter.Emit(module.OpExit, 0, 1, 0)
	v.Registry.Register(exiter.Name, exiter)

	// The sibling would print forever if the scheduler kept running it.
	sibling := printLoopModule("sibling", "x", 1000)
	v.Registry.Register(sibling.Name, sibling)

	s.Load(exiter)
	s.Load(sibling)

	if got := s.Run(); got != 7 {
		t.Fatalf("exit code = %d, want 7", got)
	}
	if len(out.String()) >= 1000 {
		t.Error("exit-exec must stop subsequent rounds even with runnable siblings")
	}
}

func TestUnhandledRaiseTerminatesWithNonzeroStatus(t *testing.T) {
	s, v, _ := newTestScheduler(t)

	m := module.New("boom")
	msg := m.AddConstant(kinds.NewString("kaboom"))
	m.Emit(module.OpPushConst, msg, 0, 0)
	m.Emit(module.OpRaise, 0, 0, 0)
	v.Registry.Register(m.Name, m)
	s.Load(m)

	if got := s.Run(); got == 0 {
		t.Fatal("unhandled raise must exit nonzero")
	}
	if !bytes.Contains(s.Stderr.(*bytes.Buffer).Bytes(), []byte("kaboom")) {
		t.Error("diagnostic must carry the raised value")
	}
}

func TestSpawnedCursorJoinsQueue(t *testing.T) {
	s, v, out := newTestScheduler(t)

	m := module.New("main")
	childEntry := 4
	fn := class.NewFunction("child")
	fn.AddSignature(class.Fixed(0), &class.Entry{Offset: childEntry})
	fnIdx := m.AddConstant(fn)
	tag := m.AddConstant(kinds.NewString("c"))

	m.Emit(module.OpPushConst, fnIdx, 0, 0) // 0
	m.Emit(module.OpSpawn, 0, 0, 0)         // 1
	m.Emit(module.OpYield, 0, 0, 0)         // 2
	m.Emit(module.OpHalt, 0, 0, 0)          // 3
	m.Emit(module.OpPushConst, tag, 0, 0)   // 4: child body
	m.Emit(module.OpPrint, 0, 0, 0)
	m.Emit(module.OpHalt, 0, 0, 0)
	v.Registry.Register(m.Name, m)
	s.Load(m)

	if code := s.Run(); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if out.String() != "c" {
		t.Errorf("spawned cursor output = %q, want c", out.String())
	}
}

func TestGCRunsBetweenRoundsAndReclaimsCycles(t *testing.T) {
	s, v, _ := newTestScheduler(t)

	deletions := 0
	node := class.New("Node")
	node.Declare("next", gc.NewCell(0, nil), 0, false)
	class.RegisterOperator(node, class.OpDelete, class.Fixed(1), &class.Entry{Native: func(cur native.Cursor, argc int) error {
		native.PopArgs(cur, 1)
		deletions++
		return nil
	}}, false)
	v.Classes.Register(node)

	baseline := v.Heap.Stats().Live

	a := class.NewInstance(node)
	b := class.NewInstance(node)
	v.Heap.Alloc(a)
	v.Heap.Alloc(b)
	mem, _ := node.Resolve("next")
	a.Slot(mem.Offset).Set(b)
	b.Slot(mem.Offset).Set(a)

	v.Globals["a"] = gc.NewCell(0, a)
	v.Globals["b"] = gc.NewCell(0, b)

	s.Round()
	if deletions != 0 {
		t.Fatal("rooted cycle must survive")
	}

	v.Globals["a"].Set(nil)
	v.Globals["b"].Set(nil)
	s.Round()
	s.Round()

	if deletions != 2 {
		t.Errorf("delete ran %d times, want exactly once per object", deletions)
	}
	if live := v.Heap.Stats().Live; live != baseline {
		t.Errorf("live count %d, want baseline %d", live, baseline)
	}
}

// A writer cursor pushes 1024 bytes through a socket pair while a
// reader cursor drains it in 256-byte non-blocking chunks, suspending
// on EAGAIN until the poll phase wakes it.
func TestCooperativeSocketIO(t *testing.T) {
	s, v, _ := newTestScheduler(t)

	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	wfd, rfd := pair[0], pair[1]
	defer unix.Close(wfd)
	defer unix.Close(rfd)

	s.Sockets.Register(wfd, false)
	s.Sockets.Register(rfd, false)
	if err := s.Sockets.SetNonBlocking(rfd, true); err != nil {
		t.Fatalf("set nonblocking: %v", err)
	}

	wrote := 0
	writeFn := class.NewFunction("writer")
	writeFn.AddSignature(class.Fixed(0), &class.Entry{Native: func(cur native.Cursor, argc int) error {
		n, err := unix.Write(wfd, make([]byte, 1024))
		if err != nil {
			t.Errorf("write: %v", err)
		}
		wrote += n
		cur.PushData(kinds.Bool(true))
		return nil
	}})

	total := 0
	readFn := class.NewFunction("reader")
	readFn.AddSignature(class.Fixed(0), &class.Entry{Native: func(cur native.Cursor, argc int) error {
		buf := make([]byte, 256)
		n, err := unix.Read(rfd, buf)
		if err == unix.EAGAIN {
			cur.(*vm.Cursor).Blocked = rfd
			s.Sockets.Block(rfd, true, false, -1)
			cur.PushData(kinds.Bool(false))
			return nil
		}
		if err != nil {
			t.Errorf("read: %v", err)
		}
		total += n
		cur.PushData(kinds.Bool(total >= 1024))
		return nil
	}})

	loop := func(name string, fn *class.Function) *module.Module {
		m := module.New(name)
		fnIdx := m.AddConstant(fn)
		m.Emit(module.OpPushConst, fnIdx, 0, 0) // 0
		m.Emit(module.OpCall, 0, 0, 0)          // 1
		m.Emit(module.OpJumpIfFalse, 0, 0, 0)   // 2: retry until done
		m.Emit(module.OpHalt, 0, 0, 0)          // 3
		v.Registry.Register(name, m)
		return m
	}

	// Reader first, so it blocks before any data exists.
	s.Load(loop("reader", readFn))
	s.Load(loop("writer", writeFn))

	rounds := 0
	for !s.Idle() && rounds < 5 {
		s.Round()
		rounds++
	}
	if total != 1024 {
		t.Errorf("reader drained %d bytes in %d rounds, want 1024 within 5", total, rounds)
	}
	if wrote != 1024 {
		t.Errorf("writer pushed %d bytes, want 1024", wrote)
	}
	if !s.Idle() {
		t.Error("scheduler must return to idle")
	}
}

func TestPollTimeoutRequeuesCursor(t *testing.T) {
	s, v, _ := newTestScheduler(t)

	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer unix.Close(pair[0])
	defer unix.Close(pair[1])
	rfd := pair[1]

	s.Sockets.Register(rfd, false)
	if err := s.Sockets.SetNonBlocking(rfd, true); err != nil {
		t.Fatal(err)
	}

	waitFn := class.NewFunction("waiter")
	waitFn.AddSignature(class.Fixed(0), &class.Entry{Native: func(cur native.Cursor, argc int) error {
		state, _ := s.Sockets.Lookup(rfd)
		if state.Events.TimedOut {
			cur.PushData(kinds.Bool(true))
			return nil
		}
		cur.(*vm.Cursor).Blocked = rfd
		s.Sockets.Block(rfd, true, false, 0) // time out after one poll
		cur.PushData(kinds.Bool(false))
		return nil
	}})

	m := module.New("waiter")
	fnIdx := m.AddConstant(waitFn)
	m.Emit(module.OpPushConst, fnIdx, 0, 0)
	m.Emit(module.OpCall, 0, 0, 0)
	m.Emit(module.OpJumpIfFalse, 0, 0, 0)
	m.Emit(module.OpHalt, 0, 0, 0)
	v.Registry.Register(m.Name, m)
	s.Load(m)

	rounds := 0
	for !s.Idle() && rounds < 4 {
		s.Round()
		rounds++
	}
	state, _ := s.Sockets.Lookup(rfd)
	if !state.Events.TimedOut {
		t.Error("expired wait must surface a timeout indication")
	}
	if !s.Idle() {
		t.Error("timed-out cursor must have been re-queued and finished")
	}
}

func TestAcceptReadinessCategory(t *testing.T) {
	table := NewSocketTable()
	listener := table.Register(10, true)
	if !table.applyRevents(listener, unix.POLLIN) {
		t.Fatal("POLLIN on a listener must count as ready")
	}
	if !listener.Events.Accept || listener.Events.Read {
		t.Errorf("listener readiness = %+v, want Accept without Read", listener.Events)
	}

	plain := table.Register(11, false)
	table.applyRevents(plain, unix.POLLIN|unix.POLLHUP)
	if !plain.Events.Read || !plain.Events.Closed {
		t.Errorf("plain readiness = %+v, want Read and Closed", plain.Events)
	}

	fresh := table.Accepted(12)
	if !fresh.BlockingMode {
		t.Error("accepted socket must start in blocking mode")
	}
}
