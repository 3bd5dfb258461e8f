package printer

import "testing"

func TestCaptureAccumulates(t *testing.T) {
	c := NewCapture()
	c.Write([]byte("one"))
	c.Write([]byte("two"))
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if c.String() != "onetwo" {
		t.Errorf("captured %q, want onetwo", c.String())
	}
}

func TestOSSinksWrap(t *testing.T) {
	if NewStdout() == nil || NewStderr() == nil {
		t.Fatal("process sinks must construct")
	}
	// Under `go test` stdout is a pipe, not a terminal.
	if NewStdout().Terminal() {
		t.Skip("running with a TTY stdout")
	}
}
