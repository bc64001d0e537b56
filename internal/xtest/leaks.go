package xtest

import (
	"bytes"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

// inspired by https://golang.org/src/runtime/debug/stack.go?s=587:606#L21
// stack returns a formatted stack trace of all goroutines.
// It calls runtime.Stack with a large enough buffer to capture the entire trace.
func stack() []byte {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

type goroutine struct {
	id    int
	name  string
	stack []byte
}

// Leaks is a snapshot of the running goroutines.
type Leaks struct {
	name       string
	goroutines map[int]goroutine
}

// LeaksMonitor records the goroutines running now, so CheckTesting can
// report the ones started and not stopped since.
func LeaksMonitor(name string) Leaks {
	return Leaks{
		name,
		Leaks{}.collectGoroutines(),
	}
}

var regexpId = regexp.MustCompile(`^\s*goroutine\s*(\d+)`)

func (Leaks) collectGoroutines() map[int]goroutine {
	res := make(map[int]goroutine)
	stacks := bytes.Split(stack(), []byte{'\n', '\n'})

	for _, st := range stacks {
		lines := bytes.Split(st, []byte{'\n'})
		if len(lines) < 2 {
			panic("routine stack has less than two lines: " + string(st))
		}

		idMatches := regexpId.FindSubmatch(lines[0])
		if len(idMatches) < 2 {
			panic("no id found in goroutine stack's first line: " + string(lines[0]))
		}
		id, err := strconv.Atoi(string(idMatches[1]))
		if err != nil {
			panic("converting goroutine id to number error: " + err.Error())
		}
		if _, ok := res[id]; ok {
			panic("2 goroutines with same id: " + strconv.Itoa(id))
		}

		res[id] = goroutine{id, strings.TrimSpace(string(lines[1])), st}
	}
	return res
}

// LeakingGoroutines returns the goroutines started since the snapshot.
func (l Leaks) LeakingGoroutines() []goroutine {
	goroutines := l.collectGoroutines()
	res := []goroutine{}
	for id, gr := range goroutines {
		if _, ok := l.goroutines[id]; ok {
			continue
		}
		res = append(res, gr)
	}
	return res
}

// CheckTesting fails t if goroutines started since the snapshot are still
// running after a grace period.
func (l Leaks) CheckTesting(t *testing.T) {
	if len(l.LeakingGoroutines()) == 0 {
		return
	}
	leakTimeout := time.Second
	time.Sleep(leakTimeout)
	lgrs := l.LeakingGoroutines()
	if len(lgrs) == 0 {
		return
	}
	t.Errorf("%s: %d goroutine leaks", l.name, len(lgrs))
	for _, gr := range lgrs {
		t.Log(gr.name, "\n", string(gr.stack))
	}
}
