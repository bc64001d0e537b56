package xtest

import (
	"sync"
	"testing"
)

func TestLeaks(t *testing.T) {
	lm := LeaksMonitor("lm")
	if lgrs := lm.LeakingGoroutines(); len(lgrs) != 0 {
		t.Errorf("LeakingGoroutines returned %d leaking goroutines, want 0", len(lgrs))
	}

	done := make(chan struct{})
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		<-done
		wg.Done()
	}()

	if lgrs := lm.LeakingGoroutines(); len(lgrs) != 1 {
		t.Errorf("LeakingGoroutines returned %d leaking goroutines, want 1", len(lgrs))
	}

	wg.Add(1)
	go func() {
		<-done
		wg.Done()
	}()

	if lgrs := lm.LeakingGoroutines(); len(lgrs) != 2 {
		t.Errorf("LeakingGoroutines returned %d leaking goroutines, want 2", len(lgrs))
	}

	close(done)
	wg.Wait()

	// Done runs before the goroutines return; CheckTesting waits for them.
	lm.CheckTesting(t)
}
