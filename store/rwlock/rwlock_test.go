package rwlock_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kmill/pynomic/store/rwlock"
)

func TestMultipleReadersConcurrent(t *testing.T) {
	l := rwlock.New()
	var active int32
	var maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RLock()
			defer l.RUnlock()
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	if maxActive < 2 {
		t.Errorf("max concurrent readers = %d, want more than 1", maxActive)
	}
}

func TestWriterExcludesReaders(t *testing.T) {
	l := rwlock.New()
	l.Lock()

	done := make(chan struct{})
	go func() {
		l.RLock()
		l.RUnlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("RLock acquired while a writer held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	l.Unlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RLock never acquired after Unlock")
	}
}

func TestWriterWaitsForReaders(t *testing.T) {
	l := rwlock.New()
	l.RLock()

	done := make(chan struct{})
	go func() {
		l.Lock()
		l.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Lock acquired while a reader held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	l.RUnlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Lock never acquired after RUnlock")
	}
}

func TestDowngradeAdmitsOtherReaders(t *testing.T) {
	l := rwlock.New()
	l.Lock()
	l.Downgrade()

	done := make(chan struct{})
	go func() {
		l.RLock()
		l.RUnlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a second RLock never acquired after Downgrade: Downgrade should admit other readers")
	}

	l.RUnlock()
}

func TestDowngradeStillExcludesWriters(t *testing.T) {
	l := rwlock.New()
	l.Lock()
	l.Downgrade()

	done := make(chan struct{})
	go func() {
		l.Lock()
		l.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Lock acquired while the downgraded read lock was still held")
	case <-time.After(20 * time.Millisecond):
	}

	l.RUnlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Lock never acquired after the downgraded read lock was released")
	}
}
