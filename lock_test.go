package austream

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openForLock(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFileLockExclusiveBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.au")

	f1 := openForLock(t, path)
	f2 := openForLock(t, path)

	l1 := &fileLock{f: f1}
	l2 := &fileLock{f: f2}

	if err := l1.Lock(LockExclusive); err != nil {
		t.Fatalf("l1 lock: %v", err)
	}

	done := make(chan bool)
	go func() {
		if err := l2.Lock(LockExclusive); err != nil {
			t.Errorf("l2 lock: %v", err)
		}
		l2.Unlock()
		done <- true
	}()

	select {
	case <-done:
		t.Fatal("l2 acquired exclusive lock while l1 held it")
	case <-time.After(100 * time.Millisecond):
	}

	l1.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("l2 never acquired lock after release")
	}
}

func TestFileLockSetFileNilIsNoop(t *testing.T) {
	f := openForLock(t, filepath.Join(t.TempDir(), "stream.au"))
	l := &fileLock{f: f}
	l.setFile(nil)
	if err := l.Lock(LockExclusive); err != nil {
		t.Fatalf("lock on cleared handle should be a no-op: %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("unlock on cleared handle should be a no-op: %v", err)
	}
}
