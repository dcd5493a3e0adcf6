package archive_test

import (
	"sync"
	"testing"

	"konserve-go/internal/archive"
)

func TestProgress(t *testing.T) {
	t.Run("starts at zero", func(t *testing.T) {
		p := archive.NewProgress()
		if got := p.Get(); got != 0 {
			t.Errorf("Get() = %d, want 0", got)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		p := archive.NewProgress()
		p.Set(42)
		if got := p.Get(); got != 42 {
			t.Errorf("Get() = %d, want 42", got)
		}
	})

	t.Run("done stores the sentinel", func(t *testing.T) {
		p := archive.NewProgress()
		p.Set(100)
		p.Done()
		if got := p.Get(); got != archive.ProgressDone {
			t.Errorf("Get() = %d, want %d", got, archive.ProgressDone)
		}
	})

	t.Run("sentinel is distinct from every percentage", func(t *testing.T) {
		if archive.ProgressDone <= 100 {
			t.Errorf("ProgressDone = %d, want > 100", archive.ProgressDone)
		}
	})

	t.Run("concurrent writers and readers", func(t *testing.T) {
		p := archive.NewProgress()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(n uint32) {
				defer wg.Done()
				for pct := uint32(0); pct <= 100; pct++ {
					p.Set(pct)
				}
			}(uint32(i))
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					_ = p.Get()
				}
			}()
		}
		wg.Wait()
		p.Done()
		if got := p.Get(); got != archive.ProgressDone {
			t.Errorf("Get() = %d, want %d", got, archive.ProgressDone)
		}
	})
}
