package notify

import (
	"sync"
	"testing"
)

func TestRecorderConcurrent(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify(Notice{Kind: Error, Message: "upload failed"})
		}()
	}
	wg.Wait()

	got := r.Notices()
	if len(got) != 20 {
		t.Fatalf("expected 20 notices, got %d", len(got))
	}
	got[0].Message = "changed"
	if r.Notices()[0].Message != "upload failed" {
		t.Error("Notices should return a copy")
	}
}

func TestFuncAndKinds(t *testing.T) {
	var seen []Kind
	n := Func(func(notice Notice) { seen = append(seen, notice.Kind) })
	n.Notify(Notice{Kind: Info})
	n.Notify(Notice{Kind: Persistent})
	Nop.Notify(Notice{Kind: Error})

	if len(seen) != 2 || seen[1] != Persistent {
		t.Errorf("unexpected kinds %v", seen)
	}
	for kind, want := range map[Kind]string{Info: "info", Error: "error", Persistent: "persistent"} {
		if kind.String() != want {
			t.Errorf("%d.String() = %s, want %s", kind, kind.String(), want)
		}
	}
}
