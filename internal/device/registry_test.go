package device

import "testing"

type fakeHandle struct {
	shown  []string
	closed bool
}

func (f *fakeHandle) ShowText(text string) error {
	f.shown = append(f.shown, text)
	return nil
}

func (f *fakeHandle) Close() error {
	f.closed = true
	return nil
}

func TestRegistryRegisterReturnsReplacedHandle(t *testing.T) {
	r := NewRegistry()
	first := &fakeHandle{}
	second := &fakeHandle{}

	if old := r.Register("u1", first); old != nil {
		t.Fatalf("expected no previous handle, got %v", old)
	}
	if old := r.Register("u1", second); old != first {
		t.Fatalf("expected first handle back on reconnect, got %v", old)
	}

	h, ok := r.Lookup("u1")
	if !ok || h != second {
		t.Fatalf("expected second handle to be live, got %v (ok=%v)", h, ok)
	}
}

func TestRegistryUnregisterIfIgnoresStaleHandle(t *testing.T) {
	r := NewRegistry()
	stale := &fakeHandle{}
	fresh := &fakeHandle{}

	r.Register("u1", stale)
	r.Register("u1", fresh)

	if r.UnregisterIf("u1", stale) {
		t.Fatal("stale disconnect must not evict the reconnect")
	}
	if !r.IsConnected("u1") {
		t.Fatal("user should still be connected after stale unregister")
	}

	if !r.UnregisterIf("u1", fresh) {
		t.Fatal("current handle should unregister")
	}
	if r.IsConnected("u1") {
		t.Fatal("user should be disconnected")
	}
}

func TestRegistryCount(t *testing.T) {
	r := NewRegistry()
	if got := r.Count(); got != 0 {
		t.Fatalf("expected 0 devices, got %d", got)
	}
	r.Register("u1", &fakeHandle{})
	r.Register("u2", &fakeHandle{})
	r.Register("u1", &fakeHandle{})
	if got := r.Count(); got != 2 {
		t.Fatalf("expected 2 devices, got %d", got)
	}
}
