package discovery

import (
	"errors"
	"slices"
	"testing"
)

func TestAdvertiseRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		if _, err := Advertise(port, "test"); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("Advertise(%d) err = %v, want ErrInvalidPort", port, err)
		}
	}
}

func TestTXTRecords(t *testing.T) {
	txt := TXTRecords("1.2.0", 8080)
	for _, want := range []string{"app=sketchboard", "version=1.2.0", "port=8080"} {
		if !slices.Contains(txt, want) {
			t.Errorf("TXT records %v missing %q", txt, want)
		}
	}
}

func TestShutdownNil(t *testing.T) {
	var a *Advertiser
	if err := a.Shutdown(); err != nil {
		t.Fatalf("Shutdown on nil: %v", err)
	}
}
