package windowprovider

import "testing"

func TestInfoIsEmpty(t *testing.T) {
	if !(Info{}).IsEmpty() {
		t.Error("expected a zero-value Info to be empty")
	}
	if (Info{WMClass: "firefox"}).IsEmpty() {
		t.Error("expected a populated Info to not be empty")
	}
}

func TestHyprlandProviderNotConnectedBeforeConnect(t *testing.T) {
	p := NewHyprlandProvider(0, nil)
	if p.IsConnected() {
		t.Error("expected a fresh provider to report not connected")
	}
	if _, err := p.GetActiveWindow(); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestX11ProviderNotConnectedBeforeConnect(t *testing.T) {
	p := NewX11Provider(0, nil)
	if p.IsConnected() {
		t.Error("expected a fresh provider to report not connected")
	}
	if _, err := p.GetActiveWindow(); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestAutoNotConnectedBeforeConnect(t *testing.T) {
	a := NewAuto(0, nil)
	if a.IsConnected() {
		t.Error("expected a fresh Auto to report not connected")
	}
	if _, err := a.GetActiveWindow(); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
