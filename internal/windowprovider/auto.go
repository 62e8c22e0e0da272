package windowprovider

import "time"

// Auto tries each candidate backend's Connect in order and delegates to
// the first that succeeds, so the driver doesn't need to know in advance
// whether it's running under Hyprland or Xorg.
type Auto struct {
	candidates []Provider
	active     Provider
}

// NewAuto builds a provider that tries Hyprland then X11, in that order.
func NewAuto(pollInterval time.Duration, sink Sink) *Auto {
	return &Auto{candidates: []Provider{
		NewHyprlandProvider(pollInterval, sink),
		NewX11Provider(pollInterval, sink),
	}}
}

func (a *Auto) Connect() error {
	var lastErr error
	for _, c := range a.candidates {
		if err := c.Connect(); err == nil {
			a.active = c
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = &ConnectionFailedError{Reason: "no window-context backend available"}
	}
	return lastErr
}

func (a *Auto) Disconnect() {
	if a.active != nil {
		a.active.Disconnect()
		a.active = nil
	}
}

func (a *Auto) IsConnected() bool {
	return a.active != nil && a.active.IsConnected()
}

func (a *Auto) GetActiveWindow() (Info, error) {
	if a.active == nil {
		return Info{}, ErrNotConnected
	}
	return a.active.GetActiveWindow()
}
