// Package tray provides the desktop tray menu for mudra.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/overlay"
)

// Controller is the recognizer the tray switches on and off.
type Controller interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// Tray is the tray menu: a recognition toggle, the last animated gesture,
// a link to the overlay page, and quit.
type Tray struct {
	controller Controller
	onOpen     func()
	onQuit     func()

	mu         sync.Mutex
	lastLabel  string
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a Tray for c.
func New(c Controller) *Tray {
	return &Tray{controller: c, lastLabel: lastLabel(nil)}
}

// OnOpen sets the callback for the "Open Overlay..." item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand gesture overlay")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.controller.IsEnabled()), "Toggle gesture recognition")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(t.lastLabel, "Last animated gesture")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Overlay...", "Open the overlay page in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.toggle()
			case <-menuOpen.ClickedCh:
				t.mu.Lock()
				fn := t.onOpen
				t.mu.Unlock()
				if fn != nil {
					fn()
				}
			case <-menuQuit.ClickedCh:
				t.mu.Lock()
				fn := t.onQuit
				t.mu.Unlock()
				if fn != nil {
					fn()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) toggle() {
	enabled := !t.controller.IsEnabled()
	t.controller.SetEnabled(enabled)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
}

// Update shows the latest gate snapshot. Pass it to app.Subscribe.
func (t *Tray) Update(s app.Snapshot) {
	label := lastLabel(s.Last)

	t.mu.Lock()
	defer t.mu.Unlock()
	if label == t.lastLabel {
		return
	}
	t.lastLabel = label
	if t.menuLast != nil {
		t.menuLast.SetTitle(label)
	}
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastLabel(s *overlay.Session) string {
	if s == nil {
		return "Last: none"
	}
	return "Last: " + s.Asset
}
