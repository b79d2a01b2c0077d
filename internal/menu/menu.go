// Package menu places row action menus and tracks which one is open.
package menu

import "sync"

// FlipThreshold is the minimum room below a trigger, in pixels, for the menu
// to open downwards.
const FlipThreshold = 150.0

type Placement string

const (
	Below Placement = "below"
	Above Placement = "above"
)

// Place decides the orientation from the trigger's bottom edge and the
// viewport height, both in CSS pixels. An unknown viewport (<= 0) opens below.
func Place(triggerBottom, viewportHeight float64) Placement {
	if viewportHeight <= 0 {
		return Below
	}
	if viewportHeight-triggerBottom < FlipThreshold {
		return Above
	}
	return Below
}

// List is the set of action menus of one table. At most one is open.
type List struct {
	mu        sync.Mutex
	open      string
	placement Placement
}

// Toggle opens id, closing any other open menu, or closes id if it is
// already open.
func (l *List) Toggle(id string, triggerBottom, viewportHeight float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == id {
		l.open = ""
		return
	}
	l.open = id
	l.placement = Place(triggerBottom, viewportHeight)
}

// OutsideClick closes the open menu, if any.
func (l *List) OutsideClick() {
	l.mu.Lock()
	l.open = ""
	l.mu.Unlock()
}

// Invoke closes the menu of id and then runs action.
func (l *List) Invoke(id string, action func() error) error {
	l.mu.Lock()
	if l.open == id {
		l.open = ""
	}
	l.mu.Unlock()
	if action == nil {
		return nil
	}
	return action()
}

func (l *List) IsOpen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return id != "" && l.open == id
}

// Open returns the open menu id and its placement; id is "" when closed.
func (l *List) Open() (string, Placement) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open, l.placement
}
