package cart

import (
	"sync"

	"go.uber.org/zap"

	"gofreshmart.io/market/models"
)

// Observer receives copies of both lists after every mutation. Observers must
// not call back into the engine.
type Observer func(active, saved []models.CartLine)

// Engine owns the active and saved-for-later lists for one browsing session.
// It is the source of truth for the session regardless of what the durable
// mirror manages to persist. One instance per user session, no globals.
//
// Every operation is total: any call on valid input produces a valid next
// state and cannot fail. The lists never contain a zero-quantity line, and a
// product id never appears in both lists at once.
type Engine struct {
	mu        sync.Mutex
	userID    string
	active    []models.CartLine
	saved     []models.CartLine
	observers []Observer
	logger    *zap.Logger
}

// NewEngine creates an engine for the given user, seeded with previously
// persisted lists. Seed lines with a non-positive quantity are dropped.
func NewEngine(userID string, active, saved []models.CartLine, logger *zap.Logger) *Engine {
	e := &Engine{
		userID: userID,
		logger: logger,
	}
	for _, l := range active {
		if l.Quantity >= 1 {
			e.active = append(e.active, l)
		}
	}
	for _, l := range saved {
		if l.Quantity >= 1 && models.FindLineIndex(e.active, l.ProductID) < 0 {
			e.saved = append(e.saved, l)
		}
	}
	return e
}

// UserID returns the session owner.
func (e *Engine) UserID() string {
	return e.userID
}

// Subscribe registers an observer for state-change notifications.
func (e *Engine) Subscribe(obs Observer) {
	e.mu.Lock()
	e.observers = append(e.observers, obs)
	e.mu.Unlock()
}

// AddItem merges the line into the active list. If the product is already
// present only the quantity grows; the first-seen price/name/image snapshot
// wins. Lines with quantity < 1 are ignored.
func (e *Engine) AddItem(line models.CartLine) {
	if line.Quantity < 1 {
		return
	}

	e.mu.Lock()
	if i := models.FindLineIndex(e.active, line.ProductID); i >= 0 {
		e.active[i].Quantity += line.Quantity
	} else {
		e.active = append(e.active, line)
	}
	e.notifyLocked()
}

// RemoveItem drops the product from the active list. Absent products are a
// no-op, not an error.
func (e *Engine) RemoveItem(productID string) {
	e.mu.Lock()
	i := models.FindLineIndex(e.active, productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.active = append(e.active[:i], e.active[i+1:]...)
	e.notifyLocked()
}

// SetQuantity replaces the quantity of the product's line. A quantity below 1
// removes the line instead; the list never holds a zero-quantity line.
func (e *Engine) SetQuantity(productID string, quantity int64) {
	if quantity < 1 {
		e.RemoveItem(productID)
		return
	}

	e.mu.Lock()
	i := models.FindLineIndex(e.active, productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.active[i].Quantity = uint64(quantity)
	e.notifyLocked()
}

// Increment adds one to the product's quantity.
func (e *Engine) Increment(productID string) {
	e.mu.Lock()
	i := models.FindLineIndex(e.active, productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.active[i].Quantity++
	e.notifyLocked()
}

// Decrement subtracts one from the product's quantity, removing the line when
// the quantity was 1.
func (e *Engine) Decrement(productID string) {
	e.mu.Lock()
	i := models.FindLineIndex(e.active, productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	if e.active[i].Quantity <= 1 {
		e.active = append(e.active[:i], e.active[i+1:]...)
	} else {
		e.active[i].Quantity--
	}
	e.notifyLocked()
}

// SaveForLater moves the product from the active list to the saved list. When
// a saved line with the same product already exists, the saved copy wins and
// the active copy is discarded.
func (e *Engine) SaveForLater(productID string) {
	e.mu.Lock()
	i := models.FindLineIndex(e.active, productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	line := e.active[i]
	e.active = append(e.active[:i], e.active[i+1:]...)
	if models.FindLineIndex(e.saved, productID) < 0 {
		e.saved = append(e.saved, line)
	}
	e.notifyLocked()
}

// MoveToCart moves a saved line back to the active list with the same merge
// semantics as AddItem.
func (e *Engine) MoveToCart(productID string) {
	e.mu.Lock()
	i := models.FindLineIndex(e.saved, productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	line := e.saved[i]
	e.saved = append(e.saved[:i], e.saved[i+1:]...)
	if j := models.FindLineIndex(e.active, productID); j >= 0 {
		e.active[j].Quantity += line.Quantity
	} else {
		e.active = append(e.active, line)
	}
	e.notifyLocked()
}

// RemoveSavedItem drops the product from the saved list.
func (e *Engine) RemoveSavedItem(productID string) {
	e.mu.Lock()
	i := models.FindLineIndex(e.saved, productID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.saved = append(e.saved[:i], e.saved[i+1:]...)
	e.notifyLocked()
}

// ClearSavedItems empties the saved list.
func (e *Engine) ClearSavedItems() {
	e.mu.Lock()
	if len(e.saved) == 0 {
		e.mu.Unlock()
		return
	}
	e.saved = nil
	e.notifyLocked()
}

// ClearCart empties the active list. The saved list is untouched.
func (e *Engine) ClearCart() {
	e.mu.Lock()
	if len(e.active) == 0 {
		e.mu.Unlock()
		return
	}
	e.active = nil
	e.notifyLocked()
}

// Lines returns a copy of the active list.
func (e *Engine) Lines() []models.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyLines(e.active)
}

// SavedLines returns a copy of the saved-for-later list.
func (e *Engine) SavedLines() []models.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyLines(e.saved)
}

// TotalItems sums the quantities over the active list.
func (e *Engine) TotalItems() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.TotalItems(e.active)
}

// TotalPrice sums unit price times quantity over the active list.
func (e *Engine) TotalPrice() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.TotalPrice(e.active)
}

// notifyLocked snapshots both lists, releases the lock and fans out to the
// observers. Must be called with the mutex held; it unlocks.
func (e *Engine) notifyLocked() {
	active := copyLines(e.active)
	saved := copyLines(e.saved)
	observers := e.observers
	e.mu.Unlock()

	for _, obs := range observers {
		obs(active, saved)
	}
}

func copyLines(lines []models.CartLine) []models.CartLine {
	if len(lines) == 0 {
		return nil
	}
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}
