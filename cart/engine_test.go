package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gofreshmart.io/market/models"
)

func tomatoes(qty uint64) models.CartLine {
	return models.CartLine{
		ProductID:   "v1",
		DisplayName: "Tomatoes",
		UnitPrice:   40,
		ImageRef:    "img/tomatoes.jpg",
		Quantity:    qty,
		UnitLabel:   "500g",
	}
}

func onions(qty uint64) models.CartLine {
	return models.CartLine{
		ProductID:   "v2",
		DisplayName: "Onions",
		UnitPrice:   30,
		Quantity:    qty,
		UnitLabel:   "1kg",
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine("user-1", nil, nil, zap.NewNop())
}

func TestAddItemMergesQuantityKeepsFirstSnapshot(t *testing.T) {
	e := newTestEngine(t)

	e.AddItem(tomatoes(2))

	second := tomatoes(3)
	second.DisplayName = "Cherry Tomatoes"
	second.UnitPrice = 55
	e.AddItem(second)

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint64(5), lines[0].Quantity)
	assert.Equal(t, "Tomatoes", lines[0].DisplayName)
	assert.Equal(t, 40.0, lines[0].UnitPrice)
}

func TestAddItemIgnoresZeroQuantity(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(0))
	assert.Empty(t, e.Lines())
}

func TestScenarioASingleAdd(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2))

	assert.Equal(t, uint64(2), e.TotalItems())
	assert.Equal(t, 80.0, e.TotalPrice())
}

func TestScenarioBDecrementToRemoval(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2))

	e.Decrement("v1")
	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint64(1), lines[0].Quantity)
	assert.Equal(t, 40.0, e.TotalPrice())

	e.Decrement("v1")
	assert.Empty(t, e.Lines())
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(1))
	e.RemoveItem("nope")
	assert.Len(t, e.Lines(), 1)
}

func TestSetQuantity(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2))

	e.SetQuantity("v1", 7)
	require.Len(t, e.Lines(), 1)
	assert.Equal(t, uint64(7), e.Lines()[0].Quantity)

	e.SetQuantity("v1", 0)
	assert.Empty(t, e.Lines())
}

func TestNoZeroQuantityLinesEver(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(3))
	e.AddItem(onions(1))

	e.SetQuantity("v1", 1)
	e.Decrement("v1")
	e.Decrement("v1") // already gone
	e.Decrement("v2")
	e.SetQuantity("v2", -5)

	for _, l := range e.Lines() {
		assert.GreaterOrEqual(t, l.Quantity, uint64(1))
	}
	assert.Empty(t, e.Lines())
}

func TestSaveForLaterRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(4))

	e.SaveForLater("v1")
	assert.Empty(t, e.Lines())
	require.Len(t, e.SavedLines(), 1)

	e.MoveToCart("v1")
	assert.Empty(t, e.SavedLines())
	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint64(4), lines[0].Quantity)
}

func TestSaveForLaterSavedCopyWins(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2))
	e.SaveForLater("v1")

	// Add the product again, then save again: the earlier saved copy wins.
	e.AddItem(tomatoes(5))
	e.SaveForLater("v1")

	assert.Empty(t, e.Lines())
	saved := e.SavedLines()
	require.Len(t, saved, 1)
	assert.Equal(t, uint64(2), saved[0].Quantity)
}

func TestMoveToCartMergesWithActiveLine(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2))
	e.SaveForLater("v1")
	e.AddItem(tomatoes(3))

	e.MoveToCart("v1")

	lines := e.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint64(5), lines[0].Quantity)
	assert.Empty(t, e.SavedLines())
}

func TestNoProductInBothLists(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2))
	e.AddItem(onions(1))

	ops := []func(){
		func() { e.SaveForLater("v1") },
		func() { e.AddItem(tomatoes(1)) },
		func() { e.SaveForLater("v1") },
		func() { e.MoveToCart("v1") },
		func() { e.SaveForLater("v2") },
		func() { e.MoveToCart("v2") },
	}
	for _, op := range ops {
		op()
		active := e.Lines()
		for _, s := range e.SavedLines() {
			assert.Less(t, models.FindLineIndex(active, s.ProductID), 0)
		}
	}
}

func TestClearCartLeavesSavedUntouched(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2))
	e.AddItem(onions(1))
	e.SaveForLater("v2")

	e.ClearCart()

	assert.Empty(t, e.Lines())
	assert.Len(t, e.SavedLines(), 1)
}

func TestClearAndRemoveSavedItems(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2))
	e.AddItem(onions(1))
	e.SaveForLater("v1")
	e.SaveForLater("v2")

	e.RemoveSavedItem("v1")
	require.Len(t, e.SavedLines(), 1)

	e.ClearSavedItems()
	assert.Empty(t, e.SavedLines())
}

func TestDerivedTotals(t *testing.T) {
	e := newTestEngine(t)
	e.AddItem(tomatoes(2)) // 80
	e.AddItem(onions(3))   // 90

	assert.Equal(t, uint64(5), e.TotalItems())
	assert.Equal(t, 170.0, e.TotalPrice())

	e.Increment("v2")
	assert.Equal(t, uint64(6), e.TotalItems())
	assert.Equal(t, 200.0, e.TotalPrice())
}

func TestObserverSeesEveryMutation(t *testing.T) {
	e := newTestEngine(t)

	var calls int
	var lastActive, lastSaved []models.CartLine
	e.Subscribe(func(active, saved []models.CartLine) {
		calls++
		lastActive, lastSaved = active, saved
	})

	e.AddItem(tomatoes(2))
	e.SaveForLater("v1")
	e.MoveToCart("v1")
	e.RemoveItem("nope") // no state change, no notification

	assert.Equal(t, 3, calls)
	require.Len(t, lastActive, 1)
	assert.Empty(t, lastSaved)
}

func TestNewEngineDropsInvalidSeedLines(t *testing.T) {
	active := []models.CartLine{tomatoes(2), onions(0)}
	saved := []models.CartLine{tomatoes(1), onions(3)} // v1 duplicates active

	e := NewEngine("user-1", active, saved, zap.NewNop())

	require.Len(t, e.Lines(), 1)
	saved = e.SavedLines()
	require.Len(t, saved, 1)
	assert.Equal(t, "v2", saved[0].ProductID)
}
