package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/combo/pkg/navigation"
	"github.com/oakwood-commons/combo/pkg/virtual"
)

// headers at 0 and 3: [H, a, b, H, c, d]
func grouped() navigation.Sequence {
	return navigation.NewSequence(6, func(i int) bool { return i == 0 || i == 3 })
}

func focused(t *testing.T, c *navigation.Controller) int {
	t.Helper()
	i, ok := c.Focused()
	require.True(t, ok, "expected focus")
	return i
}

func TestNavigateFirstSkipsHeaders(t *testing.T) {
	c := navigation.New(grouped())
	require.Equal(t, navigation.SignalMoved, c.NavigateFirst())
	require.Equal(t, 1, focused(t, c))
}

func TestNavigateNextAndPrevSkipHeaders(t *testing.T) {
	c := navigation.New(grouped())
	c.NavigateFirst()

	require.Equal(t, navigation.SignalMoved, c.NavigateNext())
	require.Equal(t, 2, focused(t, c))
	require.Equal(t, navigation.SignalMoved, c.NavigateNext())
	require.Equal(t, 4, focused(t, c))

	require.Equal(t, navigation.SignalMoved, c.NavigatePrev())
	require.Equal(t, 2, focused(t, c))
}

func TestNavigateNextAtEnd(t *testing.T) {
	addVisible := false
	c := navigation.New(grouped(), navigation.WithAddItem(func() bool { return addVisible }))
	c.NavigateLast()
	require.Equal(t, 5, focused(t, c))

	require.Equal(t, navigation.SignalEndOfItems, c.NavigateNext())
	require.Equal(t, 5, focused(t, c), "no wrap-around")

	addVisible = true
	require.Equal(t, navigation.SignalLeaveToAddItem, c.NavigateNext())
	_, ok := c.Focused()
	require.False(t, ok)
}

func TestNavigatePrevAtStartLeavesToSearch(t *testing.T) {
	c := navigation.New(grouped())
	c.NavigateFirst()
	require.Equal(t, navigation.SignalLeaveToSearch, c.NavigatePrev())
	_, ok := c.Focused()
	require.False(t, ok)

	require.Equal(t, navigation.SignalLeaveToSearch, c.NavigatePrev())
}

func TestNavigateNextWithoutFocusStartsAtFirst(t *testing.T) {
	c := navigation.New(grouped())
	require.Equal(t, navigation.SignalMoved, c.NavigateNext())
	require.Equal(t, 1, focused(t, c))
}

func TestNavigateItemDirections(t *testing.T) {
	c := navigation.New(grouped())
	require.Equal(t, navigation.SignalMoved, c.NavigateItem(3, navigation.Forward))
	require.Equal(t, 4, focused(t, c))
	require.Equal(t, navigation.SignalMoved, c.NavigateItem(3, navigation.Backward))
	require.Equal(t, 2, focused(t, c))
	require.Equal(t, navigation.SignalNone, c.NavigateItem(99, navigation.Forward))
	require.Equal(t, navigation.SignalNone, c.NavigateItem(0, navigation.Backward))
}

func TestFocusAndBlur(t *testing.T) {
	c := navigation.New(grouped())
	require.Equal(t, navigation.SignalMoved, c.OnFocus())
	require.Equal(t, 1, focused(t, c))

	c.NavigateNext()
	require.Equal(t, navigation.SignalNone, c.OnFocus(), "existing focus is kept")
	require.Equal(t, 2, focused(t, c))

	c.OnBlur()
	_, ok := c.Focused()
	require.False(t, ok)
}

func TestResetKeepsValidFocus(t *testing.T) {
	c := navigation.New(grouped())
	c.NavigateItem(4, navigation.Forward)

	c.Reset(navigation.NewSequence(5, nil))
	require.Equal(t, 4, focused(t, c))

	c.Reset(navigation.NewSequence(3, nil))
	_, ok := c.Focused()
	require.False(t, ok)

	c.Reset(nil)
	require.Equal(t, navigation.SignalNone, c.NavigateFirst())
}

func TestNavigateItemOutsideWindowResolvesOnContentChange(t *testing.T) {
	w, err := virtual.New(virtual.Config{Size: 10}, 51)
	require.NoError(t, err)
	w.SetDeferred(true)

	var landed []int
	c := navigation.New(navigation.NewSequence(51, nil),
		navigation.WithProvider(w),
		navigation.WithFocusCallback(func(i int) { landed = append(landed, i) }),
	)
	defer c.Close()

	require.Equal(t, navigation.SignalPending, c.NavigateItem(30, navigation.Forward))
	_, ok := c.Focused()
	require.False(t, ok)
	p, ok := c.Pending()
	require.True(t, ok)
	require.Equal(t, 30, p)

	require.True(t, w.Flush())
	require.Equal(t, 30, focused(t, c))
	require.Equal(t, []int{30}, landed)
	_, ok = c.Pending()
	require.False(t, ok)
}

func TestNavigateItemSynchronousProvider(t *testing.T) {
	w, err := virtual.New(virtual.Config{Size: 10}, 51)
	require.NoError(t, err)

	c := navigation.New(navigation.NewSequence(51, nil), navigation.WithProvider(w))
	defer c.Close()

	require.Equal(t, navigation.SignalMoved, c.NavigateItem(40, navigation.Forward))
	require.Equal(t, 40, focused(t, c))
	require.True(t, w.VisibleWindow().Contains(40))
}

func TestNavigateNextCrossesWindowEdge(t *testing.T) {
	w, err := virtual.New(virtual.Config{Size: 3}, 6)
	require.NoError(t, err)
	c := navigation.New(navigation.NewSequence(6, nil), navigation.WithProvider(w))
	defer c.Close()

	c.NavigateFirst()
	c.NavigateNext()
	c.NavigateNext()
	require.Equal(t, 2, focused(t, c))
	require.Equal(t, navigation.SignalMoved, c.NavigateNext())
	require.Equal(t, 3, focused(t, c))
	require.Equal(t, navigation.Window{Start: 1, End: 4}, w.VisibleWindow())
}

func TestClosedControllerIgnoresContentChanges(t *testing.T) {
	w, err := virtual.New(virtual.Config{Size: 5}, 20)
	require.NoError(t, err)
	w.SetDeferred(true)

	c := navigation.New(navigation.NewSequence(20, nil), navigation.WithProvider(w))
	require.Equal(t, navigation.SignalPending, c.NavigateItem(15, navigation.Forward))
	c.Close()
	w.Flush()
	_, ok := c.Focused()
	require.False(t, ok)
}

func TestSignalString(t *testing.T) {
	require.Equal(t, "pending", navigation.SignalPending.String())
	require.Equal(t, "none", navigation.SignalNone.String())
}

func TestFocusExactIndex(t *testing.T) {
	c := navigation.New(grouped())
	require.True(t, c.Focus(4))
	require.Equal(t, 4, focused(t, c))

	require.False(t, c.Focus(3), "headers are not focusable")
	require.False(t, c.Focus(9))
	require.Equal(t, 4, focused(t, c))
}
