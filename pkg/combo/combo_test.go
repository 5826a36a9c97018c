package combo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/combo/pkg/filtering"
	"github.com/oakwood-commons/combo/pkg/grouping"
	"github.com/oakwood-commons/combo/pkg/navigation"
	"github.com/oakwood-commons/combo/pkg/selection"
)

type record = map[string]any

func states() []record {
	return []record{
		{"f": "Connecticut", "r": "New England"},
		{"f": "Maine", "r": "New England"},
		{"f": "Ohio", "r": "Midwest"},
		{"f": "Iowa", "r": "Midwest"},
		{"f": "Nevada", "r": "West"},
	}
}

func keyedOptions() Options {
	opts := DefaultOptions()
	opts.ValueKey = "f"
	opts.DisplayKey = "f"
	return opts
}

func TestSelectAccumulatesAndJoinsDisplayText(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions())
	require.NoError(t, err)

	changed, err := c.Select([]Key{"Sofia"}, false)
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = c.Select([]Key{"Paris"}, false)
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, []Key{"Sofia", "Paris"}, c.Value())
	assert.Equal(t, "Sofia, Paris", c.DisplayText())
	assert.Equal(t, []string{"Sofia", "Paris"}, c.Selection())
}

func TestSelectClearExisting(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions())
	require.NoError(t, err)
	_, err = c.Select([]Key{"NY", "Sofia"}, false)
	require.NoError(t, err)

	_, err = c.Select([]Key{"Paris"}, true)
	require.NoError(t, err)
	assert.Equal(t, []Key{"Paris"}, c.Value())
}

func TestSelectUnchangedDoesNotEmit(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia"}, DefaultOptions())
	require.NoError(t, err)
	_, err = c.Select([]Key{"NY"}, false)
	require.NoError(t, err)

	calls := 0
	c.OnSelectionChanging(func(*SelectionChangingEvent[string]) Outcome {
		calls++
		return Proceed()
	})
	changed, err := c.Select([]Key{"NY"}, false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, calls)
}

func TestGroupedDisplaySequence(t *testing.T) {
	opts := keyedOptions()
	opts.GroupKey = "r"
	data := []record{{"f": "CT", "r": "NE"}, {"f": "ME", "r": "NE"}}
	c, err := New("states", data, opts)
	require.NoError(t, err)

	display := c.Display()
	require.Len(t, display, 3)
	assert.True(t, display[0].IsHeader())
	assert.Equal(t, "NE", display[0].GroupValue())
	assert.Equal(t, data[0], display[1].Value())
	assert.Equal(t, data[1], display[2].Value())
	assert.Len(t, c.FilteredData(), 2, "filtered data excludes headers")
}

func TestGroupSortDirection(t *testing.T) {
	opts := keyedOptions()
	opts.GroupKey = "r"
	opts.GroupSortDirection = grouping.Descending
	c, err := New("states", states(), opts)
	require.NoError(t, err)

	var headers []any
	for _, e := range c.Display() {
		if e.IsHeader() {
			headers = append(headers, e.GroupValue())
		}
	}
	assert.Equal(t, []any{"West", "New England", "Midwest"}, headers)
}

func TestAddCustomItem(t *testing.T) {
	opts := keyedOptions()
	opts.GroupKey = "r"
	opts.AllowCustomValues = true
	c, err := New("states", states(), opts)
	require.NoError(t, err)

	require.True(t, c.HandleInputChange("Texas"))
	assert.Empty(t, c.FilteredData())
	require.True(t, c.IsAddItemVisible())

	var added *AdditionEvent[record]
	c.OnAddition(func(ev *AdditionEvent[record]) Outcome {
		added = ev
		return Proceed()
	})
	changed, err := c.AddItemToCollection()
	require.NoError(t, err)
	require.True(t, changed)

	require.NotNil(t, added)
	assert.Len(t, added.OldCollection, 5)
	assert.Len(t, added.NewCollection, 6)
	assert.Equal(t, record{"f": "Texas", "r": "Other"}, added.AddedItem)

	data := c.Data()
	require.Len(t, data, 6)
	assert.Equal(t, record{"f": "Texas", "r": "Other"}, data[5])
	assert.Equal(t, []Key{"Texas"}, c.Value())

	require.True(t, c.HandleInputChange("Texas"))
	assert.False(t, c.IsAddItemVisible())
}

func TestAddCustomItemMatchIsCaseSensitiveAndTrimmed(t *testing.T) {
	opts := keyedOptions()
	opts.AllowCustomValues = true
	c, err := New("states", states(), opts)
	require.NoError(t, err)

	c.HandleInputChange("Ohio")
	assert.False(t, c.IsAddItemVisible())

	c.HandleInputChange("ohio")
	assert.Len(t, c.FilteredData(), 1, "search is case-insensitive")
	assert.True(t, c.IsAddItemVisible(), "exact match is case-sensitive")

	c.HandleInputChange("   ")
	assert.False(t, c.IsAddItemVisible(), "blank text is never a custom value")
}

func TestAddCustomItemPrimitive(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowCustomValues = true
	c, err := New("cities", []string{"NY"}, opts)
	require.NoError(t, err)

	_, err = c.AddItemToCollection()
	require.ErrorIs(t, err, ErrNoSearchText)

	c.HandleInputChange("Lima")
	changed, err := c.AddItemToCollection()
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []string{"NY", "Lima"}, c.Data())
	assert.Equal(t, []Key{"Lima"}, c.Value())
}

func TestAdditionHandlerCanMutateOrCancel(t *testing.T) {
	opts := keyedOptions()
	opts.AllowCustomValues = true
	c, err := New("states", states(), opts)
	require.NoError(t, err)

	c.OnAddition(func(ev *AdditionEvent[record]) Outcome {
		if ev.AddedItem["f"] == "Nope" {
			return Cancel("rejected")
		}
		ev.AddedItem["code"] = "TX"
		return Proceed()
	})

	c.HandleInputChange("Nope")
	changed, err := c.AddItemToCollection()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, c.Data(), 5)

	c.HandleInputChange("Texas")
	_, err = c.AddItemToCollection()
	require.NoError(t, err)
	item, ok := c.ItemByKey("Texas")
	require.True(t, ok)
	assert.Equal(t, "TX", item["code"])
}

func TestSelectAllRespectsFilter(t *testing.T) {
	data := make([]string, 0, 51)
	for i := 0; i < 47; i++ {
		data = append(data, fmt.Sprintf("item %02d", i))
	}
	data = append(data, "Texas 1", "Texas 2", "texas 3", "TEXAS 4")

	c, err := New("many", data, DefaultOptions())
	require.NoError(t, err)
	c.HandleInputChange("texas")
	require.Len(t, c.FilteredData(), 4)

	_, err = c.SelectAll(false)
	require.NoError(t, err)
	assert.Len(t, c.Value(), 4)
	assert.Equal(t, Checked, c.HeaderState())

	_, err = c.SelectAll(true)
	require.NoError(t, err)
	assert.Len(t, c.Value(), 51)
}

func TestDeselectAll(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia", "Paris", "Porto"}, DefaultOptions())
	require.NoError(t, err)
	_, err = c.SelectAll(true)
	require.NoError(t, err)

	c.HandleInputChange("p")
	require.Len(t, c.FilteredData(), 2)
	_, err = c.DeselectAll(false)
	require.NoError(t, err)
	assert.Equal(t, []Key{"NY", "Sofia"}, c.Value())

	_, err = c.DeselectAll(true)
	require.NoError(t, err)
	assert.Empty(t, c.Value())
	assert.Equal(t, "", c.DisplayText())
}

func TestHeaderState(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Unchecked, c.HeaderState())

	_, err = c.Select([]Key{"NY"}, false)
	require.NoError(t, err)
	assert.Equal(t, Indeterminate, c.HeaderState())

	c.HandleInputChange("NY")
	assert.Equal(t, Checked, c.HeaderState())
}

func TestCancellationLeavesStoreUntouched(t *testing.T) {
	store := selection.NewStore()
	var formCalls int
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions(),
		WithStore[string](store),
		WithFormAdapter[string](FormAdapterFunc(func([]Key) { formCalls++ })),
	)
	require.NoError(t, err)
	_, err = c.Select([]Key{"NY"}, false)
	require.NoError(t, err)
	require.Equal(t, 1, formCalls)

	var seen *SelectionChangingEvent[string]
	c.OnSelectionChanging(func(ev *SelectionChangingEvent[string]) Outcome {
		seen = ev
		return Cancel("frozen")
	})

	for _, op := range []func() (bool, error){
		func() (bool, error) { return c.Select([]Key{"Sofia", "Paris"}, true) },
		func() (bool, error) { return c.Deselect([]Key{"NY"}) },
		func() (bool, error) { return c.SelectAll(true) },
		func() (bool, error) { return c.DeselectAll(true) },
		func() (bool, error) { return c.WriteValue([]Key{"Paris"}) },
	} {
		changed, err := op()
		require.NoError(t, err)
		assert.False(t, changed)
		assert.True(t, store.Get("cities").Equal(selection.MustSet("NY")))
		assert.Equal(t, []Key{"NY"}, c.Value())
		assert.Equal(t, "NY", c.DisplayText())
	}
	assert.Equal(t, 1, formCalls)

	require.NotNil(t, seen)
	assert.Equal(t, []Key{"NY"}, seen.OldValue)
	assert.Equal(t, []Key{"Paris"}, seen.NewValue)
	assert.Equal(t, []Key{"Paris"}, seen.Added)
	assert.Equal(t, []Key{"NY"}, seen.Removed)
	assert.Equal(t, "Paris", seen.DisplayText)
}

func TestSelectionEventCarriesItems(t *testing.T) {
	c, err := New("states", states(), keyedOptions())
	require.NoError(t, err)

	var ev SelectionChangingEvent[record]
	c.OnSelectionChanging(func(e *SelectionChangingEvent[record]) Outcome {
		ev = *e
		return Proceed()
	})
	_, err = c.Select([]Key{"Ohio", "Iowa"}, false)
	require.NoError(t, err)

	assert.Empty(t, ev.OldSelection)
	require.Len(t, ev.NewSelection, 2)
	assert.Equal(t, "Ohio", ev.NewSelection[0]["f"])
	assert.Equal(t, "Ohio, Iowa", ev.DisplayText)
}

func TestHandlersRunInOrderAndFirstCancelWins(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia"}, DefaultOptions())
	require.NoError(t, err)

	var order []string
	c.OnSelectionChanging(func(*SelectionChangingEvent[string]) Outcome {
		order = append(order, "first")
		return Cancel("no")
	})
	c.OnSelectionChanging(func(*SelectionChangingEvent[string]) Outcome {
		order = append(order, "second")
		return Proceed()
	})
	_, err = c.Select([]Key{"NY"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, order)
}

func TestHandlerCanRewriteNewValue(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions())
	require.NoError(t, err)
	c.OnSelectionChanging(func(ev *SelectionChangingEvent[string]) Outcome {
		ev.NewValue = []Key{"Paris"}
		return Proceed()
	})

	changed, err := c.Select([]Key{"NY"}, false)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []Key{"Paris"}, c.Value())
	assert.Equal(t, "Paris", c.DisplayText())
}

func TestSelectInvalidKey(t *testing.T) {
	c, err := New("cities", []string{"NY"}, DefaultOptions())
	require.NoError(t, err)

	_, err = c.Select([]Key{nil}, false)
	require.ErrorIs(t, err, selection.ErrInvalidKey)
	_, err = c.Select([]Key{[]string{"x"}}, false)
	require.ErrorIs(t, err, selection.ErrInvalidKey)
}

func TestFalsyKeysAreSelectable(t *testing.T) {
	c, err := New("falsy", []any{0, false, "", selection.Null}, DefaultOptions())
	require.NoError(t, err)

	_, err = c.Select([]Key{0, false, "", selection.Null}, false)
	require.NoError(t, err)
	assert.Len(t, c.Value(), 4)
	assert.True(t, c.IsSelected(0))
	assert.True(t, c.IsSelected(false))
	assert.True(t, c.IsSelected(selection.Null))
}

func TestSelectionOfUnknownKeysYieldsPlaceholders(t *testing.T) {
	c, err := New("states", states(), keyedOptions())
	require.NoError(t, err)
	_, err = c.WriteValue([]Key{"Ohio", "Atlantis"})
	require.NoError(t, err)

	sel := c.Selection()
	require.Len(t, sel, 2)
	assert.Equal(t, "Midwest", sel[0]["r"])
	assert.Equal(t, record{"f": "Atlantis"}, sel[1])
	assert.Equal(t, "Ohio, Atlantis", c.DisplayText())
}

func TestOpenCloseLifecycle(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia"}, DefaultOptions())
	require.NoError(t, err)

	var events []string
	c.OnOpening(func(*OpeningEvent) Outcome { events = append(events, "opening"); return Proceed() })
	c.OnOpened(func(*OpenedEvent) Outcome { events = append(events, "opened"); return Proceed() })
	c.OnClosing(func(*ClosingEvent) Outcome { events = append(events, "closing"); return Proceed() })
	c.OnClosed(func(*ClosedEvent) Outcome { events = append(events, "closed"); return Proceed() })

	assert.False(t, c.Close(), "already closed")
	require.True(t, c.Open())
	assert.Equal(t, Open, c.State())
	assert.False(t, c.Open(), "already open")
	assert.True(t, c.SearchFocused())

	c.HandleInputChange("So")
	require.True(t, c.Toggle())
	assert.Equal(t, Closed, c.State())
	assert.Equal(t, "", c.SearchText(), "closing clears the search")
	assert.Len(t, c.FilteredData(), 2)

	assert.Equal(t, []string{"opening", "opened", "closing", "closed"}, events)
}

func TestOpenAndCloseCanBeCanceled(t *testing.T) {
	c, err := New("cities", []string{"NY"}, DefaultOptions())
	require.NoError(t, err)

	block := true
	c.OnOpening(func(*OpeningEvent) Outcome {
		if block {
			return Cancel("busy")
		}
		return Proceed()
	})
	c.OnClosing(func(*ClosingEvent) Outcome { return Cancel("pinned") })

	assert.False(t, c.Open())
	assert.Equal(t, Closed, c.State())

	block = false
	require.True(t, c.Open())
	assert.False(t, c.Close())
	assert.Equal(t, Open, c.State())
}

func TestOpenWithoutAutoFocusFocusesFirstItem(t *testing.T) {
	opts := keyedOptions()
	opts.GroupKey = "r"
	opts.AutoFocusSearch = false
	c, err := New("states", states(), opts)
	require.NoError(t, err)

	require.True(t, c.Open())
	i, ok := c.Focused()
	require.True(t, ok)
	assert.Equal(t, 1, i, "index 0 is a header")
}

func TestOpenResetsStaleSearch(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia"}, DefaultOptions())
	require.NoError(t, err)
	_, err = c.Select([]Key{"NY"}, false)
	require.NoError(t, err)

	c.HandleInputChange("So")
	require.Len(t, c.FilteredData(), 1)
	require.True(t, c.Open())
	assert.Equal(t, "", c.SearchText())
	assert.Len(t, c.FilteredData(), 2)
}

func TestSearchInputCancelAbortsFilter(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions())
	require.NoError(t, err)
	c.OnSearchInput(func(ev *SearchInputEvent) Outcome {
		if ev.SearchText == "x" {
			return Cancel("ignored")
		}
		return Proceed()
	})

	require.True(t, c.HandleInputChange("o"))
	require.Len(t, c.FilteredData(), 1)
	assert.False(t, c.HandleInputChange("x"))
	assert.Equal(t, "o", c.SearchText())
	assert.Len(t, c.FilteredData(), 1)
}

func TestCaseSensitiveToggle(t *testing.T) {
	c, err := New("cities", []string{"NY", "ny", "Sofia"}, DefaultOptions())
	require.NoError(t, err)
	c.HandleInputChange("ny")
	assert.Len(t, c.FilteredData(), 2)

	c.ToggleCaseSensitive()
	assert.True(t, c.CaseSensitive())
	assert.Equal(t, []string{"ny"}, c.FilteredData())
}

func TestNotFilterableIgnoresSearch(t *testing.T) {
	opts := DefaultOptions()
	opts.Filterable = false
	c, err := New("cities", []string{"NY", "Sofia"}, opts)
	require.NoError(t, err)
	c.HandleInputChange("zzz")
	assert.Len(t, c.FilteredData(), 2)
}

func TestExtraExpressions(t *testing.T) {
	c, err := New("states", states(), keyedOptions(),
		WithExpressions[record](filtering.Expression{FieldName: "r", Condition: filtering.Equals, SearchValue: "Midwest"}),
	)
	require.NoError(t, err)
	assert.Len(t, c.FilteredData(), 2)

	c.HandleInputChange("oh")
	assert.Len(t, c.FilteredData(), 1)

	c.SetFilter(filtering.Tree{})
	assert.Len(t, c.FilteredData(), 1, "search still applies")
}

func TestMalformedExpressionsAreReported(t *testing.T) {
	var reports []filtering.Report
	engine := filtering.NewEngine(filtering.WithReporter(func(r filtering.Report) { reports = append(reports, r) }))
	c, err := New("states", states(), keyedOptions(),
		WithFilterEngine[record](engine),
		WithExpressions[record](filtering.Expression{FieldName: "f", Condition: filtering.CEL("_ +")}),
	)
	require.NoError(t, err)
	assert.Empty(t, c.FilteredData())
	require.NotEmpty(t, reports)
	assert.ErrorIs(t, reports[0].Err, filtering.ErrMalformedExpression)
}

func TestNavigationThroughAddItem(t *testing.T) {
	opts := DefaultOptions()
	opts.AllowCustomValues = true
	c, err := New("cities", []string{"Sofia", "Sopot"}, opts)
	require.NoError(t, err)
	require.True(t, c.Open())
	c.HandleInputChange("So")

	assert.Equal(t, navigation.SignalMoved, c.NavigateNext())
	item, ok := c.FocusedItem()
	require.True(t, ok)
	assert.Equal(t, "Sofia", item)

	assert.Equal(t, navigation.SignalMoved, c.NavigateNext())
	assert.Equal(t, navigation.SignalLeaveToAddItem, c.NavigateNext())
	assert.True(t, c.AddItemFocused())

	changed, err := c.ActivateFocused()
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []Key{"So"}, c.Value())

	c.NavigateItem(0)
	assert.Equal(t, navigation.SignalLeaveToSearch, c.NavigatePrev())
	assert.True(t, c.SearchFocused())
}

func TestActivateFocusedToggles(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoFocusSearch = false
	c, err := New("cities", []string{"NY", "Sofia"}, opts)
	require.NoError(t, err)
	require.True(t, c.Open())

	_, err = c.ActivateFocused()
	require.NoError(t, err)
	assert.Equal(t, []Key{"NY"}, c.Value())
	_, err = c.ActivateFocused()
	require.NoError(t, err)
	assert.Empty(t, c.Value())
}

func TestSharedStoreAndDestroy(t *testing.T) {
	store := selection.NewStore()
	a, err := New("a", []string{"x", "y"}, DefaultOptions(), WithStore[string](store))
	require.NoError(t, err)
	b, err := New("b", []string{"x", "y"}, DefaultOptions(), WithStore[string](store))
	require.NoError(t, err)

	_, err = a.Select([]Key{"x"}, false)
	require.NoError(t, err)
	assert.False(t, b.IsSelected("x"))

	again, err := New("a", []string{"x", "y"}, DefaultOptions(), WithStore[string](store))
	require.NoError(t, err)
	assert.Equal(t, []Key{"x"}, again.Value(), "existing selection is picked up")

	a.Destroy()
	assert.NotNil(t, store.Get("a"))
	assert.Zero(t, store.Size("a"))
}

func TestSetIDMovesSelection(t *testing.T) {
	store := selection.NewStore()
	c, err := New("old", []string{"x"}, DefaultOptions(), WithStore[string](store))
	require.NoError(t, err)
	_, err = c.Select([]Key{"x"}, false)
	require.NoError(t, err)

	require.NoError(t, c.SetID("new"))
	assert.Nil(t, store.Get("old"))
	assert.True(t, store.IsSelected("new", "x"))
	require.ErrorIs(t, c.SetID(""), selection.ErrInvalidComponentID)
}

func TestNewRejectsEmptyIDAndBadOptions(t *testing.T) {
	_, err := New("", []string{"x"}, DefaultOptions())
	require.ErrorIs(t, err, selection.ErrInvalidComponentID)

	opts := DefaultOptions()
	opts.GroupSortDirection = "sideways"
	_, err = New("x", []string{"x"}, opts)
	require.Error(t, err)
}

func TestSearchReseedsFocusOnSelectedItem(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions())
	require.NoError(t, err)
	_, err = c.Select([]Key{"Paris"}, false)
	require.NoError(t, err)

	require.True(t, c.Open())
	require.True(t, c.SearchFocused())
	require.True(t, c.HandleInputChange("a"))
	require.Len(t, c.FilteredData(), 2)

	assert.Equal(t, navigation.SignalMoved, c.NavigateNext())
	item, ok := c.FocusedItem()
	require.True(t, ok)
	assert.Equal(t, "Paris", item)
}

func TestSearchSeedsFirstItemWithoutSelection(t *testing.T) {
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions())
	require.NoError(t, err)

	require.True(t, c.Open())
	require.True(t, c.HandleInputChange("a"))
	c.NavigateNext()
	item, ok := c.FocusedItem()
	require.True(t, ok)
	assert.Equal(t, "Sofia", item)
}

func TestFilteringKeySearchesOtherField(t *testing.T) {
	opts := keyedOptions()
	opts.FilteringKey = "r"
	c, err := New("states", states(), opts)
	require.NoError(t, err)

	c.HandleInputChange("west")
	var names []any
	for _, r := range c.FilteredData() {
		names = append(names, r["f"])
	}
	assert.Equal(t, []any{"Ohio", "Iowa", "Nevada"}, names)

	c.HandleInputChange("Ohio")
	assert.Empty(t, c.FilteredData(), "the display field is not searched")
}

func TestFilterFuncReplacesFilterStep(t *testing.T) {
	var seen []filtering.Tree
	prefix := func(data []string, tree filtering.Tree) []string {
		seen = append(seen, tree)
		if tree.Empty() {
			return data
		}
		want := filtering.Stringify(tree.Expressions[len(tree.Expressions)-1].SearchValue)
		var out []string
		for _, s := range data {
			if strings.HasPrefix(s, want) {
				out = append(out, s)
			}
		}
		return out
	}
	c, err := New("cities", []string{"NY", "Sofia", "Paris"}, DefaultOptions(), WithFilterFunc[string](prefix))
	require.NoError(t, err)

	c.HandleInputChange("S")
	assert.Equal(t, []string{"Sofia"}, c.FilteredData(), "the default contains filter would also keep Paris")

	c.HandleInputChange("")
	assert.Len(t, c.FilteredData(), 3)
	require.NotEmpty(t, seen)
	assert.Equal(t, filtering.And, seen[len(seen)-1].Operator)
}
