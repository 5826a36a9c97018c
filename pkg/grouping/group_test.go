package grouping

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type rec = map[string]any

func field(r rec, f string) (any, bool) {
	v, ok := r[f]
	return v, ok
}

func TestGroupScenarioSingleGroup(t *testing.T) {
	data := []rec{{"f": "CT", "r": "NE"}, {"f": "ME", "r": "NE"}}
	got := Group(Sort(data, "r", Ascending, field), "r", field)

	require.Len(t, got, 3)
	require.True(t, got[0].IsHeader())
	require.Equal(t, "NE", got[0].GroupValue())
	require.Equal(t, "CT", got[1].Value()["f"])
	require.Equal(t, "ME", got[2].Value()["f"])
}

func TestGroupHeaderCountMatchesDistinctValues(t *testing.T) {
	data := []rec{
		{"f": "TX", "r": "South"},
		{"f": "CT", "r": "New England"},
		{"f": "AL", "r": "south"},
		{"f": "ME", "r": "New England"},
		{"f": "OR", "r": "West"},
		{"f": "??"},
	}
	sorted := Sort(data, "r", Ascending, field)
	got := Group(sorted, "r", field)

	// "South" and "south" are distinct values even though they collate together.
	require.Equal(t, 5, HeaderCount(got))
	for i, e := range got {
		if !e.IsHeader() {
			continue
		}
		require.Less(t, i+1, len(got))
		next := got[i+1]
		require.False(t, next.IsHeader())
		gv, _ := next.Value()["r"]
		require.Equal(t, e.GroupValue(), gv)
	}
	require.Equal(t, sorted, Items(got))
}

// Grouping compares against the previous item only; callers must pre-sort.
func TestGroupUnsortedInputRepeatsHeaders(t *testing.T) {
	data := []rec{{"r": "A"}, {"r": "B"}, {"r": "A"}}
	got := Group(data, "r", field)
	require.Equal(t, 3, HeaderCount(got))
}

func TestGroupWithoutKeyOrItems(t *testing.T) {
	data := []rec{{"r": "A"}, {"r": "B"}}
	got := Group(data, "", field)
	require.Len(t, got, 2)
	require.Equal(t, 0, HeaderCount(got))

	require.Empty(t, Group([]rec{}, "r", field))
}

func TestGroupNumericKeys(t *testing.T) {
	data := []rec{{"g": 2}, {"g": 0}, {"g": 2}, {"g": 10}}
	got := Group(Sort(data, "g", Ascending, field), "g", field)
	require.Equal(t, 3, HeaderCount(got))
	require.Equal(t, 0, got[0].GroupValue())
	require.Equal(t, 10, got[len(got)-2].GroupValue())
}

func TestSortDirections(t *testing.T) {
	data := []rec{{"r": "b"}, {"r": "A"}, {"r": "c"}}

	asc := Sort(data, "r", Ascending, field)
	require.Equal(t, []any{"A", "b", "c"}, values(asc))

	desc := Sort(data, "r", Descending, field)
	require.Equal(t, []any{"c", "b", "A"}, values(desc))

	require.Equal(t, values(data), values(Sort(data, "r", None, field)))
	require.Equal(t, "b", data[0]["r"], "input must not be reordered")
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Ascending, "ASC": Ascending, "descending": Descending, "none": None} {
		got, err := ParseDirection(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseDirection("sideways")
	require.Error(t, err)
}

func values(rs []rec) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = r["r"]
	}
	return out
}
