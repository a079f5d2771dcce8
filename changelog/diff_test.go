package changelog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDiff_AddedRemovedChanged(t *testing.T) {
	previous := raw(t, map[string]any{
		"name":      "刘邦",
		"biography": "沛县人",
		"role":      "OTHER",
	})
	current := raw(t, map[string]any{
		"name":    "刘邦",
		"role":    "MONARCH",
		"aliases": []string{"汉王"},
	})

	diff, err := Diff(previous, current)
	require.NoError(t, err)
	require.Len(t, diff, 3)

	assert.Equal(t, []any{"汉王"}, diff["aliases"].Added)
	assert.Equal(t, "沛县人", diff["biography"].Removed)
	assert.Equal(t, "OTHER", diff["role"].From)
	assert.Equal(t, "MONARCH", diff["role"].To)

	// Unchanged keys never appear.
	_, present := diff["name"]
	assert.False(t, present)
}

func TestDiff_IdenticalSnapshotsYieldNothing(t *testing.T) {
	snapshot := raw(t, map[string]any{"name": "鸿门", "aliases": []string{"戏"}})

	diff, err := Diff(snapshot, snapshot)
	require.NoError(t, err)
	assert.Nil(t, diff)
}

func TestDiff_CreateAndDelete(t *testing.T) {
	record := raw(t, map[string]any{"name": "垓下"})

	created, err := Diff(nil, record)
	require.NoError(t, err)
	assert.Equal(t, "垓下", created["name"].Added)

	deleted, err := Diff(record, nil)
	require.NoError(t, err)
	assert.Equal(t, "垓下", deleted["name"].Removed)
}

func TestDiff_NestedValuesCompareBySerialization(t *testing.T) {
	previous := raw(t, map[string]any{"coordinates": map[string]float64{"lng": 109.27, "lat": 34.38}})
	current := raw(t, map[string]any{"coordinates": map[string]float64{"lng": 109.27, "lat": 34.39}})

	diff, err := Diff(previous, current)
	require.NoError(t, err)
	require.Contains(t, diff, "coordinates")
	assert.NotNil(t, diff["coordinates"].From)
	assert.NotNil(t, diff["coordinates"].To)
}

func TestDiff_RejectsNonObjectSnapshot(t *testing.T) {
	_, err := Diff(json.RawMessage(`[1,2]`), nil)
	assert.Error(t, err)
}
