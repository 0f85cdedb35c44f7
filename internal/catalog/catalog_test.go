package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryIDHasOneDescriptor(t *testing.T) {
	seen := map[ModelID]int{}
	for _, d := range All() {
		seen[d.ID]++
	}
	for _, id := range []ModelID{Style1, Style2, Style3, Style4} {
		assert.Equal(t, 1, seen[id], "descriptor count for %s", id)
	}
	assert.Len(t, seen, 4)
}

func TestDescriptorsAreSane(t *testing.T) {
	for _, d := range All() {
		assert.NotEmpty(t, d.Name, d.ID)
		assert.NotEmpty(t, d.AssetPath, d.ID)
		assert.Greater(t, d.Camera.Scale, 0.0, d.ID)
		assert.Less(t, d.Camera.MinDistance, d.Camera.MaxDistance, d.ID)

		dist := d.Camera.Position.Len()
		assert.GreaterOrEqual(t, dist, d.Camera.MinDistance, d.ID)
		assert.LessOrEqual(t, dist, d.Camera.MaxDistance, d.ID)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	d, err := Lookup(Style1)
	require.NoError(t, err)
	d.Camera.Scale = 99
	d.Name = "changed"

	again, err := Lookup(Style1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, again.Camera.Scale)
	assert.Equal(t, "Urban Commuter", again.Name)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("style9")
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnknownModel)

	id, err := Parse("style3")
	require.NoError(t, err)
	assert.Equal(t, Style3, id)
}

func TestIDsOrder(t *testing.T) {
	assert.Equal(t, []ModelID{Style1, Style2, Style3, Style4}, IDs())
}

func TestGroundingString(t *testing.T) {
	assert.Equal(t, "baseline", GroundBaseline.String())
	assert.Equal(t, "bounds", GroundToBounds.String())
	assert.Equal(t, "grounding(7)", Grounding(7).String())
}
