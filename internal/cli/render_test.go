package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/storefront-picks/internal/engine"
	"github.com/Veraticus/storefront-picks/internal/model"
)

func TestRenderCandidates(t *testing.T) {
	score := 65.5
	candidates := []engine.Candidate{
		{Product: model.Product{ID: 7, Name: "Atlas", Price: 24.5, Category: &model.Category{Name: "Books"}}, Tier: engine.TierPreference, Score: &score},
		{Product: model.Product{ID: 9, Name: "Whisk", Price: 4}, Tier: engine.TierHistory},
	}

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderCandidates(&buf, candidates, false))

		out := buf.String()
		assert.Contains(t, out, "Atlas")
		assert.Contains(t, out, "24.50")
		assert.Contains(t, out, "(none)")
		assert.NotContains(t, out, "preference")
		assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
	})

	t.Run("explain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderCandidates(&buf, candidates, true))

		out := buf.String()
		assert.Contains(t, out, "preference")
		assert.Contains(t, out, "65.5")
		assert.Contains(t, out, "history")
	})
}

func TestRenderProducts(t *testing.T) {
	var buf bytes.Buffer
	err := RenderProducts(&buf, []model.Product{
		{ID: 1, Name: "Kettle", Quantity: 2},
		{ID: 2, Name: "Teapot", Quantity: 0},
		{ID: 3, Name: "Map", Quantity: 5, Archival: true},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "available")
	assert.Contains(t, out, "sold out")
	assert.Contains(t, out, "archived")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []engine.Candidate{
		{Product: model.Product{ID: 4, Name: "Mug"}, Tier: engine.SupplierTier("cheapest")},
	}))

	out := buf.String()
	assert.Contains(t, out, `"tier": "supplier:cheapest"`)
	assert.Contains(t, out, `"id": 4`)
	assert.NotContains(t, out, `"score"`)
}

func TestValidateOutput(t *testing.T) {
	assert.NoError(t, ValidateOutput("table"))
	assert.NoError(t, ValidateOutput("json"))
	assert.Error(t, ValidateOutput("xml"))
}
