package reconcile

import (
	"encoding/json"
	"testing"

	"firewand/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLineRefsLegacyShape(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "in_1",
		"lines": {"data": [
			{"price": {"id": "price_1", "product": "prod_1"}},
			{"price": {"id": "price_2", "product": {"id": "prod_2", "name": "Gold"}}}
		]}
	}`)

	refs, err := NormalizeLineRefs(raw)
	require.NoError(t, err)
	assert.Equal(t, []LineRef{
		{PriceID: "price_1", ProductID: "prod_1"},
		{PriceID: "price_2", ProductID: "prod_2"},
	}, refs)
}

func TestNormalizeLineRefsPriceDetailsShape(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "in_2",
		"lines": {"data": [
			{"pricing": {"price_details": {"price": "price_9", "product": "prod_9"}}}
		]}
	}`)

	refs, err := NormalizeLineRefs(raw)
	require.NoError(t, err)
	assert.Equal(t, []LineRef{{PriceID: "price_9", ProductID: "prod_9"}}, refs)
}

func TestNormalizeLineRefsPriceDetailsWins(t *testing.T) {
	// A line carrying both shapes resolves through price_details.
	raw := json.RawMessage(`{
		"lines": {"data": [
			{
				"price": {"id": "price_old", "product": "prod_old"},
				"pricing": {"price_details": {"price": "price_new", "product": "prod_new"}}
			}
		]}
	}`)

	refs, err := NormalizeLineRefs(raw)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "price_new", refs[0].PriceID)
	assert.Equal(t, "prod_new", refs[0].ProductID)
}

func TestNormalizeLineRefsDropsUnrecognizedLines(t *testing.T) {
	raw := json.RawMessage(`{
		"lines": {"data": [
			{"description": "ad-hoc line"},
			{"price": {"id": "price_1", "product": "prod_1"}}
		]}
	}`)

	refs, err := NormalizeLineRefs(raw)
	require.NoError(t, err)
	assert.Equal(t, []LineRef{{PriceID: "price_1", ProductID: "prod_1"}}, refs)
}

func TestNormalizeLineRefsBadPayload(t *testing.T) {
	_, err := NormalizeLineRefs(json.RawMessage(`{"lines": "nope"`))
	assert.True(t, payments.IsInvalidArgument(err))
}
