package reconcile

import (
	"encoding/json"
	"fmt"

	"firewand/internal/payments"
)

// LineRef is the canonical (price, product) reference extracted from one
// invoice line item. Provider payloads carry two shapes depending on API
// version — a legacy top-level price object or the newer
// pricing.price_details block — and both are resolved here, once, at
// ingestion. Nothing downstream branches on payload shape.
type LineRef struct {
	PriceID   string
	ProductID string
}

type rawInvoice struct {
	Lines struct {
		Data []rawLine `json:"data"`
	} `json:"lines"`
}

type rawLine struct {
	Price *struct {
		ID      string          `json:"id"`
		Product json.RawMessage `json:"product"`
	} `json:"price"`
	Pricing *struct {
		PriceDetails struct {
			Price   string `json:"price"`
			Product string `json:"product"`
		} `json:"price_details"`
	} `json:"pricing"`
}

// NormalizeLineRefs extracts canonical line references from a raw invoice
// event payload. Lines carrying neither shape are dropped.
func NormalizeLineRefs(raw json.RawMessage) ([]LineRef, error) {
	var inv rawInvoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("%w: decode invoice lines: %v", payments.ErrInvalidArgument, err)
	}

	out := []LineRef{}
	for _, line := range inv.Lines.Data {
		switch {
		case line.Pricing != nil && line.Pricing.PriceDetails.Price != "":
			out = append(out, LineRef{
				PriceID:   line.Pricing.PriceDetails.Price,
				ProductID: line.Pricing.PriceDetails.Product,
			})
		case line.Price != nil && line.Price.ID != "":
			out = append(out, LineRef{
				PriceID:   line.Price.ID,
				ProductID: decodeProductField(line.Price.Product),
			})
		}
	}
	return out, nil
}

// decodeProductField handles the expandable product field, which is
// either a bare id string or an embedded object.
func decodeProductField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}
