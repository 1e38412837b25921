package reconcile

import (
	"context"
	"fmt"
	"log"

	"firewand/internal/payments"
	"firewand/internal/utils"

	"cloud.google.com/go/firestore"
	"github.com/stripe/stripe-go/v78"
)

// RoleMetadataKey is the reserved provider metadata key whose value
// becomes the product's role label.
const RoleMetadataKey = "firebaseRole"

// UpsertProduct mirrors a product upserted event. Metadata keys are
// re-emitted with the namespaced prefix so flat equality queries work, and
// normalized name fields are maintained for prefix search.
func (r *Reconciler) UpsertProduct(ctx context.Context, p *stripe.Product) error {
	nameLower := utils.NormalizeNameLower(p.Name)
	data := map[string]interface{}{
		"active":      p.Active,
		"name":        p.Name,
		"name_lower":  nameLower,
		"keywords":    utils.SearchTokens(p.Name),
		"description": p.Description,
		"images":      p.Images,
		"role":        p.Metadata[RoleMetadataKey],
		"metadata":    p.Metadata,
	}
	if p.TaxCode != nil {
		data["tax_code"] = p.TaxCode.ID
	}
	for k, v := range p.Metadata {
		data[payments.MetadataPrefix+k] = v
	}

	_, err := r.client.Products().Doc(p.ID).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	log.Printf("reconcile: product upserted id=%s active=%v", p.ID, p.Active)
	return nil
}

// DeleteProduct removes the mirror document for a deleted product.
func (r *Reconciler) DeleteProduct(ctx context.Context, productID string) error {
	_, err := r.client.Products().Doc(productID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", productID, err)
	}
	log.Printf("reconcile: product deleted id=%s", productID)
	return nil
}

// UpsertPrice mirrors a price upserted event under its owning product.
// Tiered prices require a provider round-trip: webhook payloads omit the
// tiers array, so the payload's word is not trusted for tiered schemes.
func (r *Reconciler) UpsertPrice(ctx context.Context, p *stripe.Price) error {
	if p.Product == nil || p.Product.ID == "" {
		return fmt.Errorf("%w: price %s carries no product", payments.ErrInvalidArgument, p.ID)
	}

	tiers := p.Tiers
	if p.BillingScheme == stripe.PriceBillingSchemeTiered && len(tiers) == 0 {
		expanded, err := r.api.GetPrice(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("expand tiers for price %s: %w", p.ID, err)
		}
		tiers = expanded.Tiers
	}

	data := map[string]interface{}{
		"product":        p.Product.ID,
		"active":         p.Active,
		"billing_scheme": string(p.BillingScheme),
		"currency":       string(p.Currency),
		"description":    p.Nickname,
		"type":           string(p.Type),
		"unit_amount":    p.UnitAmount,
		"metadata":       p.Metadata,
		"recurring":      nil,
		"tiers":          tierDocs(tiers),
	}
	if p.TiersMode != "" {
		data["tiers_mode"] = string(p.TiersMode)
	}
	if p.Recurring != nil {
		data["recurring"] = map[string]interface{}{
			"interval":          string(p.Recurring.Interval),
			"interval_count":    p.Recurring.IntervalCount,
			"trial_period_days": p.Recurring.TrialPeriodDays,
			"usage_type":        string(p.Recurring.UsageType),
		}
	}
	for k, v := range p.Metadata {
		data[payments.MetadataPrefix+k] = v
	}

	_, err := r.client.Products().PriceDoc(p.Product.ID, p.ID).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("upsert price %s: %w", p.ID, err)
	}
	log.Printf("reconcile: price upserted id=%s product=%s scheme=%s", p.ID, p.Product.ID, p.BillingScheme)
	return nil
}

// DeletePrice removes the mirror document for a deleted price.
func (r *Reconciler) DeletePrice(ctx context.Context, p *stripe.Price) error {
	if p.Product == nil || p.Product.ID == "" {
		return fmt.Errorf("%w: price %s carries no product", payments.ErrInvalidArgument, p.ID)
	}
	_, err := r.client.Products().PriceDoc(p.Product.ID, p.ID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete price %s: %w", p.ID, err)
	}
	log.Printf("reconcile: price deleted id=%s product=%s", p.ID, p.Product.ID)
	return nil
}

// UpsertTaxRate mirrors a tax rate under products/tax_rates/tax_rates.
func (r *Reconciler) UpsertTaxRate(ctx context.Context, t *stripe.TaxRate) error {
	ref := r.client.Products().Doc("tax_rates").Collection("tax_rates").Doc(t.ID)
	_, err := ref.Set(ctx, map[string]interface{}{
		"active":       t.Active,
		"display_name": t.DisplayName,
		"description":  t.Description,
		"inclusive":    t.Inclusive,
		"percentage":   t.Percentage,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("upsert tax rate %s: %w", t.ID, err)
	}
	log.Printf("reconcile: tax rate upserted id=%s", t.ID)
	return nil
}

func tierDocs(tiers []*stripe.PriceTier) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, map[string]interface{}{
			"flat_amount": t.FlatAmount,
			"unit_amount": t.UnitAmount,
			"up_to":       t.UpTo,
		})
	}
	return out
}
