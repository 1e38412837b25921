package payments

// Registry caches lazily constructed components per Client instance. It
// replaces process-wide caching so tests can build isolated clients.
//
// There is deliberately no lock around the check-then-set done by the DAO
// accessors: a concurrent caller may construct a component twice and the
// second Set wins. Components hold no state beyond their handles, so the
// duplicate is discarded harmlessly.
type Registry struct {
	components map[string]any
}

func NewRegistry() *Registry {
	return &Registry{components: make(map[string]any)}
}

func (r *Registry) Get(key string) (any, bool) {
	v, ok := r.components[key]
	return v, ok
}

func (r *Registry) Set(key string, component any) {
	r.components[key] = component
}

const (
	keyCustomers     = "customers-dao"
	keyProducts      = "products-dao"
	keySubscriptions = "subscriptions-dao"
	keyInvoices      = "invoices-dao"
	keyPayments      = "payments-dao"
	keySessions      = "sessions"
)
