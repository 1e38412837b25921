package http

import (
	"net/http"
	"time"

	"firewand/internal/btpay"
	"firewand/internal/config"
	"firewand/internal/middleware"
	"firewand/internal/payments"
	"firewand/internal/reconcile"

	"firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	Cfg        config.Config
	AuthClient *auth.Client
	Payments   *payments.Client
	Reconciler *reconcile.Reconciler
	BTPay      *btpay.Client
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(d.Cfg.AllowedOrigins))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	// Webhook carries its own signature verification, no bearer auth.
	if d.Reconciler != nil {
		r.Post("/v1/stripe/webhook", d.Reconciler.HandleWebhook)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.AuthClient))

		pr.Get("/v1/products", func(w http.ResponseWriter, r *http.Request) {
			activeOnly := r.URL.Query().Get("all") == ""
			if q := r.URL.Query().Get("q"); q != "" {
				out, err := d.Payments.Products().Search(r.Context(), q, 20)
				if err != nil {
					FailErr(w, err)
					return
				}
				WriteJSON(w, 200, out)
				return
			}
			out, err := d.Payments.Products().List(r.Context(), payments.ListOptions{ActiveOnly: activeOnly})
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Get("/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			p, err := d.Payments.Products().Get(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, p)
		})

		pr.Get("/v1/products/{id}/prices", func(w http.ResponseWriter, r *http.Request) {
			out, err := d.Payments.Products().ListPrices(r.Context(), chi.URLParam(r, "id"), payments.ListOptions{ActiveOnly: true})
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Get("/v1/me/subscriptions", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			var statuses []payments.SubscriptionStatus
			for _, s := range r.URL.Query()["status"] {
				statuses = append(statuses, payments.SubscriptionStatus(s))
			}
			out, err := d.Payments.Subscriptions().List(r.Context(), au.UID, payments.SubscriptionListOptions{Status: statuses})
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Get("/v1/me/subscriptions/{id}", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			s, err := d.Payments.Subscriptions().Get(r.Context(), au.UID, chi.URLParam(r, "id"))
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, s)
		})

		pr.Get("/v1/me/invoices", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			opts := payments.InvoiceListOptions{
				SubscriptionID: r.URL.Query().Get("subscription"),
			}
			out, err := d.Payments.Invoices().List(r.Context(), au.UID, opts)
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Get("/v1/me/payments", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			out, err := d.Payments.Payments().List(r.Context(), au.UID)
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, out)
		})

		pr.Post("/v1/checkout", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			var p payments.CheckoutParams
			if err := ReadJSON(r, &p); err != nil {
				Fail(w, http.StatusBadRequest, "invalid json")
				return
			}
			sess, err := d.Payments.Sessions().CreateCheckout(r.Context(), au.UID, p)
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, map[string]any{"id": sess.ID, "url": sess.URL})
		})

		pr.Post("/v1/portal", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			var p payments.PortalParams
			if err := ReadJSON(r, &p); err != nil {
				Fail(w, http.StatusBadRequest, "invalid json")
				return
			}
			sess, err := d.Payments.Sessions().CreatePortal(r.Context(), au.UID, p)
			if err != nil {
				FailErr(w, err)
				return
			}
			WriteJSON(w, 200, map[string]any{"id": sess.ID, "url": sess.URL})
		})

		if d.BTPay != nil {
			pr.Post("/v1/btpay/checkout", func(w http.ResponseWriter, r *http.Request) {
				var p btpay.CheckoutParams
				if err := ReadJSON(r, &p); err != nil {
					Fail(w, http.StatusBadRequest, "invalid json")
					return
				}
				sess, err := d.BTPay.CreateCheckout(r.Context(), p)
				if err != nil {
					FailErr(w, err)
					return
				}
				WriteJSON(w, 200, sess)
			})
		}
	})

	return r
}
