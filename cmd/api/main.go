package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firewand/internal/btpay"
	"firewand/internal/config"
	"firewand/internal/firebase"
	apihttp "firewand/internal/http"
	"firewand/internal/payments"
	"firewand/internal/reconcile"

	"github.com/stripe/stripe-go/v78"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		log.Fatalf("firebase init failed: %v", err)
	}
	defer clients.Close()

	paymentsClient := payments.NewClient(clients.Firestore, clients.Auth, payments.Config{
		CustomersCollection: cfg.CustomersCollection,
		ProductsCollection:  cfg.ProductsCollection,
		SessionTimeout:      cfg.SessionTimeout,
	})

	var reconciler *reconcile.Reconciler
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
		reconciler = reconcile.New(paymentsClient, clients.Auth, reconcile.LiveStripeAPI{}, reconcile.Config{
			WebhookSecret: cfg.StripeWebhookSecret,
		})
		log.Println("stripe reconciler initialized")
	} else {
		log.Println("STRIPE_SECRET_KEY not set, webhook reconciliation disabled")
	}

	var btpayClient *btpay.Client
	if cfg.BTPayAPIKey != "" {
		btpayClient = btpay.NewClient(btpay.Config{
			APIKey:  cfg.BTPayAPIKey,
			BaseURL: cfg.BTPayBaseURL,
		})
		log.Println("btpay adapter initialized")
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:        cfg,
		AuthClient: clients.Auth,
		Payments:   paymentsClient,
		Reconciler: reconciler,
		BTPay:      btpayClient,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API listening on :%s (project=%s)", cfg.Port, cfg.ProjectID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("shutting down...")
	_ = srv.Shutdown(ctxShutdown)
}
