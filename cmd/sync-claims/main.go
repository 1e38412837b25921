// Command sync-claims recomputes a user's derived role claim from their
// mirrored subscriptions. Useful after restoring a backup or fixing a
// missed webhook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"firewand/internal/config"
	"firewand/internal/firebase"
	"firewand/internal/payments"
)

func main() {
	uid := flag.String("uid", "", "target firebase uid")
	claimKey := flag.String("claim", "stripeRole", "custom claim key to sync")
	flag.Parse()
	if *uid == "" {
		log.Fatal("uid is required: -uid=xxxxx")
	}

	ctx := context.Background()
	cfg := config.Load()

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		log.Fatalf("firebase init failed: %v", err)
	}
	defer clients.Close()

	client := payments.NewClient(clients.Firestore, clients.Auth, payments.Config{
		CustomersCollection: cfg.CustomersCollection,
		ProductsCollection:  cfg.ProductsCollection,
	})

	role := ""
	sub, err := client.Subscriptions().Current(ctx, *uid)
	switch {
	case err == nil:
		role = sub.Role
	case payments.IsNotFound(err):
		// No entitled subscription: clear the claim.
	default:
		log.Fatalf("read subscriptions: %v", err)
	}

	user, err := clients.Auth.GetUser(ctx, *uid)
	if err != nil {
		log.Fatalf("get user: %v", err)
	}

	claims := map[string]interface{}{}
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	if role == "" {
		delete(claims, *claimKey)
	} else {
		claims[*claimKey] = role
	}

	if err := clients.Auth.SetCustomUserClaims(ctx, *uid, claims); err != nil {
		log.Fatalf("set claims: %v", err)
	}

	if role == "" {
		fmt.Printf("ok: %s cleared for %s\n", *claimKey, *uid)
	} else {
		fmt.Printf("ok: %s=%s set for %s\n", *claimKey, role, *uid)
	}
}
