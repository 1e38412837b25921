package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	ProjectID      string
	Port           string
	AllowedOrigins []string
	StorageBucket  string

	StripeSecretKey     string
	StripeWebhookSecret string

	CustomersCollection string
	ProductsCollection  string
	SessionTimeout      time.Duration

	BTPayAPIKey  string
	BTPayBaseURL string
}

func Load() Config {
	projectID := getenv("FIREBASE_PROJECT_ID", "")
	if projectID == "" {
		projectID = getenv("GOOGLE_CLOUD_PROJECT", "")
	}

	storageBucket := getenv("FIREBASE_STORAGE_BUCKET", "")
	if storageBucket == "" && projectID != "" {
		storageBucket = projectID + ".appspot.com"
	}

	allowed := []string{}
	for _, o := range strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed = append(allowed, o)
		}
	}

	timeout := 10 * time.Second
	if v := getenv("STRIPE_SESSION_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			timeout = d
		}
	}

	return Config{
		ProjectID:           projectID,
		Port:                getenv("PORT", "8080"),
		AllowedOrigins:      allowed,
		StorageBucket:       storageBucket,
		StripeSecretKey:     getenv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getenv("STRIPE_WEBHOOK_SECRET", ""),
		CustomersCollection: getenv("CUSTOMERS_COLLECTION", "customers"),
		ProductsCollection:  getenv("PRODUCTS_COLLECTION", "products"),
		SessionTimeout:      timeout,
		BTPayAPIKey:         getenv("BTPAY_API_KEY", ""),
		BTPayBaseURL:        getenv("BTPAY_BASE_URL", ""),
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
