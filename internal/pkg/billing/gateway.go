package billing

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/product"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

// Gateway is the subset of the Stripe API the signup flow uses.
type Gateway interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	ListProducts(ctx context.Context, limit int) ([]*stripe.Product, error)
}

// StripeGateway talks to the Stripe API with a per-instance secret key.
type StripeGateway struct {
	sessions session.Client
	products product.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeGateway{
		sessions: session.Client{B: backend, Key: secretKey},
		products: product.Client{B: backend, Key: secretKey},
	}
}

// NewStripeGatewayFromEnv returns nil when STRIPE_SECRET_KEY is unset so
// callers can report the missing configuration per request.
func NewStripeGatewayFromEnv() *StripeGateway {
	key := strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", ""))
	if key == "" {
		return nil
	}
	return NewStripeGateway(key)
}

func (g *StripeGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return g.sessions.New(params)
}

func (g *StripeGateway) GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return g.sessions.Get(id, params)
}

func (g *StripeGateway) ListProducts(ctx context.Context, limit int) ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{}
	params.Limit = stripe.Int64(int64(limit))
	params.Single = true
	params.Context = ctx

	var products []*stripe.Product
	it := g.products.List(params)
	for it.Next() {
		products = append(products, it.Product())
		if len(products) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
