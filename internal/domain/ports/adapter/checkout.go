package adapter

import (
	"context"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
)

// CheckoutLinker builds the provider checkout page URL the user is redirected
// to after a payment row has been created in pending state.
type CheckoutLinker interface {
	Provider() model.PaymentProvider
	CheckoutURL(ctx context.Context, p *model.Payment) (string, error)
}
