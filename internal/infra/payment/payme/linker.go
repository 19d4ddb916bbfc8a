package payme

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	adapterport "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/adapter"
)

var _ adapterport.CheckoutLinker = (*Linker)(nil)

const defaultCheckoutURL = "https://checkout.paycom.uz"

// Linker builds the hosted checkout URL: base64 of the merchant id, account
// fields and amount, appended to the checkout host.
type Linker struct {
	cfg Config
}

func NewLinker(cfg Config) *Linker {
	return &Linker{cfg: cfg}
}

func (l *Linker) Provider() model.PaymentProvider { return model.ProviderPayme }

func (l *Linker) CheckoutURL(_ context.Context, p *model.Payment) (string, error) {
	if l.cfg.MerchantID == "" {
		return "", fmt.Errorf("payme merchant_id is not configured")
	}
	host := l.cfg.CheckoutURL
	if host == "" {
		host = defaultCheckoutURL
	}
	params := fmt.Sprintf("m=%s;ac.order_id=%s;a=%d", l.cfg.MerchantID, p.OrderID, p.Amount)
	return host + "/" + base64.StdEncoding.EncodeToString([]byte(params)), nil
}
