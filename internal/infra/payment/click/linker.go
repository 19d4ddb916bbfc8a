package click

import (
	"context"
	"fmt"
	"net/url"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	adapterport "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/adapter"
)

var _ adapterport.CheckoutLinker = (*Linker)(nil)

const payURL = "https://my.click.uz/services/pay"

type Linker struct {
	cfg Config
}

func NewLinker(cfg Config) *Linker {
	return &Linker{cfg: cfg}
}

func (l *Linker) Provider() model.PaymentProvider { return model.ProviderClick }

func (l *Linker) CheckoutURL(_ context.Context, p *model.Payment) (string, error) {
	if l.cfg.ServiceID == "" || l.cfg.MerchantID == "" {
		return "", fmt.Errorf("click service_id and merchant_id are required")
	}
	q := url.Values{}
	q.Set("service_id", l.cfg.ServiceID)
	q.Set("merchant_id", l.cfg.MerchantID)
	if l.cfg.MerchantUserID != "" {
		q.Set("merchant_user_id", l.cfg.MerchantUserID)
	}
	// Amount is carried in sums with two decimals.
	q.Set("amount", fmt.Sprintf("%d.%02d", p.Amount/100, p.Amount%100))
	q.Set("transaction_param", p.OrderID)
	return payURL + "?" + q.Encode(), nil
}
