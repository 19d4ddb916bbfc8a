package uzum

import (
	"context"
	"fmt"
	"net/url"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	adapterport "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/adapter"
)

var _ adapterport.CheckoutLinker = (*Linker)(nil)

const defaultPayURL = "https://www.uzumbank.uz/open-service"

type Linker struct {
	cfg Config
}

func NewLinker(cfg Config) *Linker {
	return &Linker{cfg: cfg}
}

func (l *Linker) Provider() model.PaymentProvider { return model.ProviderUzum }

func (l *Linker) CheckoutURL(_ context.Context, p *model.Payment) (string, error) {
	if l.cfg.ServiceID == "" {
		return "", fmt.Errorf("uzum service_id is required")
	}
	base := l.cfg.PayURL
	if base == "" {
		base = defaultPayURL
	}
	q := url.Values{}
	q.Set("serviceId", l.cfg.ServiceID)
	q.Set("orderId", p.OrderID)
	q.Set("amount", fmt.Sprintf("%d", p.Amount))
	return base + "?" + q.Encode(), nil
}
