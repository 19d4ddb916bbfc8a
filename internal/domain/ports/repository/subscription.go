package repository

import (
	"context"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.UserSubscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.UserSubscription, error)
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.UserSubscription, error)

	// Activation records pin each applied payment to the subscription it
	// extended. FindActivationByPayment returns domain.ErrNotFound when the
	// payment has not been applied yet.
	FindActivationByPayment(ctx context.Context, tx Tx, paymentID string) (string, error)
	SaveActivation(ctx context.Context, tx Tx, paymentID, subscriptionID string) error
}
