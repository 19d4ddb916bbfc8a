//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
)

func TestSubscriptionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewSubscriptionRepo(testPool)
	ctx := context.Background()
	cleanup(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	sub := &model.UserSubscription{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		PlanID:    "plan-1",
		StartAt:   now,
		ExpiresAt: now.AddDate(0, 1, 0),
		Status:    model.SubscriptionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.Run("should save and read a subscription", func(t *testing.T) {
		if err := repo.Save(ctx, repository.NoTX, sub); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		found, err := repo.FindByID(ctx, repository.NoTX, sub.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.UserID != "user-1" || found.Status != model.SubscriptionStatusActive {
			t.Errorf("mismatch in retrieved subscription: %+v", found)
		}
	})

	t.Run("should extend via upsert on the same id", func(t *testing.T) {
		sub.ExpiresAt = sub.ExpiresAt.AddDate(0, 1, 0)
		sub.UpdatedAt = time.Now().UTC()
		if err := repo.Save(ctx, repository.NoTX, sub); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		found, err := repo.FindByID(ctx, repository.NoTX, sub.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if !found.ExpiresAt.After(now.AddDate(0, 1, 0).Add(-time.Second)) {
			t.Errorf("expiry was not extended: %v", found.ExpiresAt)
		}
	})

	t.Run("should find the active subscription for a user", func(t *testing.T) {
		found, err := repo.FindActiveByUser(ctx, repository.NoTX, "user-1")
		if err != nil {
			t.Fatalf("FindActiveByUser failed: %v", err)
		}
		if found.ID != sub.ID {
			t.Errorf("expected subscription %s, got %s", sub.ID, found.ID)
		}

		if _, err := repo.FindActiveByUser(ctx, repository.NoTX, "user-2"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for user without subscription, got %v", err)
		}
	})

	t.Run("should record an activation once per payment", func(t *testing.T) {
		if _, err := repo.FindActivationByPayment(ctx, repository.NoTX, "pay-1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound before the record exists, got %v", err)
		}

		if err := repo.SaveActivation(ctx, repository.NoTX, "pay-1", sub.ID); err != nil {
			t.Fatalf("SaveActivation failed: %v", err)
		}
		// A replay must not overwrite the recorded subscription.
		if err := repo.SaveActivation(ctx, repository.NoTX, "pay-1", "sub-other"); err != nil {
			t.Fatalf("repeated SaveActivation failed: %v", err)
		}

		subID, err := repo.FindActivationByPayment(ctx, repository.NoTX, "pay-1")
		if err != nil {
			t.Fatalf("FindActivationByPayment failed: %v", err)
		}
		if subID != sub.ID {
			t.Errorf("expected recorded subscription %s, got %s", sub.ID, subID)
		}
	})

	t.Run("should lock the row when queried inside a transaction", func(t *testing.T) {
		tm := NewTxManager(testPool)
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			found, err := repo.FindActiveByUser(ctx, tx, "user-1")
			if err != nil {
				return err
			}
			found.ExpiresAt = found.ExpiresAt.AddDate(0, 1, 0)
			found.UpdatedAt = time.Now().UTC()
			return repo.Save(ctx, tx, found)
		})
		if err != nil {
			t.Fatalf("transactional extend failed: %v", err)
		}
	})
}
