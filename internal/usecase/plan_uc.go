// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
)

// PlanUseCase manages subscription plans.
type PlanUseCase struct {
	repo repository.SubscriptionPlanRepository
}

func NewPlanUseCase(repo repository.SubscriptionPlanRepository) *PlanUseCase {
	return &PlanUseCase{repo: repo}
}

// Create validates and saves a new plan.
func (uc *PlanUseCase) Create(ctx context.Context, name string, months int, priceTiyin int64) (*model.SubscriptionPlan, error) {
	if name == "" || months <= 0 || priceTiyin <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	p := &model.SubscriptionPlan{
		ID:             uuid.NewString(),
		Name:           name,
		DurationMonths: months,
		PriceTiyin:     priceTiyin,
		Active:         true,
		CreatedAt:      time.Now(),
	}
	if err := uc.repo.Save(ctx, nil, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get retrieves a plan by ID.
func (uc *PlanUseCase) Get(ctx context.Context, id string) (*model.SubscriptionPlan, error) {
	return uc.repo.FindByID(ctx, nil, id)
}

// List returns all plans.
func (uc *PlanUseCase) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return uc.repo.ListAll(ctx, nil)
}
