package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/config"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
	pg "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, pg.Schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("schema applied")

	planRepo := pg.NewPlanRepo(pool)
	plans, err := planRepo.ListAll(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (months=%d, price=%d tiyin)\n", p.Name, p.DurationMonths, p.PriceTiyin)
		}
		return
	}

	// Sample plans for exercising the checkout and callback flow.
	seed := []struct {
		Name   string
		Months int
		Price  int64
	}{
		{"1 month", 1, 5_000_000},
		{"3 months", 3, 13_500_000},
		{"12 months", 12, 48_000_000},
	}

	for _, s := range seed {
		p := &model.SubscriptionPlan{
			ID:             uuid.NewString(),
			Name:           s.Name,
			DurationMonths: s.Months,
			PriceTiyin:     s.Price,
			Active:         true,
			CreatedAt:      time.Now(),
		}
		if err := planRepo.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("seed plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, months=%d, price=%d tiyin)\n", p.Name, p.ID, p.DurationMonths, p.PriceTiyin)
	}

	fmt.Println("Seeding complete.")
}
