package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"spotsong-billing/internal/config"
	pg "spotsong-billing/internal/infra/db/postgres"
	"spotsong-billing/internal/infra/logging"
	"spotsong-billing/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)
	planUC := usecase.NewPlanUseCase(planRepo, logger)

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plan versions already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, price=%s, effective=%s)\n",
				p.Name, p.DaysPeriod, p.Price, p.EffectiveFrom.Format(time.RFC3339))
		}
		return
	}

	// Seed a few sample tiers for local testing
	now := time.Now().UTC()
	seed := []struct {
		Name  string
		Days  int
		Price string
	}{
		{"monthly", 30, "7.99"},
		{"quarterly", 90, "19.99"},
		{"annual", 365, "69.99"},
	}

	for _, s := range seed {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			log.Fatalf("price %q: %v", s.Price, err)
		}
		p, err := planUC.CreateVersion(ctx, s.Name, price, s.Days, now)
		if err != nil {
			log.Fatalf("create plan %s: %v", s.Name, err)
		}
		fmt.Printf("seeded plan %s (%s, %d days, %s)\n", p.ID, p.Name, p.DaysPeriod, p.Price)
	}

	// A demo card batch so a purchase can be settled right away
	cardUC := usecase.NewCardUseCase(pg.NewCardRepo(pool), pg.NewTxManager(pool), logger)
	ids, err := cardUC.Issue(ctx, 3, 10, "seed-admin")
	if err != nil {
		log.Fatalf("issue demo cards: %v", err)
	}
	fmt.Printf("seeded %d demo cards\n", len(ids))
}
