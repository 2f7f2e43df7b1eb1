package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kbine/internal/config"
	"kbine/internal/db"
	"kbine/internal/model"
	"kbine/internal/repository"
)

type planFixture struct {
	name         string
	amount       string
	validityDays int
	description  string
}

var fixtures = map[string]struct {
	name  string
	plans []planFixture
}{
	"OCI": {
		name: "Orange CI",
		plans: []planFixture{
			{"Orange 1Go", "500", 3, "1 Go valable 3 jours"},
			{"Orange 5Go", "2000", 30, "5 Go valable 30 jours"},
			{"Orange 10Go", "5000", 30, "10 Go valable 30 jours"},
		},
	},
	"MTN": {
		name: "MTN CI",
		plans: []planFixture{
			{"MTN 1.5Go", "500", 7, "1.5 Go valable 7 jours"},
			{"MTN 6Go", "2500", 30, "6 Go valable 30 jours"},
		},
	},
	"MOOV": {
		name: "Moov Africa CI",
		plans: []planFixture{
			{"Moov 2Go", "1000", 14, "2 Go valable 14 jours"},
			{"Moov 8Go", "3000", 30, "8 Go valable 30 jours"},
		},
	},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.Operator{}, &model.Plan{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	operatorRepo := repository.NewOperatorRepository(gormDB)
	planRepo := repository.NewPlanRepository(gormDB)

	ctx := context.Background()
	created := 0

	for code, fixture := range fixtures {
		operator, err := operatorRepo.FindByCode(ctx, code)
		if err == gorm.ErrRecordNotFound {
			operator = &model.Operator{Name: fixture.name, Code: code}
			if err := operatorRepo.Create(ctx, operator); err != nil {
				log.Fatalf("Failed to create operator %s: %v", code, err)
			}
		} else if err != nil {
			log.Fatalf("Failed to look up operator %s: %v", code, err)
		}

		existing, err := planRepo.ListByOperator(ctx, operator.ID)
		if err != nil {
			log.Fatalf("Failed to list plans for %s: %v", code, err)
		}
		known := make(map[string]bool, len(existing))
		for _, plan := range existing {
			known[plan.Name] = true
		}

		for _, seed := range fixture.plans {
			if known[seed.name] {
				continue
			}
			amount, err := decimal.NewFromString(seed.amount)
			if err != nil {
				log.Fatalf("Invalid amount for plan %s: %v", seed.name, err)
			}
			plan := &model.Plan{
				OperatorID:   operator.ID,
				Name:         seed.name,
				Amount:       amount,
				ValidityDays: seed.validityDays,
				Description:  seed.description,
				Active:       true,
			}
			if err := planRepo.Create(ctx, plan); err != nil {
				log.Fatalf("Failed to create plan %s: %v", seed.name, err)
			}
			created++
		}
	}

	log.Printf("Seed completed, %d plans created", created)
}
