// Command seed populates the database with demo accounts and sample
// pickup requests so the API can be exercised right after a fresh
// install. Running it twice is safe: existing accounts are reused and
// sample requests are only created alongside a fresh citizen account.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/iliyamo/garbage-collection-service/internal/config"
	"github.com/iliyamo/garbage-collection-service/internal/database"
	"github.com/iliyamo/garbage-collection-service/internal/lifecycle"
	"github.com/iliyamo/garbage-collection-service/internal/model"
	"github.com/iliyamo/garbage-collection-service/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	requests := repository.NewRequestRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ensureUser(ctx, users, cfg.BcryptCost, "Admin User", "admin@example.com", "admin123", lifecycle.RoleAdmin)
	workerID := ensureUser(ctx, users, cfg.BcryptCost, "Garbage Worker", "worker@example.com", "worker123", lifecycle.RoleWorker)
	citizenID, created := ensureUserCreated(ctx, users, cfg.BcryptCost, "John Citizen", "citizen@example.com", "citizen123", lifecycle.RoleCitizen)

	if !created {
		log.Println("citizen already present; skipping sample requests")
		return
	}

	pending := samplePickup(citizenID, "123 Main St", "Dry", "2026-01-25")
	if err := requests.Create(ctx, pending, "pickup requested"); err != nil {
		log.Fatalf("seed pending pickup: %v", err)
	}

	assigned := samplePickup(citizenID, "456 Oak Ave", "Wet", "2026-01-26")
	if err := requests.Create(ctx, assigned, "pickup requested"); err != nil {
		log.Fatalf("seed assigned pickup: %v", err)
	}
	assignTo(ctx, requests, assigned.ID, workerID)

	collected := samplePickup(citizenID, "789 Pine Rd", "E-waste", "2026-01-20")
	if err := requests.Create(ctx, collected, "pickup requested"); err != nil {
		log.Fatalf("seed collected pickup: %v", err)
	}
	assignTo(ctx, requests, collected.ID, workerID)
	if err := requests.ApplyTransition(ctx, collected.ID, model.TransitionUpdate{
		From:  lifecycle.StatusAssigned,
		To:    lifecycle.StatusCollected,
		Steps: []model.StatusStep{{Status: lifecycle.StatusCollected}},
	}); err != nil {
		log.Fatalf("seed collect transition: %v", err)
	}

	log.Println("database seeded successfully")
}

func ensureUser(ctx context.Context, users *repository.UserRepo, cost int, name, email, password, role string) uint64 {
	id, _ := ensureUserCreated(ctx, users, cost, name, email, password, role)
	return id
}

// ensureUserCreated returns the user's id and whether it was created
// by this run.
func ensureUserCreated(ctx context.Context, users *repository.UserRepo, cost int, name, email, password, role string) (uint64, bool) {
	if u, err := users.GetByEmail(ctx, email); err == nil {
		return u.ID, false
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		log.Fatalf("lookup %s: %v", email, err)
	}
	id, err := users.Create(ctx, name, email, password, role, cost)
	if err != nil {
		log.Fatalf("create %s: %v", email, err)
	}
	log.Printf("created %s (%s)", email, role)
	return id, true
}

func samplePickup(citizenID uint64, address, garbageType, day string) *model.Request {
	when, err := time.Parse("2006-01-02", day)
	if err != nil {
		log.Fatalf("parse date %s: %v", day, err)
	}
	return &model.Request{
		Kind:         string(lifecycle.KindPickup),
		TrackingCode: uuid.NewString(),
		CitizenID:    citizenID,
		Status:       lifecycle.Initial(lifecycle.KindPickup),
		Address:      address,
		GarbageType:  garbageType,
		PickupDate:   &when,
	}
}

func assignTo(ctx context.Context, requests *repository.RequestRepo, id, workerID uint64) {
	w := workerID
	if err := requests.ApplyTransition(ctx, id, model.TransitionUpdate{
		From:     lifecycle.StatusPending,
		To:       lifecycle.StatusAssigned,
		WorkerID: &w,
		Steps:    []model.StatusStep{{Status: lifecycle.StatusAssigned}},
	}); err != nil {
		log.Fatalf("seed assign transition: %v", err)
	}
}
