package main

import (
	"flag"
	"log"
	"time"

	"fieldcrm/internal/engine/provision"
	"fieldcrm/internal/pkg/logger"
	"fieldcrm/internal/platform/config"
	"fieldcrm/internal/platform/database"
	"fieldcrm/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	orgRepo := repositories.NewOrganizationRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	businessRepo := repositories.NewBusinessProfileRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	onboardingRepo := repositories.NewOnboardingStateRepository(db)

	reconciler := provision.NewReconciler(subscriptionRepo, orgRepo, membershipRepo, businessRepo, subscriptionRepo, onboardingRepo, cfg.Billing)

	log.Printf("Worker starting, reconcile interval %v", cfg.Worker.ReconcileInterval)

	// Run one sweep immediately so a restart doesn't wait a full interval.
	reconciler.Run()

	ticker := time.NewTicker(cfg.Worker.ReconcileInterval)
	defer ticker.Stop()
	for range ticker.C {
		reconciler.Run()
	}
}
