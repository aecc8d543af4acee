package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"fieldcrm/internal/api"
	"fieldcrm/internal/api/handlers"
	"fieldcrm/internal/api/middleware"
	"fieldcrm/internal/engine/billing"
	"fieldcrm/internal/engine/onboarding"
	"fieldcrm/internal/engine/permissions"
	"fieldcrm/internal/engine/provision"
	"fieldcrm/internal/pkg/logger"
	"fieldcrm/internal/platform/audit"
	"fieldcrm/internal/platform/auth"
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

	if missing := permissions.Missing(); len(missing) > 0 {
		log.Fatalf("Permission matrix incomplete: %v", missing)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	businessRepo := repositories.NewBusinessProfileRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	onboardingRepo := repositories.NewOnboardingStateRepository(db)
	inviteRepo := repositories.NewInviteRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	sessions := auth.NewSessionAccessor(tokenSvc)
	auditLog := audit.NewLogger(db)

	onboardingGate := onboarding.NewGate(profileRepo, membershipRepo, cfg.Access.GateFailMode)
	billingGate := billing.NewGate(subscriptionRepo, cfg.Access.GateFailMode)
	workflow := provision.NewWorkflow(orgRepo, membershipRepo, businessRepo, subscriptionRepo, profileRepo, onboardingRepo, cfg.Billing, provision.EntrySelfServe)

	// Handlers
	authHandler := handlers.NewAuthHandler(profileRepo, membershipRepo, inviteRepo, tokenSvc, auditLog)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingGate, workflow, auditLog)
	orgHandler := handlers.NewOrgHandler(orgRepo, businessRepo, membershipRepo, profileRepo)
	billingHandler := handlers.NewBillingHandler(subscriptionRepo, profileRepo, billingGate)
	userHandler := handlers.NewUserHandler(profileRepo, membershipRepo)
	inviteHandler := handlers.NewInviteHandler(inviteRepo, profileRepo, auditLog)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(sessions)
	accessMiddleware := middleware.NewAccessMiddleware(sessions, onboardingGate, billingGate, cfg.Access)

	// Router
	deps := &api.Dependencies{
		AuthHandler:       authHandler,
		OnboardingHandler: onboardingHandler,
		OrgHandler:        orgHandler,
		BillingHandler:    billingHandler,
		UserHandler:       userHandler,
		InviteHandler:     inviteHandler,
		HealthHandler:     healthHandler,
		AuthMiddleware:    authMiddleware,
		AccessMiddleware:  accessMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
