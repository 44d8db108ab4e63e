// internal/app/router.go
package app

import (
	"net/http"

	"tafiti-service/internal/config"
	"tafiti-service/internal/domain/event"
	"tafiti-service/internal/eventbus"
	"tafiti-service/internal/gateway"
	billinghdl "tafiti-service/internal/handlers/billing"
	businesshdl "tafiti-service/internal/handlers/business"
	paymenthdl "tafiti-service/internal/handlers/payment"
	rewardhdl "tafiti-service/internal/handlers/reward"
	surveyhdl "tafiti-service/internal/handlers/survey"
	webhookhdl "tafiti-service/internal/handlers/webhook"
	"tafiti-service/internal/metrics"
	"tafiti-service/internal/middleware"
	"tafiti-service/internal/payout"
	"tafiti-service/internal/pkg/idemcache"
	"tafiti-service/internal/pkg/jwt"
	"tafiti-service/internal/repository"
	billingsvc "tafiti-service/internal/service/billing"
	businesssvc "tafiti-service/internal/service/business"
	paymentsvc "tafiti-service/internal/service/payment"
	rewardsvc "tafiti-service/internal/service/reward"
	smssvc "tafiti-service/internal/service/sms"
	"tafiti-service/internal/smsgw"
	"tafiti-service/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// dependencies is everything the router needs to assemble services and
// handlers.
type dependencies struct {
	cfg      *config.AppConfig
	logger   *zap.Logger
	verifier *jwt.Verifier
	rdb      *redis.Client
	bus      *eventbus.Bus
	hub      *ws.Hub

	attempts      repository.PaymentAttempts
	settlements   repository.Settlements
	campaigns     repository.RewardCampaigns
	disbursements repository.RewardDisbursements
	ledger        repository.LoyaltyLedger
	integrations  repository.BusinessIntegrations
	transactions  repository.BusinessTransactions

	gateway *gateway.Client
	payout  *payout.Client
	sms     *smsgw.Client
	cache   *idemcache.Cache
}

// buildRouter assembles services, subscribes the event pipeline, and
// mounts all routes. The webhook service is returned because the
// reconciler settles through it.
func buildRouter(d *dependencies) (*gin.Engine, *paymentsvc.WebhookService) {
	// Services
	payments := paymentsvc.NewPaymentService(d.attempts, d.settlements, d.gateway, d.cache, d.cfg.PaymentCallTimeout, d.logger)
	webhooks := paymentsvc.NewWebhookService(d.attempts, d.settlements, d.gateway, d.bus, d.logger)

	registry := rewardsvc.NewRegistry(d.logger)
	registry.Register(rewardsvc.NewAirtimeProvider(d.payout))
	registry.Register(rewardsvc.NewDataBundleProvider(d.payout))
	registry.Register(rewardsvc.NewVoucherProvider(d.payout))
	registry.Register(rewardsvc.NewLoyaltyProvider(d.ledger))

	eligibility := rewardsvc.NewEligibilityService(d.campaigns, d.bus, d.logger)
	orchestrator := rewardsvc.NewOrchestrator(d.campaigns, d.disbursements, registry, d.bus, 0, d.logger)
	campaignSvc := rewardsvc.NewCampaignService(d.campaigns, d.disbursements, d.logger)

	businessSvc := businesssvc.NewBusinessService(d.integrations, d.transactions, d.bus, d.logger)
	invites := smssvc.NewInviteService(d.sms, d.cfg.SurveyBaseURL, d.logger)
	billingSvc := billingsvc.NewBillingService(d.gateway, d.logger)

	// Event pipeline
	d.bus.Subscribe(event.NameSurveyCompleted, "reward.eligibility", eligibility.HandleSurveyCompleted)
	d.bus.Subscribe(event.NameRewardDistributionRequested, "reward.orchestrator", orchestrator.HandleDistributionRequested)
	d.bus.Subscribe(event.NameBusinessTransactionReceived, "sms.invite", invites.HandleBusinessTransactionReceived)

	// Handlers
	paymentHandler := paymenthdl.NewPaymentHandler(payments)
	webhookHandler := webhookhdl.NewWebhookHandler(webhooks, businessSvc, d.logger)
	rewardHandler := rewardhdl.NewRewardHandler(campaignSvc)
	surveyHandler := surveyhdl.NewSurveyHandler(d.bus)
	billingHandler := billinghdl.NewBillingHandler(billingSvc)
	businessHandler := businesshdl.NewBusinessHandler(businessSvc)

	limiter := middleware.NewRateLimiter(d.rdb, d.cfg.RateLimit, d.cfg.RateLimitWindow, d.logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.RecoveryMiddleware(d.logger),
		middleware.LoggingMiddleware(d.logger),
		middleware.CORSMiddleware(d.cfg.AllowedOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Inbound webhooks authenticate themselves (signature or path
	// secret), not via JWT.
	hooks := r.Group("/webhooks")
	{
		hooks.POST("/gateway", webhookHandler.Gateway)
		hooks.POST("/business/:integration_id/:secret/confirmation", webhookHandler.BusinessConfirmation)
		hooks.POST("/business/:integration_id/:secret/validation", webhookHandler.BusinessValidation)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(d.verifier), limiter.Middleware())
	{
		api.POST("/payments", paymentHandler.Initiate)
		api.GET("/payments/:id", paymentHandler.Get)
		api.GET("/payments/:id/settlements", paymentHandler.ListSettlements)

		api.POST("/campaigns", rewardHandler.CreateCampaign)
		api.GET("/campaigns", rewardHandler.ListCampaigns)
		api.GET("/campaigns/:id", rewardHandler.GetCampaign)
		api.POST("/campaigns/:id/cancel", rewardHandler.CancelCampaign)
		api.GET("/campaigns/:id/disbursements", rewardHandler.ListDisbursements)

		api.POST("/surveys/completions", surveyHandler.Completed)

		api.GET("/ws/feed", d.hub.ServeWS)

		// Integration and billing management is restricted to tenant admins.
		admin := api.Group("", middleware.RequireRole("admin"))
		admin.POST("/integrations", businessHandler.CreateIntegration)
		admin.POST("/billing/subscriptions", billingHandler.Subscribe)
		admin.POST("/billing/subscriptions/disable", billingHandler.Unsubscribe)
	}

	return r, webhooks
}
