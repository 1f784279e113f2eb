// File: labbook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labbook/config"
	"labbook/cron"
	"labbook/database"
	bookingRepo "labbook/database/repository/booking"
	customerRepo "labbook/database/repository/customer"
	"labbook/handlers"
	"labbook/middleware"
	"labbook/routes"
	"labbook/services/auth"
	"labbook/services/booking"
	"labbook/services/cart"
	"labbook/services/crm"
	"labbook/services/location"
	"labbook/services/search"
	"labbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	database.InitDB()
	utils.InitRedis()
	stripe.Key = config.AppConfig.StripeKey

	appCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// repositories.
	db := database.Database()
	bookings, err := bookingRepo.NewMongoBookingRepo(db)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize booking repository: %v", err)
	}
	customers, err := customerRepo.NewMongoCustomerRepo(db)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize customer repository: %v", err)
	}

	// outbound clients.
	providerHTTP := utils.NewBreakerClient("provider", config.AppConfig.ProviderTimeout)
	geocodeHTTP := utils.NewBreakerClient("geocoder", 10*time.Second)
	searchHTTP := utils.NewBreakerClient("search", 10*time.Second)
	crmHTTP := utils.NewBreakerClient("crm", 15*time.Second)
	geoIPHTTP := utils.NewBreakerClient("geoip", 5*time.Second)

	// services.
	tracker := utils.NewLatestTracker()
	carts := cart.NewService(cart.NewRedisSnapshots(utils.GetCacheClient(), config.AppConfig.CartTTL), logger)
	validator := booking.NewFormValidator(time.Now)
	drafts := booking.NewDrafts(booking.NewRedisDrafts(utils.GetCacheClient(), config.AppConfig.DraftTTL), validator, logger)

	providerClient := booking.NewProviderClient(config.AppConfig.ProviderBaseURL, config.AppConfig.ProviderAPIKey, providerHTTP, logger)
	var gateway booking.PaymentGateway = booking.NewProviderGateway(providerClient)
	if config.AppConfig.PaymentGateway == "stripe" {
		gateway = booking.NewStripeGateway(config.AppConfig.StripeSuccessURL, config.AppConfig.StripeCancelURL, logger)
	}

	queueClient := asynq.NewClient(cron.QueueRedisOpt())
	defer queueClient.Close()
	leads := crm.NewQueue(queueClient, logger)
	crmClient := crm.NewClient(config.AppConfig.CRMFormURL, config.AppConfig.CRMAssetKey, config.AppConfig.CRMEntityType, crmHTTP, logger)

	orchestrator := booking.NewOrchestrator(booking.Deps{
		Carts:    carts,
		Drafts:   drafts,
		Provider: providerClient,
		Gateway:  gateway,
		Records:  bookings,
		Leads:    leads,
		Redis:    utils.GetCacheClient(),
		Logger:   logger,
	})

	geocoder := location.NewGoogleGeocoder(location.DefaultGeocodeURL, config.AppConfig.GoogleAPIKey, geocodeHTTP, logger)
	resolver := location.NewResolver(geocoder, tracker, logger)
	searcher := search.NewSearcher(search.NewClient(config.AppConfig.SearchURL, searchHTTP, logger), tracker, config.AppConfig.SearchDebounce, logger)
	authService := auth.NewService(
		utils.NewOTPStore(utils.GetOTPCacheClient()),
		customers,
		utils.NewTokenIssuer(config.AppConfig.JWTSecret),
		utils.GetAuthCacheClient(),
		logger,
	)
	locator := middleware.NewIPLocator(config.AppConfig.GeoIPURL, geoIPHTTP, logger)

	// handlers.
	cartHandler := handlers.NewCartHandler(carts)
	slotHandler := handlers.NewSlotHandler(time.Now)
	draftHandler := handlers.NewDraftHandler(drafts)
	locationHandler := handlers.NewLocationHandler(resolver, drafts)
	searchHandler := handlers.NewSearchHandler(searcher)
	contactHandler := handlers.NewContactHandler(leads)
	authHandler := handlers.NewAuthHandler(authService)
	checkoutHandler := handlers.NewCheckoutHandler(orchestrator)
	bookingsHandler := handlers.NewBookingsHandler(bookings)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Auth:    authService,
		Locator: locator,

		// Cart endpoints.
		GetCart:        cartHandler.GetCartHandler,
		AddCartItem:    cartHandler.AddItemHandler,
		UpdateCartItem: cartHandler.UpdateQuantityHandler,
		RemoveCartItem: cartHandler.RemoveItemHandler,
		ClearCart:      cartHandler.ClearCartHandler,

		// Slot endpoints.
		GetDates: slotHandler.GetDatesHandler,
		GetTimes: slotHandler.GetTimesHandler,

		// Booking form endpoints.
		GetDraft:        draftHandler.GetDraftHandler,
		UpdateDraft:     draftHandler.UpdateDraftHandler,
		ValidateDraft:   draftHandler.ValidateDraftHandler,
		SelectDate:      draftHandler.SelectDateHandler,
		SelectTime:      draftHandler.SelectTimeHandler,
		SetCollection:   draftHandler.SetCollectionHandler,
		SelectClinic:    draftHandler.SelectClinicHandler,
		ListClinics:     handlers.ListClinicsHandler,
		LocationClick:   locationHandler.ClickHandler,
		LocationCurrent: locationHandler.CurrentLocationHandler,
		LocationPlace:   locationHandler.PlaceHandler,

		// Search and contact.
		SearchTests:   searchHandler.SearchTestsHandler,
		SubmitContact: contactHandler.SubmitContactHandler,

		// Customer sign-in.
		RequestOTP: authHandler.RequestOTPHandler,
		VerifyOTP:  authHandler.VerifyOTPHandler,
		SignOut:    authHandler.SignOutHandler,

		// Checkout and ledger.
		SubmitCheckout: checkoutHandler.SubmitCheckoutHandler,
		ResumeCheckout: checkoutHandler.ResumeCheckoutHandler,
		ListBookings:   bookingsHandler.ListBookingsHandler,
		GetBooking:     bookingsHandler.GetBookingHandler,

		Health: handlers.HealthHandler,
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(appCtx, []*redis.Client{
		utils.GetCacheClient(),
		utils.GetAuthCacheClient(),
		utils.GetOTPCacheClient(),
	}, database.MongoClient)
	worker := cron.InitLeadWorker(appCtx, crmClient, logger)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()
	if err := database.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
