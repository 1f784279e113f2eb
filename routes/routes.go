package routes

import (
	"time"

	"labbook/handlers"
	"labbook/middleware"
	"labbook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterCartRoutes registers the visitor cart endpoints.
func RegisterCartRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	cart := api.Group("/cart")
	{
		cart.GET("", hb.GetCart)
		cart.DELETE("", hb.ClearCart)
		cart.POST("/items", hb.AddCartItem)
		cart.PATCH("/items", hb.UpdateCartItem)
		cart.DELETE("/items", hb.RemoveCartItem)
	}
}

// RegisterBookingRoutes registers slots, the booking form and address lookup.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	slots := api.Group("/slots")
	{
		slots.GET("/dates", hb.GetDates)
		slots.GET("/times", hb.GetTimes)
	}

	draft := api.Group("/booking/draft")
	{
		draft.GET("", middleware.CityHintMiddleware(hb.Locator), hb.GetDraft)
		draft.PATCH("", hb.UpdateDraft)
		draft.POST("/validate", hb.ValidateDraft)
		draft.PUT("/date", hb.SelectDate)
		draft.PUT("/time", hb.SelectTime)
		draft.PUT("/collection", hb.SetCollection)
		draft.PUT("/clinic", hb.SelectClinic)
	}

	api.GET("/clinics", hb.ListClinics)

	location := api.Group("/location")
	{
		location.POST("/click", hb.LocationClick)
		location.POST("/current", hb.LocationCurrent)
		location.POST("/place", hb.LocationPlace)
	}

	api.GET("/tests/search", hb.SearchTests)
	api.POST("/contact", hb.SubmitContact)
}

// RegisterAuthRoutes registers customer sign-in.
func RegisterAuthRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	auth := api.Group("/auth")
	{
		auth.POST("/otp", hb.RequestOTP)
		auth.POST("/verify", hb.VerifyOTP)
		auth.DELETE("/session", middleware.JWTAuthCustomerMiddleware(hb.Auth), hb.SignOut)
	}
}

// RegisterCheckoutRoutes registers submission and the booking ledger.
func RegisterCheckoutRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	checkout := api.Group("/checkout")
	{
		// Anonymous submissions are parked until the visitor signs in.
		checkout.POST("", middleware.OptionalCustomerAuth(hb.Auth), hb.SubmitCheckout)
		checkout.POST("/resume", middleware.JWTAuthCustomerMiddleware(hb.Auth), hb.ResumeCheckout)
	}

	bookings := api.Group("/bookings")
	{
		bookings.Use(middleware.JWTAuthCustomerMiddleware(hb.Auth))
		bookings.GET("", hb.ListBookings)
		bookings.GET("/:id", hb.GetBooking)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Authorization", "Content-Type", utils.SessionHeader},
		ExposeHeaders:   []string{"Content-Length", utils.SessionHeader},
		MaxAge:          12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)

	api := r.Group("/api")
	api.Use(middleware.VisitorSession())
	RegisterCartRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
	RegisterAuthRoutes(api, hb)
	RegisterCheckoutRoutes(api, hb)
}
