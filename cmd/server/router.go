package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/certify-api/internal/api"
	apiMiddleware "github.com/phrazzld/certify-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware. The callback endpoints are deliberately outside
// the authenticated group; workers authenticate with nothing but the
// correlation key.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	certHandler := api.NewCertificateHandler(app.certService)
	exampleHandler := api.NewExampleCertificateHandler(app.exampleService)
	gateHandler := api.NewGateHandler(app.gateService)
	callbackHandler := api.NewCallbackHandler(app.certService, app.exampleService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Certificate endpoints
			r.Post("/certificates/{courseID}", certHandler.Generate)
			r.Get("/certificates/{courseID}/status", certHandler.Status)
			r.Delete("/certificates/{courseID}", certHandler.Delete)

			// Example certificate endpoints
			r.Post("/courses/{courseID}/example-certificates", exampleHandler.Generate)
			r.Get("/courses/{courseID}/example-certificates", exampleHandler.Status)

			// Generation gate endpoints
			r.Get("/courses/{courseID}/certificate-generation", gateHandler.GetCourse)
			r.Put("/courses/{courseID}/certificate-generation", gateHandler.PutCourse)
			r.Put("/certificate-generation", gateHandler.PutGlobal)
		})
	})

	// Worker callback endpoints (unauthenticated)
	r.Post("/xqueue/update_certificate", callbackHandler.UpdateCertificate)
	r.Post("/xqueue/update_example_certificate", callbackHandler.UpdateExampleCertificate)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
