package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// CartService bundles the cart operations the router exposes.
type CartService interface {
	CartAdmitter
	CartLister
}

// RouterConfig carries everything the router needs.
type RouterConfig struct {
	Cart      CartService
	Sweeper   CartSweeper
	Purchase  Purchaser
	Confirmer PaymentConfirmer
	Admin     ShoppableAdmin
	Verifier  IntentVerifier
	// AllowedOrigins configures CORS; empty disables cross-origin access.
	AllowedOrigins []string
	Logger         *log.Logger
}

// NewRouter wires all shop endpoints onto a chi mux.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return RequestLogger(next, cfg.Logger)
	})
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", headerMemberID, headerAnonymousCode},
			AllowCredentials: true,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})

	r.Get("/health", HealthHandler)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", HandleListCart(cfg.Cart, cfg.Sweeper))
		r.Post("/purchase", HandlePurchaseCart(cfg.Purchase))
		r.Post("/{shoppableID}", HandleAddToCart(cfg.Cart))
	})

	r.Post("/webhooks/stripe", HandleStripeWebhook(cfg.Verifier, cfg.Confirmer))

	r.Route("/admin/shoppables", func(r chi.Router) {
		r.Get("/", HandleListShoppables(cfg.Admin))
		r.Post("/", HandleCreateShoppable(cfg.Admin))
		r.Delete("/{shoppableID}", HandleRemoveShoppable(cfg.Admin))
	})

	return r
}
