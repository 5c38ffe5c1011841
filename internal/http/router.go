package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kennedy-ak/hitech-store/internal/service"
)

type RouterDeps struct {
	Products *ProductHandler
	Carts    *CartHandler
	Auth     *AuthHandler
	Checkout *CheckoutHandler
	Payments *PaymentHandler
	Addrs    *AddressHandler
	AuthSvc  *service.AuthService
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(OwnerMiddleware(deps.AuthSvc))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", deps.Products.ListProducts)
		r.Get("/products/{slug}", deps.Products.GetProduct)

		r.Get("/cart", deps.Carts.GetCart)
		r.Post("/cart/items", deps.Carts.AddItem)
		r.Put("/cart/items/{product_id}", deps.Carts.UpdateQuantity)
		r.Delete("/cart/items/{product_id}", deps.Carts.RemoveItem)
		r.Delete("/cart", deps.Carts.ClearCart)

		r.Post("/auth/signup", deps.Auth.Signup)
		r.Post("/auth/login", deps.Auth.Login)
		r.Post("/auth/logout", deps.Auth.Logout)

		// The gateway redirects the customer's browser here; no session.
		r.Get("/payments/callback", deps.Payments.Callback)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Get("/me", deps.Auth.Me)
			r.Put("/me", deps.Auth.UpdateMe)

			r.Post("/checkout", deps.Checkout.Checkout)
			r.Get("/orders", deps.Checkout.ListOrders)
			r.Get("/orders/{order_id}", deps.Checkout.GetOrder)
			r.Post("/orders/{order_id}/pay", deps.Payments.InitiatePayment)

			r.Get("/addresses", deps.Addrs.ListAddresses)
			r.Post("/addresses", deps.Addrs.CreateAddress)
			r.Put("/addresses/{address_id}", deps.Addrs.UpdateAddress)
			r.Delete("/addresses/{address_id}", deps.Addrs.DeleteAddress)
			r.Post("/addresses/{address_id}/default", deps.Addrs.SetDefaultAddress)
		})
	})

	return r
}
