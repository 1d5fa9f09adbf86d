// Package routes wires every HTTP endpoint to its controller.
package routes

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/vyapar/app/controllers"
	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/app/repositories"
	"github.com/shashiranjanraj/vyapar/internal/billing"
	"github.com/shashiranjanraj/vyapar/internal/rating"
	"github.com/shashiranjanraj/vyapar/pkg/metrics"
	"github.com/shashiranjanraj/vyapar/pkg/middleware"
	"github.com/shashiranjanraj/vyapar/pkg/rbac"
	"github.com/shashiranjanraj/vyapar/pkg/reqid"
	"github.com/shashiranjanraj/vyapar/pkg/response"
	"github.com/shashiranjanraj/vyapar/pkg/router"
	"github.com/shashiranjanraj/vyapar/pkg/ws"
)

// Deps carries the constructed services and repositories into route
// registration. The server builds one of these at boot.
type Deps struct {
	Billing  *billing.Service
	Rating   *rating.Service
	StockHub *ws.Hub

	Users     *repositories.UserRepository
	Products  *repositories.ProductRepository
	Invoices  *repositories.InvoiceRepository
	Customers *repositories.CustomerRepository
	Payments  *repositories.PaymentRepository
	Reviews   *repositories.ReviewRepository
}

// NewDeps constructs the repository set against the connected database.
// Services are filled in by the caller.
func NewDeps() Deps {
	return Deps{
		Users:     repositories.NewUserRepository(),
		Products:  repositories.NewProductRepository(),
		Invoices:  repositories.NewInvoiceRepository(),
		Customers: repositories.NewCustomerRepository(),
		Payments:  repositories.NewPaymentRepository(),
		Reviews:   repositories.NewReviewRepository(),
	}
}

func RegisterAPI(r *router.Router, d Deps) {
	r.Use(
		metrics.Middleware(),
		reqid.Middleware(),
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(300, time.Minute),
	)

	r.Get("/healthz", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	if d.StockHub != nil {
		r.Get("/ws/stock", "ws.stock", func(w http.ResponseWriter, req *http.Request) {
			ws.Upgrade(w, req, d.StockHub)
		})
	}

	authController := controllers.NewAuthController(d.Users, d.Customers)
	productController := controllers.NewProductController(d.Products)
	invoiceController := controllers.NewInvoiceController(d.Billing, d.Invoices)
	paymentController := controllers.NewPaymentController(d.Billing, d.Payments)
	reviewController := controllers.NewReviewController(d.Rating, d.Reviews)
	customerController := controllers.NewCustomerController(d.Billing, d.Customers)

	api := r.Group("/api")

	api.Post("/register", "auth.register", authController.Register)
	api.Post("/login", "auth.login", authController.Login)

	api.Get("/products", "products.index", productController.Index)
	api.Get("/products/{id}", "products.show", productController.Show)
	api.Get("/products/{id}/reviews", "reviews.index", reviewController.Index)

	auth := api.Group("", middleware.AuthMiddleware)

	auth.Get("/me", "auth.me", authController.Me)

	sellers := auth.Group("", rbac.HasRole(models.RoleSeller, models.RoleAdmin))
	sellers.Post("/products", "products.create", productController.Create)
	sellers.Post("/customers", "customers.create", customerController.Create)

	auth.Post("/invoices", "invoices.create", invoiceController.Create)
	auth.Get("/invoices", "invoices.index", invoiceController.Index)
	auth.Get("/invoices/{id}", "invoices.show", invoiceController.Show)

	auth.Post("/payments", "payments.create", paymentController.Create)
	auth.Get("/payments", "payments.index", paymentController.Index)

	auth.Get("/customers/{id}", "customers.show", customerController.Show)

	auth.Post("/reviews", "reviews.create", reviewController.Create)
	auth.Put("/reviews/{id}", "reviews.update", reviewController.Update)
	auth.Delete("/reviews/{id}", "reviews.delete", reviewController.Delete)

	admins := auth.Group("", rbac.HasRole(models.RoleAdmin))
	admins.Post("/customers/{id}/reconcile", "customers.reconcile", customerController.Reconcile)
}
