package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/app/repositories"
	"github.com/shashiranjanraj/vyapar/internal/billing"
	"github.com/shashiranjanraj/vyapar/pkg/bind"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/middleware"
	"github.com/shashiranjanraj/vyapar/pkg/response"
)

type CustomerController struct {
	billing   *billing.Service
	customers *repositories.CustomerRepository
}

func NewCustomerController(svc *billing.Service, customers *repositories.CustomerRepository) *CustomerController {
	return &CustomerController{billing: svc, customers: customers}
}

type createCustomerInput struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"nullable,min=7,max=20"`
	Address string `json:"address" validate:"nullable,max=1000"`
}

// Create registers a walk-in customer without a login. Customers that
// register themselves get their ledger document from AuthController.
func (c *CustomerController) Create(w http.ResponseWriter, r *http.Request) {
	var in createCustomerInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	customer := &models.Customer{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
	}
	if err := c.customers.Create(r.Context(), customer); err != nil {
		logger.WithCtx(r.Context()).Error("customer create failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Could not create customer")
		return
	}

	response.Created(w, customer)
}

func (c *CustomerController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := c.resolveID(w, r)
	if !ok {
		return
	}

	customer, err := c.customers.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.NotFound(w)
			return
		}
		response.Error(w, http.StatusInternalServerError, "Could not load customer")
		return
	}

	response.Success(w, customer)
}

// Reconcile forces a ledger recompute for one customer. The recompute
// is idempotent, so operators can run it freely after incidents.
func (c *CustomerController) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := c.resolveID(w, r)
	if !ok {
		return
	}

	if err := c.billing.ReconcileCustomer(r.Context(), id, nil); err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			response.NotFound(w)
			return
		}
		logger.WithCtx(r.Context()).Error("manual ledger reconcile failed",
			"customer_id", id.Hex(), "error", err)
		response.Error(w, http.StatusInternalServerError, "Ledger reconcile failed")
		return
	}

	customer, err := c.customers.FindByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not load customer")
		return
	}
	response.Success(w, customer)
}

// resolveID reads the {id} param and enforces that customers only see
// their own ledger. Writes the error response itself.
func (c *CustomerController) resolveID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid customer id")
		return primitive.NilObjectID, false
	}

	if role, _ := middleware.RoleFromCtx(r); role == models.RoleCustomer {
		if uid, ok := middleware.UserIDFromCtx(r); !ok || uid != id.Hex() {
			response.Forbidden(w)
			return primitive.NilObjectID, false
		}
	}

	return id, true
}
