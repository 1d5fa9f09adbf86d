package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/app/repositories"
	"github.com/shashiranjanraj/vyapar/internal/billing"
	"github.com/shashiranjanraj/vyapar/pkg/bind"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/middleware"
	"github.com/shashiranjanraj/vyapar/pkg/response"
)

// InvoiceController is the HTTP face of the invoice pipeline. All
// pricing, stock and ledger work happens in billing.Service; the
// controller only binds input and maps domain errors to status codes.
type InvoiceController struct {
	billing  *billing.Service
	invoices *repositories.InvoiceRepository
}

func NewInvoiceController(svc *billing.Service, invoices *repositories.InvoiceRepository) *InvoiceController {
	return &InvoiceController{billing: svc, invoices: invoices}
}

type createInvoiceInput struct {
	BuyerID string              `json:"buyerId" validate:"nullable,size=24"`
	Items   []billing.LineInput `json:"items"`
}

func (c *InvoiceController) Create(w http.ResponseWriter, r *http.Request) {
	var in createInvoiceInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}
	if len(in.Items) == 0 {
		response.Error(w, http.StatusUnprocessableEntity, "An invoice needs at least one item")
		return
	}

	buyerID, err := resolveBuyerID(r, in.BuyerID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	input := billing.CreateInvoiceInput{BuyerID: buyerID, Items: in.Items}
	if uid, ok := middleware.UserIDFromCtx(r); ok {
		if sellerID, idErr := primitive.ObjectIDFromHex(uid); idErr == nil {
			if role, _ := middleware.RoleFromCtx(r); role == models.RoleSeller {
				input.SellerID = sellerID
			}
		}
	}

	inv, err := c.billing.CreateInvoice(r.Context(), input)
	if err != nil {
		c.writeBillingError(w, r, err)
		return
	}

	response.Created(w, inv)
}

func (c *InvoiceController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	inv, err := c.invoices.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			response.NotFound(w)
			return
		}
		response.Error(w, http.StatusInternalServerError, "Could not load invoice")
		return
	}

	response.Success(w, inv)
}

func (c *InvoiceController) Index(w http.ResponseWriter, r *http.Request) {
	buyerID, err := resolveBuyerID(r, r.URL.Query().Get("buyerId"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	invoices, pagination, err := c.invoices.ListForBuyer(r.Context(), buyerID, page, limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not list invoices")
		return
	}

	response.Paginated(w, invoices, pagination)
}

func (c *InvoiceController) writeBillingError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *billing.InsufficientStockError

	switch {
	case errors.As(err, &stockErr):
		response.Error(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, billing.ErrNoItems),
		errors.Is(err, billing.ErrMissingTitle), errors.Is(err, billing.ErrMissingRate):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, billing.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Referenced document not found")
	default:
		logger.WithCtx(r.Context()).Error("invoice create failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Could not create invoice")
	}
}

// resolveBuyerID picks the buyer for a request. A customer always acts
// on their own ledger; sellers and admins must name a buyer explicitly.
func resolveBuyerID(r *http.Request, explicit string) (primitive.ObjectID, error) {
	role, _ := middleware.RoleFromCtx(r)
	if role == models.RoleCustomer {
		uid, ok := middleware.UserIDFromCtx(r)
		if !ok {
			return primitive.NilObjectID, errors.New("missing authenticated user")
		}
		return primitive.ObjectIDFromHex(uid)
	}

	if explicit == "" {
		return primitive.NilObjectID, errors.New("buyerId is required")
	}
	id, err := primitive.ObjectIDFromHex(explicit)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid buyerId")
	}
	return id, nil
}
