package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/app/repositories"
	"github.com/shashiranjanraj/vyapar/internal/billing"
	"github.com/shashiranjanraj/vyapar/pkg/bind"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/response"
)

type PaymentController struct {
	billing  *billing.Service
	payments *repositories.PaymentRepository
}

func NewPaymentController(svc *billing.Service, payments *repositories.PaymentRepository) *PaymentController {
	return &PaymentController{billing: svc, payments: payments}
}

type createPaymentInput struct {
	CustomerID string          `json:"customerId" validate:"nullable,size=24"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,in=cash,card,upi,bank_transfer"`
	Status     string          `json:"status" validate:"nullable,in=pending,completed,failed"`
}

func (c *PaymentController) Create(w http.ResponseWriter, r *http.Request) {
	var in createPaymentInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	customerID, err := resolveBuyerID(r, in.CustomerID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if in.Amount.IsNegative() {
		response.Error(w, http.StatusUnprocessableEntity, "Payment amount must not be negative")
		return
	}
	if in.Status == "" {
		in.Status = models.PaymentCompleted
	}

	pay := &models.Payment{
		CustomerID: customerID,
		Amount:     in.Amount,
		Method:     in.Method,
		Status:     in.Status,
	}

	pay, err = c.billing.RecordPayment(r.Context(), pay)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Customer not found")
			return
		}
		logger.WithCtx(r.Context()).Error("payment record failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Could not record payment")
		return
	}

	response.Created(w, pay)
}

func (c *PaymentController) Index(w http.ResponseWriter, r *http.Request) {
	customerID, err := resolveBuyerID(r, r.URL.Query().Get("customerId"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	payments, pagination, err := c.payments.ListForCustomer(r.Context(), customerID, page, limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not list payments")
		return
	}

	response.Paginated(w, payments, pagination)
}
