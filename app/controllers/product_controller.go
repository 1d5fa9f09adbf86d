package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/app/repositories"
	"github.com/shashiranjanraj/vyapar/pkg/bind"
	"github.com/shashiranjanraj/vyapar/pkg/cache"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/middleware"
	"github.com/shashiranjanraj/vyapar/pkg/resource"
	"github.com/shashiranjanraj/vyapar/pkg/response"
)

const productCacheTTL = 5 * time.Minute

type ProductController struct {
	products *repositories.ProductRepository
}

func NewProductController(products *repositories.ProductRepository) *ProductController {
	return &ProductController{products: products}
}

// ProductResource shapes the public JSON view of a product.
type ProductResource struct{ resource.Base }

func (pr *ProductResource) ToArray(v interface{}) resource.Map {
	p, ok := v.(*models.Product)
	if !ok {
		return resource.Map{}
	}
	return resource.Map{
		"id":          p.ID.Hex(),
		"title":       p.Title,
		"description": p.Description,
		"rate":        p.Rate,
		"gstRate":     p.GSTRate,
		"discountPct": p.DiscountPct,
		"price":       p.Price,
		"finalPrice":  p.FinalPrice,
		"stock":       p.Stock,
		"status":      p.Status,
		"rating": resource.Map{
			"average": p.RatingAverage,
			"count":   p.RatingCount,
		},
	}
}

type createProductInput struct {
	Title       string          `json:"title" validate:"required,min=2,max=255"`
	Description string          `json:"description" validate:"nullable,max=5000"`
	Rate        decimal.Decimal `json:"rate"`
	GSTRate     decimal.Decimal `json:"gstRate"`
	DiscountPct decimal.Decimal `json:"discountPct"`
	Stock       int64           `json:"stock" validate:"gte=0"`
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	var in createProductInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if in.Rate.IsNegative() || in.DiscountPct.IsNegative() || in.GSTRate.IsNegative() {
		response.Error(w, http.StatusUnprocessableEntity, "rate, gstRate and discountPct must not be negative")
		return
	}

	product := &models.Product{
		Title:       in.Title,
		Description: in.Description,
		Rate:        in.Rate,
		GSTRate:     in.GSTRate,
		DiscountPct: in.DiscountPct,
		Stock:       in.Stock,
	}
	if uid, ok := middleware.UserIDFromCtx(r); ok {
		if sellerID, err := primitive.ObjectIDFromHex(uid); err == nil {
			product.SellerID = sellerID
		}
	}

	if err := c.products.Create(r.Context(), product); err != nil {
		logger.WithCtx(r.Context()).Error("product create failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Could not create product")
		return
	}

	response.Created(w, product)
}

func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var product models.Product
	if !cache.Get(productCacheKey(id), &product) {
		found, err := c.products.FindByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				response.NotFound(w)
				return
			}
			response.Error(w, http.StatusInternalServerError, "Could not load product")
			return
		}
		product = *found
		if err := cache.Set(productCacheKey(id), product, productCacheTTL); err != nil {
			logger.WithCtx(r.Context()).Warn("product cache set failed", "error", err)
		}
	}

	resource.New(&ProductResource{}, &product).Respond(w)
}

func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, pagination, err := c.products.All(r.Context(), page, limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not list products")
		return
	}

	response.Paginated(w, products, pagination)
}

func productCacheKey(id primitive.ObjectID) string {
	return "product:" + id.Hex()
}

// InvalidateProductCache drops the cached copy of one product. Called by
// the stock-changed listener and after rating recomputes.
func InvalidateProductCache(id primitive.ObjectID) {
	if err := cache.Forget(productCacheKey(id)); err != nil {
		logger.Warn("product cache invalidation failed", "product_id", id.Hex(), "error", err)
	}
}
