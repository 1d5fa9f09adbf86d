package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/app/repositories"
	"github.com/shashiranjanraj/vyapar/internal/rating"
	"github.com/shashiranjanraj/vyapar/pkg/bind"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/middleware"
	"github.com/shashiranjanraj/vyapar/pkg/response"
)

type ReviewController struct {
	rating  *rating.Service
	reviews *repositories.ReviewRepository
}

func NewReviewController(svc *rating.Service, reviews *repositories.ReviewRepository) *ReviewController {
	return &ReviewController{rating: svc, reviews: reviews}
}

type createReviewInput struct {
	ProductID string `json:"productId" validate:"required,size=24"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment" validate:"nullable,max=2000"`
}

func (c *ReviewController) Create(w http.ResponseWriter, r *http.Request) {
	var in createReviewInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	productID, err := primitive.ObjectIDFromHex(in.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	uid, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	userID, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		response.Unauthorized(w)
		return
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}

	review, err = c.rating.CreateReview(r.Context(), review)
	if err != nil {
		c.writeRatingError(w, r, err)
		return
	}

	InvalidateProductCache(productID)
	response.Created(w, review)
}

type updateReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"nullable,max=2000"`
}

func (c *ReviewController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review id")
		return
	}

	var in updateReviewInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if !c.authorize(w, r, id) {
		return
	}

	review, err := c.rating.UpdateReview(r.Context(), id, in.Rating, in.Comment)
	if err != nil {
		c.writeRatingError(w, r, err)
		return
	}

	InvalidateProductCache(review.ProductID)
	response.Success(w, review)
}

func (c *ReviewController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review id")
		return
	}

	if !c.authorize(w, r, id) {
		return
	}

	review, err := c.reviews.FindByID(r.Context(), id)
	if err != nil {
		c.writeRatingError(w, r, err)
		return
	}

	if err := c.rating.DeleteReview(r.Context(), id); err != nil {
		c.writeRatingError(w, r, err)
		return
	}

	InvalidateProductCache(review.ProductID)
	response.Success(w, map[string]string{"deleted": id.Hex()})
}

func (c *ReviewController) Index(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	reviews, err := c.reviews.ListForProduct(r.Context(), productID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not list reviews")
		return
	}

	response.Success(w, reviews)
}

// authorize lets a review's author or an admin touch it. Writes the
// error response itself and reports whether the caller may proceed.
func (c *ReviewController) authorize(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) bool {
	review, err := c.reviews.FindByID(r.Context(), id)
	if err != nil {
		c.writeRatingError(w, r, err)
		return false
	}

	if role, _ := middleware.RoleFromCtx(r); role == models.RoleAdmin {
		return true
	}
	if uid, ok := middleware.UserIDFromCtx(r); ok && uid == review.UserID.Hex() {
		return true
	}

	response.Forbidden(w)
	return false
}

func (c *ReviewController) writeRatingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rating.ErrDuplicate):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, rating.ErrNotFound):
		response.NotFound(w)
	default:
		logger.WithCtx(r.Context()).Error("review operation failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Review operation failed")
	}
}
