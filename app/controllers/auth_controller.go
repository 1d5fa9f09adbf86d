package controllers

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/vyapar/app/models"
	"github.com/shashiranjanraj/vyapar/app/repositories"
	"github.com/shashiranjanraj/vyapar/pkg/auth"
	"github.com/shashiranjanraj/vyapar/pkg/bind"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/middleware"
	"github.com/shashiranjanraj/vyapar/pkg/response"
)

// AuthController issues and refreshes JWTs. Registering a customer-role
// user also creates the customer ledger document under the same id, so
// the authenticated principal id doubles as the buyer id.
type AuthController struct {
	users     *repositories.UserRepository
	customers *repositories.CustomerRepository
}

func NewAuthController(users *repositories.UserRepository, customers *repositories.CustomerRepository) *AuthController {
	return &AuthController{users: users, customers: customers}
}

type registerInput struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"nullable,in=customer,seller"`
	ShopName string `json:"shopName" validate:"nullable,min=2,max=255"`
	GSTIN    string `json:"gstin" validate:"nullable,size=15"`
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if in.Role == "" {
		in.Role = models.RoleCustomer
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not hash password")
		return
	}

	user := &models.User{Name: in.Name, Email: in.Email, Password: hash, Role: in.Role}
	if err := c.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			response.Error(w, http.StatusConflict, "Email already registered")
			return
		}
		logger.WithCtx(r.Context()).Error("register failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Could not register")
		return
	}

	switch in.Role {
	case models.RoleCustomer:
		customer := &models.Customer{ID: user.ID, Name: in.Name, Email: in.Email}
		if err := c.customers.Create(r.Context(), customer); err != nil {
			logger.WithCtx(r.Context()).Error("customer profile create failed",
				"user_id", user.ID.Hex(), "error", err)
		}
	case models.RoleSeller:
		shop := in.ShopName
		if shop == "" {
			shop = in.Name
		}
		seller := &models.Seller{UserID: user.ID, ShopName: shop, GSTIN: in.GSTIN}
		if err := c.users.CreateSellerProfile(r.Context(), seller); err != nil {
			logger.WithCtx(r.Context()).Error("seller profile create failed",
				"user_id", user.ID.Hex(), "error", err)
		}
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	response.Created(w, map[string]interface{}{"user": user, "token": token})
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		response.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if !auth.CheckPassword(user.Password, in.Password) {
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user.ID.Hex(), user.Role)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	refresh, err := auth.GenerateRefreshToken(user.ID.Hex(), user.Role)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	response.Success(w, map[string]string{"token": token, "refresh_token": refresh})
}

// Me returns the authenticated user with its role profile attached.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		response.Unauthorized(w)
		return
	}

	user, err := c.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.NotFound(w)
			return
		}
		response.Error(w, http.StatusInternalServerError, "Lookup failed")
		return
	}

	out := map[string]interface{}{"user": user}
	switch user.Role {
	case models.RoleSeller:
		if profile, err := c.users.FindSellerProfile(r.Context(), user.ID); err == nil {
			out["seller"] = profile
		}
	case models.RoleCustomer:
		if ledger, err := c.customers.FindByID(r.Context(), user.ID); err == nil {
			out["customer"] = ledger
		}
	}
	response.Success(w, out)
}
