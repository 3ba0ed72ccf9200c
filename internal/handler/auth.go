package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecocivic/civicledger/internal/config"
	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
	"github.com/ecocivic/civicledger/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users repository.UserStore
	Caps  repository.CapabilityStore
}

func NewAuthHandler(cfg config.Config, u repository.UserStore, caps repository.CapabilityStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Caps: caps}
}

// rolePrecedence orders role claims from most to least privileged.
// The token carries the single highest role the identity holds; the
// services still check the exact capability per operation.
var rolePrecedence = []string{
	model.RoleAdmin,
	model.RoleFraudManager,
	model.RoleInspector,
	model.RoleOperator,
	model.RoleStaff,
}

// claimRole resolves the role claim for a token from the capability
// registry. Identities with no grants are citizens.
func (h *AuthHandler) claimRole(ctx context.Context, identity string) string {
	for _, role := range rolePrecedence {
		ok, err := h.Caps.Has(ctx, role, identity)
		if err == nil && ok {
			return role
		}
	}
	return model.RoleCitizen
}

// ----- DTOs -----

type registerReq struct {
	Identity string `json:"identity"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Identity string `json:"identity"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// Register creates a citizen login and returns an access token
// immediately. Every self-registered user starts as a citizen;
// privileged roles come from capability grants, never from
// registration.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Identity = strings.TrimSpace(req.Identity)
	if req.Identity == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identity/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	u := &model.User{
		Identity:     req.Identity,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleCitizen,
	}
	uid, err := h.Users.Create(ctx, u)
	if err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		case repository.ErrIdentityExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "identity already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	// A brand-new identity normally has no grants, but the bootstrap
	// admin registers after its capability was seeded, so resolve the
	// claim from the registry here too.
	role := h.claimRole(ctx, u.Identity)
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, u.Identity, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		User:   userPart{ID: uid, Identity: u.Identity, Email: u.Email, Role: role},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByEmail(ctx, req.Email)
	if err != nil || !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		// One message for all credential failures; do not leak which
		// part was wrong.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// The role claim comes from the capability registry, not the user
	// row, so a grant takes effect on the next login.
	role := h.claimRole(ctx, u.Identity)
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Identity, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:   userPart{ID: u.ID, Identity: u.Identity, Email: u.Email, Role: role},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}
