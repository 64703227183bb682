package handlers

import (
	"net/http"

	"github.com/bazaarbd/bazaar-backend-go/services"
	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) RegisterUser(c echo.Context) error {
	var req services.RegisterInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	session, err := h.Users.Register(ctx, req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "User registered successfully", map[string]interface{}{
		"token": session.Token,
		"user":  session.User,
	})
}

func (h *Handler) LoginUser(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	session, err := h.Users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Login successful", map[string]interface{}{
		"token": session.Token,
		"user":  session.User,
	})
}

// GetUserProfile retrieves the caller's profile
func (h *Handler) GetUserProfile(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	user, err := h.Users.Profile(ctx, principal(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "", map[string]interface{}{"user": user})
}

// UpdateUserProfile updates the caller's name and phone number
func (h *Handler) UpdateUserProfile(c echo.Context) error {
	var req services.ProfileInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	user, err := h.Users.UpdateProfile(ctx, principal(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Profile updated successfully", map[string]interface{}{"user": user})
}
