package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/middleware"
	"wifisub_app/internal/repository"
)

// AuthHandler exposes the authenticated caller's profile
type AuthHandler struct {
	users repository.UserRepository
}

func NewAuthHandler(users repository.UserRepository) *AuthHandler {
	return &AuthHandler{users: users}
}

// Me returns the stored profile of the token holder
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.users.FindByID(c.Request().Context(), middleware.ActorFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
