package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/middleware"
	"wifisub_app/internal/models"
	"wifisub_app/internal/reports"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ScreenshotCleaner runs one retention sweep
type ScreenshotCleaner interface {
	CleanupScreenshots(ctx context.Context) (services.CleanupResult, error)
}

type AdminHandler struct {
	admin    *services.AdminService
	payments *services.PaymentService
	cleaner  ScreenshotCleaner
}

func NewAdminHandler(admin *services.AdminService, payments *services.PaymentService, cleaner ScreenshotCleaner) *AdminHandler {
	return &AdminHandler{admin: admin, payments: payments, cleaner: cleaner}
}

type cleanupResponse struct {
	Success int    `json:"success"`
	Errors  int    `json:"errors"`
	Message string `json:"message"`
}

type userStatusRequest struct {
	Status models.UserStatus `json:"status"`
}

// CleanupScreenshots runs the retention sweep on demand
func (h *AdminHandler) CleanupScreenshots(c echo.Context) error {
	if h.cleaner == nil {
		return apperr.Infra("screenshot storage is not configured", nil)
	}
	res, err := h.cleaner.CleanupScreenshots(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cleanupResponse{
		Success: res.Success,
		Errors:  res.Errors,
		Message: fmt.Sprintf("Cleaned up %d screenshots with %d errors", res.Success, res.Errors),
	})
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.admin.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// ExportPayments downloads the filtered payment listing as a spreadsheet
func (h *AdminHandler) ExportPayments(c echo.Context) error {
	payments, err := h.payments.All(c.Request().Context(), repository.PaymentFilter{
		Status: models.PaymentStatus(c.QueryParam("status")),
		Method: models.PaymentMethod(c.QueryParam("method")),
		UserID: c.QueryParam("user_id"),
	})
	if err != nil {
		return err
	}

	book, err := reports.PaymentsWorkbook(payments)
	if err != nil {
		return apperr.Infra("build payments export", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=payments.xlsx")
	return c.Blob(http.StatusOK, xlsxContentType, book)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	page := pageFromQuery(c)
	users, total, err := h.admin.ListUsers(c.Request().Context(), models.UserRole(c.QueryParam("role")), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(users, total, page))
}

// SetUserStatus suspends or reactivates an account
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	var req userStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	user, err := h.admin.SetUserStatus(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
