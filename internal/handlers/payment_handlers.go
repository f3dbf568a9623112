package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/middleware"
	"wifisub_app/internal/models"
	"wifisub_app/internal/reports"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/services"
)

// MaxScreenshotBytes caps uploaded payment proofs
const MaxScreenshotBytes = 5 << 20

var screenshotExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type PaymentHandler struct {
	payments *services.PaymentService
	blobs    services.BlobStore
	plans    *services.PlanService
}

func NewPaymentHandler(payments *services.PaymentService, blobs services.BlobStore, plans *services.PlanService) *PaymentHandler {
	return &PaymentHandler{payments: payments, blobs: blobs, plans: plans}
}

type approveRequest struct {
	Notes *string `json:"notes"`
}

type rejectRequest struct {
	Reason string  `json:"reason"`
	Notes  *string `json:"notes"`
}

// Create submits a new payment proof for the caller
func (h *PaymentHandler) Create(c echo.Context) error {
	var in services.CreatePaymentInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	p, err := h.payments.Create(c.Request().Context(), middleware.ActorFrom(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// UploadScreenshot stores a proof image and returns its public URL
func (h *PaymentHandler) UploadScreenshot(c echo.Context) error {
	if h.blobs == nil {
		return apperr.Infra("screenshot storage is not configured", nil)
	}

	fh, err := c.FormFile("screenshot")
	if err != nil {
		return apperr.NewValidation("screenshot", "screenshot file is required")
	}
	if fh.Size > MaxScreenshotBytes {
		return apperr.NewValidation("screenshot", "screenshot must be at most 5 MB")
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	ext, ok := screenshotExt[strings.ToLower(contentType)]
	if !ok {
		return apperr.NewValidation("screenshot", "screenshot must be a PNG, JPEG, WebP or GIF image")
	}

	f, err := fh.Open()
	if err != nil {
		return apperr.Infra("read upload", err)
	}
	defer f.Close()

	key := path.Join(strings.TrimSuffix(services.ScreenshotPrefix, "/"), middleware.ActorFrom(c).ID, uuid.NewString()+ext)
	url, err := h.blobs.Upload(c.Request().Context(), key, f, contentType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}

// List returns payments for admins, filtered by status, method and user
func (h *PaymentHandler) List(c echo.Context) error {
	filter := repository.PaymentFilter{
		Status: models.PaymentStatus(c.QueryParam("status")),
		Method: models.PaymentMethod(c.QueryParam("method")),
		UserID: c.QueryParam("user_id"),
		Page:   pageFromQuery(c),
	}
	payments, total, err := h.payments.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(payments, total, filter.Page))
}

func (h *PaymentHandler) MyPayments(c echo.Context) error {
	page := pageFromQuery(c)
	payments, total, err := h.payments.MyPayments(c.Request().Context(), middleware.ActorFrom(c), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(payments, total, page))
}

// Upcoming lists approved payments ending inside the reminder window
func (h *PaymentHandler) Upcoming(c echo.Context) error {
	payments, err := h.payments.Upcoming(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": payments})
}

func (h *PaymentHandler) Get(c echo.Context) error {
	p, err := h.payments.Get(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update edits a pending payment owned by the caller
func (h *PaymentHandler) Update(c echo.Context) error {
	var patch services.PaymentPatch
	if err := bindBody(c, &patch); err != nil {
		return err
	}
	p, err := h.payments.Update(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) Approve(c echo.Context) error {
	var req approveRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	p, err := h.payments.Approve(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c).ID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PaymentHandler) Reject(c echo.Context) error {
	var req rejectRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	p, err := h.payments.Reject(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c).ID, req.Reason, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Receipt streams a PDF receipt for an approved payment
func (h *PaymentHandler) Receipt(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.payments.Get(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	payee := ""
	if h.plans != nil {
		if info, err := h.plans.PaymentInfo(ctx); err == nil {
			payee = info[models.SettingPayeeName]
		}
	}

	pdf, err := reports.Receipt(*p, payee)
	if errors.Is(err, reports.ErrNotApproved) {
		return apperr.NewInvalidState(err.Error())
	}
	if err != nil {
		return apperr.Infra("render receipt", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=receipt-%s.pdf", p.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
