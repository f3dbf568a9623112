package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/services"
)

type PlanHandler struct {
	plans *services.PlanService
}

func NewPlanHandler(plans *services.PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// ListActive is the public plan catalogue, in display order
func (h *PlanHandler) ListActive(c echo.Context) error {
	plans, err := h.plans.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": plans})
}

// ListAll includes inactive plans
func (h *PlanHandler) ListAll(c echo.Context) error {
	plans, err := h.plans.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": plans})
}

func (h *PlanHandler) Create(c echo.Context) error {
	var in services.PlanInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	plan, err := h.plans.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *PlanHandler) Update(c echo.Context) error {
	var in services.PlanInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	plan, err := h.plans.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) Delete(c echo.Context) error {
	if err := h.plans.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Reorder sets the display order to the order of ids
func (h *PlanHandler) Reorder(c echo.Context) error {
	var req reorderRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if err := h.plans.Reorder(c.Request().Context(), req.IDs); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Plans reordered"})
}

// PaymentInfo exposes the public payee settings shown on the payment page
func (h *PlanHandler) PaymentInfo(c echo.Context) error {
	info, err := h.plans.PaymentInfo(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

func (h *PlanHandler) Settings(c echo.Context) error {
	settings, err := h.plans.Settings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *PlanHandler) UpdateSettings(c echo.Context) error {
	var values map[string]string
	if err := bindBody(c, &values); err != nil {
		return err
	}
	if err := h.plans.UpsertSettings(c.Request().Context(), values); err != nil {
		return err
	}
	return h.Settings(c)
}
