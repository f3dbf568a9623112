package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/middleware"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
	"wifisub_app/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	users         repository.UserRepository
}

func NewNotificationHandler(notifications *services.NotificationService, users repository.UserRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, users: users}
}

// createNotificationRequest sends to user_id, or to every id in user_ids when present
type createNotificationRequest struct {
	UserID   string                  `json:"user_id"`
	UserIDs  []string                `json:"user_ids"`
	Title    string                  `json:"title"`
	Message  string                  `json:"message"`
	Type     models.NotificationType `json:"type"`
	Metadata map[string]interface{}  `json:"metadata"`
}

// List returns the caller's notifications, newest first
func (h *NotificationHandler) List(c echo.Context) error {
	filter := repository.NotificationFilter{
		Status: models.NotificationStatus(c.QueryParam("status")),
		Type:   models.NotificationType(c.QueryParam("type")),
		UserID: c.QueryParam("user_id"),
		Page:   pageFromQuery(c),
	}
	items, total, err := h.notifications.List(c.Request().Context(), middleware.ActorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(items, total, filter.Page))
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	n, err := h.notifications.UnreadCount(c.Request().Context(), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": n})
}

// Create sends an admin notification to one or many users
func (h *NotificationHandler) Create(c echo.Context) error {
	var req createNotificationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.Type == "" {
		req.Type = models.NotificationTypeSystem
	}
	ctx := c.Request().Context()

	if len(req.UserIDs) > 0 {
		if err := h.requireRecipients(ctx, "user_ids", req.UserIDs); err != nil {
			return err
		}
		out, err := h.notifications.NotifyBulk(ctx, services.BulkNotifyInput{
			UserIDs:  req.UserIDs,
			Title:    req.Title,
			Message:  req.Message,
			Type:     req.Type,
			Metadata: req.Metadata,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, out)
	}

	if req.UserID == "" {
		return apperr.NewValidation("user_id", "user_id or user_ids is required")
	}
	if err := h.requireRecipients(ctx, "user_id", []string{req.UserID}); err != nil {
		return err
	}
	out, err := h.notifications.Notify(ctx, services.NotifyInput{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

// requireRecipients rejects the request when any id has no account
func (h *NotificationHandler) requireRecipients(ctx context.Context, field string, ids []string) error {
	found, err := h.users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(found))
	for _, u := range found {
		known[u.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
			known[id] = true
		}
	}
	if len(missing) > 0 {
		return apperr.NewValidation(field, "unknown recipients: "+strings.Join(missing, ", "))
	}
	return nil
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	n, err := h.notifications.MarkRead(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	n, err := h.notifications.MarkAllRead(c.Request().Context(), middleware.ActorFrom(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	if err := h.notifications.Delete(c.Request().Context(), c.Param("id"), middleware.ActorFrom(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
