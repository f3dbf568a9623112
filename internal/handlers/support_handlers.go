package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/middleware"
	"wifisub_app/internal/models"
	"wifisub_app/internal/services"
)

// SupportHandler serves support tickets and public contact queries
type SupportHandler struct {
	tickets  *services.TicketService
	contacts *services.ContactService
}

func NewSupportHandler(tickets *services.TicketService, contacts *services.ContactService) *SupportHandler {
	return &SupportHandler{tickets: tickets, contacts: contacts}
}

func (h *SupportHandler) CreateTicket(c echo.Context) error {
	var in services.CreateTicketInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	t, err := h.tickets.Create(c.Request().Context(), middleware.ActorFrom(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// ListTickets returns the caller's tickets; admins may filter across users
func (h *SupportHandler) ListTickets(c echo.Context) error {
	filter := services.TicketFilter{
		Status:   models.TicketStatus(c.QueryParam("status")),
		Priority: models.TicketPriority(c.QueryParam("priority")),
		UserID:   c.QueryParam("user_id"),
		Page:     pageFromQuery(c),
	}
	tickets, total, err := h.tickets.List(c.Request().Context(), middleware.ActorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(tickets, total, filter.Page))
}

func (h *SupportHandler) GetTicket(c echo.Context) error {
	t, err := h.tickets.Get(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *SupportHandler) UpdateTicket(c echo.Context) error {
	var in services.TicketUpdate
	if err := bindBody(c, &in); err != nil {
		return err
	}
	t, err := h.tickets.Update(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// SubmitContact accepts a contact form from anyone
func (h *SupportHandler) SubmitContact(c echo.Context) error {
	var in services.ContactInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	q, err := h.contacts.Submit(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *SupportHandler) ListContacts(c echo.Context) error {
	page := pageFromQuery(c)
	queries, total, err := h.contacts.List(c.Request().Context(), models.ContactQueryStatus(c.QueryParam("status")), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(queries, total, page))
}

func (h *SupportHandler) UpdateContact(c echo.Context) error {
	var in services.ContactUpdate
	if err := bindBody(c, &in); err != nil {
		return err
	}
	q, err := h.contacts.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q)
}
