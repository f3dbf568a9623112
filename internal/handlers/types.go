package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/repository"
)

// ListResponse wraps a page of results
type ListResponse struct {
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// MessageResponse is returned by endpoints with nothing else to say
type MessageResponse struct {
	Message string `json:"message"`
}

func newListResponse(data interface{}, total int64, page repository.Page) ListResponse {
	return ListResponse{Data: data, Total: total, Page: page.Number, PageSize: page.Size}
}

// pageFromQuery reads ?page= and ?page_size=, falling back to defaults
func pageFromQuery(c echo.Context) repository.Page {
	number, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return repository.Page{Number: number, Size: size}.Normalize()
}

// bindBody decodes the request body into v
func bindBody(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.NewValidation("body", "malformed request body")
	}
	return nil
}
