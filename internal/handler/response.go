package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookvault/inventory-service/internal/model"
	"github.com/bookvault/inventory-service/pkg/validate"
)

type response struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message"`
	Data       any                       `json:"data,omitempty"`
	Errors     []validate.FieldViolation `json:"errors,omitempty"`
	Pagination *model.Paging             `json:"pagination,omitempty"`
}

func respondData(c echo.Context, code int, msg string, data any) error {
	return c.JSON(code, response{Success: true, Message: msg, Data: data})
}

func respondList(c echo.Context, msg string, list model.ListBooks) error {
	items := list.Items
	if items == nil {
		items = []model.Book{}
	}
	return c.JSON(http.StatusOK, response{Success: true, Message: msg, Data: items, Pagination: &list.Paging})
}

func respondErr(c echo.Context, code int, msg string, violations []validate.FieldViolation) error {
	return c.JSON(code, response{Success: false, Message: msg, Errors: violations})
}
