package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bookvault/inventory-service/internal/errs"
	"github.com/bookvault/inventory-service/internal/model"
	md "github.com/bookvault/inventory-service/pkg/middleware"
	"github.com/bookvault/inventory-service/pkg/validate"
)

const (
	defaultPage   = 1
	defaultLimit  = 10
	maxLimit      = 100
	defaultSortBy = "bookName"
	defaultOrder  = "asc"
)

type Handler struct {
	bookSvc BookService
	log     *zap.Logger
}

func New(bookSvc BookService, log *zap.Logger) *Handler {
	h := &Handler{
		bookSvc: bookSvc,
		log:     log,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/books", h.CreateBook)
	api.PUT("/books/:bookUid", h.UpdateBook)
	api.DELETE("/books/:bookUid", h.DeleteBook)
	api.GET("/books/:bookUid", h.GetBook)
	api.GET("/books", h.ListBooks)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateBook(c echo.Context) error {
	ctx := c.Request().Context()

	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request payload", nil)
	}
	if err := c.Validate(req); err != nil {
		return h.validationErr(c, err)
	}

	files, err := h.stageCoverImages(c)
	if err != nil {
		return h.stagingErr(c, err)
	}

	book, err := h.bookSvc.CreateBook(ctx, req, files)
	if err != nil {
		return h.serviceErr(c, err)
	}
	return respondData(c, http.StatusCreated, "book created", book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	ctx := c.Request().Context()
	bookUid := c.Param("bookUid")

	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return respondErr(c, http.StatusBadRequest, "invalid request payload", nil)
	}
	if err := c.Validate(req); err != nil {
		return h.validationErr(c, err)
	}

	files, err := h.stageCoverImages(c)
	if err != nil {
		return h.stagingErr(c, err)
	}

	book, err := h.bookSvc.UpdateBook(ctx, bookUid, req, files)
	if err != nil {
		return h.serviceErr(c, err)
	}
	return respondData(c, http.StatusOK, "book updated", book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	bookUid := c.Param("bookUid")

	if err := h.bookSvc.DeleteBook(ctx, bookUid); err != nil {
		return h.serviceErr(c, err)
	}
	return respondData(c, http.StatusOK, "book deleted", nil)
}

func (h *Handler) GetBook(c echo.Context) error {
	ctx := c.Request().Context()
	bookUid := c.Param("bookUid")

	book, err := h.bookSvc.GetBook(ctx, bookUid)
	if err != nil {
		return h.serviceErr(c, err)
	}
	return respondData(c, http.StatusOK, "ok", book)
}

func (h *Handler) ListBooks(c echo.Context) error {
	ctx := c.Request().Context()

	q, err := parseListQuery(c)
	if err != nil {
		return h.validationErr(c, err)
	}

	list, err := h.bookSvc.ListBooks(ctx, q)
	if err != nil {
		return h.serviceErr(c, err)
	}
	return respondList(c, "ok", list)
}

var sortFields = map[string]bool{
	"bookName":   true,
	"authorName": true,
	"year":       true,
	"price":      true,
	"createdAt":  true,
}

func parseListQuery(c echo.Context) (model.ListBooksQuery, error) {
	q := model.ListBooksQuery{
		Page:   defaultPage,
		Limit:  defaultLimit,
		SortBy: defaultSortBy,
		Order:  defaultOrder,
	}
	vErr := &validate.ValidationError{}

	if v := c.QueryParam("author"); v != "" {
		q.Author = &v
	}
	if v := c.QueryParam("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			vErr.Add("year", "must be a number")
		} else {
			q.Year = &year
		}
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			vErr.Add("maxPrice", "must be a non-negative number")
		} else {
			q.MaxPrice = &price
		}
	}
	if v := c.QueryParam("condition"); v != "" {
		cond := model.Condition(v)
		if cond != model.ConditionNew && cond != model.ConditionUsed {
			vErr.Add("condition", "must be one of: new used")
		} else {
			q.Condition = &cond
		}
	}
	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			vErr.Add("page", "must be an integer of at least 1")
		} else {
			q.Page = page
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxLimit {
			vErr.Add("limit", fmt.Sprintf("must be an integer between 1 and %d", maxLimit))
		} else {
			q.Limit = limit
		}
	}
	if v := c.QueryParam("sortBy"); v != "" {
		if !sortFields[v] {
			vErr.Add("sortBy", "must be one of: bookName authorName year price createdAt")
		} else {
			q.SortBy = v
		}
	}
	if v := c.QueryParam("order"); v != "" {
		if v != "asc" && v != "desc" {
			vErr.Add("order", "must be asc or desc")
		} else {
			q.Order = v
		}
	}

	if len(vErr.Violations) > 0 {
		return model.ListBooksQuery{}, vErr
	}
	return q, nil
}

func (h *Handler) validationErr(c echo.Context, err error) error {
	var vErr *validate.ValidationError
	if errors.As(err, &vErr) {
		return respondErr(c, http.StatusBadRequest, "validation failed", vErr.Violations)
	}
	return respondErr(c, http.StatusBadRequest, err.Error(), nil)
}

func (h *Handler) stagingErr(c echo.Context, err error) error {
	var vErr *validate.ValidationError
	if errors.As(err, &vErr) {
		return respondErr(c, http.StatusBadRequest, "validation failed", vErr.Violations)
	}
	h.log.Error("stage cover images", zap.Error(err))
	return respondErr(c, http.StatusInternalServerError, "internal server error", nil)
}

func (h *Handler) serviceErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return respondErr(c, http.StatusNotFound, errs.ErrNotFound.Error(), nil)
	case errors.Is(err, errs.ErrInvalidData):
		return respondErr(c, http.StatusBadRequest, errs.ErrInvalidData.Error(), nil)
	default:
		h.log.Error("book service", zap.Error(err))
		return respondErr(c, http.StatusInternalServerError, "internal server error", nil)
	}
}
