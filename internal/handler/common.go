package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/middleware"
	"github.com/iliyamo/pos-system/internal/repository"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var errNoUser = errors.New("invalid user_id in context")

// requestCtx derives the per-request storage context.
func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the authenticated user id set by JWTAuth.
func getUserID(c echo.Context) (string, error) {
	if id := middleware.UserID(c); id != "" {
		return id, nil
	}
	return "", errNoUser
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

func messageJSON(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// storeError maps repository sentinels onto HTTP statuses.  what names the
// resource in the message, e.g. "category".
func storeError(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		return errorJSON(c, http.StatusConflict, what+" already exists")
	case errors.Is(err, repository.ErrConflict):
		return errorJSON(c, http.StatusConflict, what+" is still in use")
	default:
		c.Logger().Errorf("%s: %v", what, err)
		return errorJSON(c, http.StatusInternalServerError, "db error")
	}
}

// pageParams reads ?page= and ?page_size=, clamping both to sane values.
func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.QueryParam("page_size"))
	switch {
	case size < 1:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}
	return page, size
}
