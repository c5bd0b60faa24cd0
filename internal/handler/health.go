package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether a backing store is reachable.  *sql.DB
// implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler answers load balancer and monitoring health checks.
type HealthHandler struct {
	DB Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{DB: db} }

// Health returns plain "ok" while the database answers pings, 503
// otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			c.Logger().Warnf("health: db ping: %v", err)
			return c.String(http.StatusServiceUnavailable, "db unavailable")
		}
	}
	return c.String(http.StatusOK, "ok")
}
