package rest

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/logging"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	headerProcessTime = "X-Process-Time"
	userLocalsKey     = "user"
)

// requestLogger tags every request with an id, logs it and records metrics.
// Handler errors are rendered here so the logged status is the final one.
func requestLogger(logger logging.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqID := c.Get(fiber.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, reqID)

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		c.Set(headerProcessTime, strconv.FormatFloat(elapsed.Seconds(), 'f', 6, 64))

		metrics.observeRequest(c.Method(), c.Route().Path, status, elapsed)
		logger.Info(c.UserContext(), "request",
			"request_id", reqID,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", elapsed,
		)
		return nil
	}
}

// bearerToken reads the token from the Authorization header, falling back to
// the token query parameter.
func bearerToken(c *fiber.Ctx) string {
	if scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return c.Query(common.AccessTokenQueryParam)
}

// requireUser resolves the caller and stores it in Locals. Deactivated
// accounts are rejected only when enforceActive is set.
func (h *Handlers) requireUser(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
	}

	user, err := h.users.Resolve(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return err
	}
	if h.enforceActive && !user.IsActive {
		return common.ErrForbidden
	}

	c.Locals(userLocalsKey, user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userLocalsKey).(*models.User)
	return u
}
