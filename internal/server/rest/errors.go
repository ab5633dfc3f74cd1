package rest

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/logging"
	"github.com/dmitrijs2005/drivesense/internal/server/classifier"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps an error returned by a handler to a status code and a
// client-facing message.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, common.ErrAuthentication):
		return fiber.StatusUnauthorized, "Invalid authentication credentials"
	case errors.Is(err, common.ErrForbidden):
		return fiber.StatusForbidden, "User account is inactive"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, common.ErrDuplicate):
		return fiber.StatusBadRequest, "Email or username already registered"
	case errors.Is(err, common.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, classifier.ErrModelUnavailable):
		return fiber.StatusInternalServerError, "Model not loaded"
	case errors.Is(err, classifier.ErrPredictionFailed):
		cause := strings.TrimPrefix(err.Error(), classifier.ErrPredictionFailed.Error()+": ")
		return fiber.StatusInternalServerError, "Prediction failed: " + cause
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// errorHandler is the single place where errors become HTTP responses.
func errorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, msg := statusFor(err)
		if code >= fiber.StatusInternalServerError {
			logger.Error(c.UserContext(), "request failed", "path", c.Path(), "err", err)
		}
		if code == fiber.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}
		return c.Status(code).JSON(errorResponse{Detail: msg})
	}
}
