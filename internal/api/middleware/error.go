package middleware

import (
	"errors"

	"github.com/abenikeb/biisho-a2p/internal/constants"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/gofiber/fiber/v2"
)

func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serviceErr service.Error
		if errors.As(err, &serviceErr) {
			return handleServiceError(c, serviceErr)
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    constants.ErrCodeInternalError,
			"message": constants.GetErrorMessage(constants.ErrCodeInternalError),
		})
	}
}

func handleServiceError(c *fiber.Ctx, err service.Error) error {
	errorCode := err.Code

	status := constants.GetHTTPStatus(errorCode)
	if status == 500 && errorCode != constants.ErrCodeInternalError {
		errorCode = constants.ErrCodeInternalError
	}

	body := fiber.Map{
		"code":    errorCode,
		"message": constants.GetErrorMessage(errorCode),
	}

	// Transition refusals carry the precise rule; surface it.
	var transitionErr service.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		body["detail"] = transitionErr.Error()
	}

	var invalidErr service.InvalidMessageError
	if errors.As(err, &invalidErr) {
		body["detail"] = invalidErr.Reason
	}

	return c.Status(status).JSON(body)
}
