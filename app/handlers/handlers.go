// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/mercat-labs/loyalty-platform/app/dto"
	businessflow "github.com/mercat-labs/loyalty-platform/business_flow"
	"github.com/mercat-labs/loyalty-platform/utils"
)

const requestTimeout = 30 * time.Second

// SuccessResponse writes the standard success envelope
func SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes the standard error envelope
func ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// BusinessErrorResponse maps a business flow error onto an HTTP status and
// the standard envelope
func BusinessErrorResponse(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	message := fallbackMessage
	code := fallbackCode

	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		message = be.Message
		code = be.Code
	}

	status := fiber.StatusInternalServerError
	switch {
	case businessflow.IsNotFound(err):
		status = fiber.StatusNotFound
	case businessflow.IsConflict(err):
		status = fiber.StatusConflict
	case businessflow.IsValidation(err):
		status = fiber.StatusBadRequest
	case businessflow.IsUnauthorized(err):
		status = fiber.StatusUnauthorized
	case businessflow.IsForbidden(err):
		status = fiber.StatusForbidden
	}

	return ErrorResponse(c, status, message, code, nil)
}

// ValidationErrorResponse renders validator failures as a field message list
func ValidationErrorResponse(c fiber.Ctx, err error) error {
	var validationErrors []string
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fieldError := range fieldErrors {
			validationErrors = append(validationErrors, getValidationErrorMessage(fieldError))
		}
	}
	return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "uuid":
		return err.Field() + " must be a valid UUID"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "dive":
		return err.Field() + " contains invalid entries"
	default:
		return err.Field() + " is invalid"
	}
}

// createRequestContext derives a bounded context carrying request metadata
func createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	_ = cancel
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx
}

// callerID returns the authenticated user id stored by the auth middleware
func callerID(c fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("user_id").(uuid.UUID)
	return id, ok
}

// callerRole returns the authenticated role stored by the auth middleware
func callerRole(c fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}

// pathUUID parses a UUID path parameter
func pathUUID(c fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}
