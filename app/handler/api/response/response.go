package response

import (
	"errors"
	"restock-service/app/domain"

	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Success  bool             `json:"success"`
	Metadata *domain.Metadata `json:"meta,omitempty"`
	Data     any              `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func Success(data any) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

func SuccessWithMetadata(data any, metadata domain.Metadata) *Response {
	return &Response{
		Success:  true,
		Data:     data,
		Metadata: &metadata,
	}
}

func Error(err error) *Response {
	return &Response{
		Success: false,
		Error:   err.Error(),
	}
}

// FromError maps domain errors to an HTTP status. Unknown errors are reported
// as internal without leaking their message.
func FromError(err error) (int, *Response) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, Error(domain.ErrValidation)
	case errors.Is(err, domain.ErrInvalidRequest):
		return fiber.StatusBadRequest, Error(domain.ErrInvalidRequest)
	case errors.Is(err, domain.ErrBadRequest):
		return fiber.StatusBadRequest, Error(domain.ErrBadRequest)
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, Error(domain.ErrUnauthorized)
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, Error(domain.ErrNotFound)
	case errors.Is(err, domain.ErrNotAllowed):
		return fiber.StatusMethodNotAllowed, Error(domain.ErrNotAllowed)
	case errors.Is(err, domain.ErrAlreadyExists):
		return fiber.StatusConflict, Error(domain.ErrAlreadyExists)
	default:
		return fiber.StatusInternalServerError, Error(domain.ErrInternal)
	}
}
