package response

import (
	"errors"
	"net/http"

	"github.com/campusrent/service-rental/internal/domain"
	"github.com/gin-gonic/gin"
)

// envelope is the uniform response body shape.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type paginatedData struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// Success writes a 200 with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// Paginated writes a 200 with items and paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: paginatedData{
		Items: items, Total: total, Page: page, Limit: limit,
	}})
}

// BadRequest writes a 400 with a validation error body.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: &errorBody{
		Kind: string(domain.KindValidation), Message: message,
	}})
}

// Error maps an application error to its HTTP status. Unrecognized errors
// become opaque 500s so internals never leak to clients.
func Error(c *gin.Context, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		c.JSON(statusFor(appErr.Kind), envelope{Success: false, Error: &errorBody{
			Kind: string(appErr.Kind), Message: appErr.Message,
		}})
		return
	}

	c.JSON(http.StatusInternalServerError, envelope{Success: false, Error: &errorBody{
		Kind: "internal", Message: "internal server error",
	}})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInvalidTransition:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
