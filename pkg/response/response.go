package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidpulse/backend/internal/apperror"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// Accepted sends a 202 JSON response for work handed to the job queue.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with a detail message or field map.
func BadRequest(c *gin.Context, detail interface{}) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Detail: detail})
}

// NotFound sends 404.
func NotFound(c *gin.Context, detail string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Detail: detail})
}

// BadGateway sends 502 when an upstream service failed.
func BadGateway(c *gin.Context, detail string) {
	c.JSON(http.StatusBadGateway, Body{Success: false, Detail: detail})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, detail string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Detail: detail})
}

// Internal sends 500.
func Internal(c *gin.Context, detail string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Detail: detail})
}

// Error maps a service error onto the response envelope.
// A lookup miss on an action is reported as 400 with the message in detail,
// matching how the API has always answered clients.
func Error(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		if fields := apperror.FieldsOf(err); len(fields) > 0 {
			BadRequest(c, fields)
			return
		}
		BadRequest(c, err.Error())
	case errors.Is(err, apperror.ErrNotFound):
		BadRequest(c, err.Error())
	case errors.Is(err, apperror.ErrExternalService):
		BadGateway(c, err.Error())
	default:
		_ = c.Error(err)
		Internal(c, "internal server error")
	}
}
