// Package resp renders the uniform API response envelope.
//
// Every response, success or failure, shares one shape:
//
//	{success, message, data?, errors?, timestamp, path}
package resp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/logging/logger"
)

// Exception represents a failure response before rendering.
type Exception struct {
	Status     int                // HTTP status
	Code       int                // Business code
	Message    string             // Message
	Errors     []ecode.FieldError // Field-level details
	Properties map[string]any     // Extra metadata (e.g. correlation id)
}

// Envelope is the wire-level response structure.
type Envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       any                `json:"data,omitempty"`
	Errors     []ecode.FieldError `json:"errors,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Path       string             `json:"path"`
	Properties map[string]any     `json:"properties,omitempty"`
}

// Success writes a 200 response. A leading string argument becomes the
// message, the next argument the data payload.
func Success(w http.ResponseWriter, r *http.Request, data ...any) {
	WithStatusCode(w, r, http.StatusOK, data...)
}

// WithStatusCode writes a success response with a custom status code.
func WithStatusCode(w http.ResponseWriter, r *http.Request, statusCode int, data ...any) {
	message := "Operation completed successfully"
	var payload any

	if len(data) > 0 {
		if msg, ok := data[0].(string); ok {
			message = msg
			data = data[1:]
		}
	}
	if len(data) > 0 {
		payload = data[0]
	}

	write(w, statusCode, &Envelope{
		Success:   true,
		Message:   message,
		Data:      payload,
		Timestamp: time.Now().UTC(),
		Path:      requestPath(r),
	})
}

// Fail writes a failure response.
func Fail(w http.ResponseWriter, r *http.Request, ex *Exception) {
	if ex == nil {
		ex = &Exception{Status: http.StatusInternalServerError, Code: ecode.ServerErr}
	}

	status := ex.Status
	if status == 0 {
		status = ecode.ToHTTPStatus(ex.Code)
	}
	message := ex.Message
	if message == "" {
		message = ecode.Text(ex.Code)
	}

	write(w, status, &Envelope{
		Success:    false,
		Message:    message,
		Errors:     ex.Errors,
		Timestamp:  time.Now().UTC(),
		Path:       requestPath(r),
		Properties: ex.Properties,
	})
}

// Error translates an error value into a failure response. Tagged ecode
// errors carry their own code; anything else is rendered as an opaque
// internal error. Server faults get a correlation id that links the response
// to the log entry holding the underlying cause.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var e *ecode.Error
	if errors.As(err, &e) && e.Code != ecode.ServerErr {
		Fail(w, r, &Exception{
			Code:       e.Code,
			Message:    e.Message,
			Errors:     e.Fields,
			Properties: e.Properties,
		})
		return
	}

	correlationID := uuid.NewString()
	logger.StdLogger().Errorf(requestContext(r),
		"internal error correlation_id=%s: %v", correlationID, err)
	Fail(w, r, &Exception{
		Code:       ecode.ServerErr,
		Properties: map[string]any{"correlationId": correlationID},
	})
}

func requestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}

func write(w http.ResponseWriter, status int, body *Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
