package dto

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotevault/internal/domain"
)

// GetTraceID extracts a trace identifier for error responses.
// Precedence: explicit trace_id in the gin context, the active
// OpenTelemetry span, then the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if id, exists := c.Get("trace_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}

		return ""
	}

	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return c.GetHeader("X-Request-ID")
}

// HandleError writes a domain error as a standard error envelope.
// Unknown errors become a generic 500 so internals never leak.
func HandleError(c *gin.Context, err error) {
	code := errorCodeFor(err)

	message := err.Error()
	if code == ErrorCodeInternal {
		message = "an internal error occurred"
	}

	errResp := NewErrorResponse(code, message)

	if code == ErrorCodeValidation {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			errResp.Error.Details = map[string]string{
				validationErr.Field: validationErr.Message,
			}
		}
	}

	if traceID := GetTraceID(c); traceID != "" {
		errResp.TraceID = traceID
	}

	c.JSON(HTTPStatusFromCode(code), errResp)
}

// errorCodeFor classifies a domain error into a machine-readable code.
func errorCodeFor(err error) string {
	switch {
	case domain.IsNotFound(err):
		return ErrorCodeNotFound
	case domain.IsValidation(err):
		return ErrorCodeValidation
	case domain.IsFormat(err):
		return ErrorCodeFormat
	case domain.IsSyncInFlight(err):
		return ErrorCodeConflict
	case domain.IsUnavailable(err):
		return ErrorCodeUnavailable
	default:
		return ErrorCodeInternal
	}
}
