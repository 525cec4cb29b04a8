package apperrors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
)

var (
	ErrAuth            = errors.New("invalid email or password")
	ErrForbidden       = errors.New("access denied")
	ErrPaymentRequired = errors.New("account is not activated, payment required")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("conflicting state")
	ErrToken           = errors.New("invalid or expired token")
)

// FieldError is a per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level detail for a 400 response.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

func NewValidation() *ValidationError {
	return &ValidationError{}
}

func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Respond maps an error to its HTTP status and JSON body. Unknown errors are
// logged in full and redacted for the caller.
func Respond(c *gin.Context, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "validation failed", "errors": verr.Fields})
		return
	}

	switch {
	case errors.Is(err, ErrAuth):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, ErrToken):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, ErrPaymentRequired):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

// Wrap attaches a user-facing message to one of the sentinel errors above.
func Wrap(sentinel error, message string) error {
	return &wrapped{sentinel: sentinel, message: message}
}

type wrapped struct {
	sentinel error
	message  string
}

func (w *wrapped) Error() string { return w.message }
func (w *wrapped) Unwrap() error { return w.sentinel }
