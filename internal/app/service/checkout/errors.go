package checkout

import (
	"errors"
	"net/http"

	"github.com/superstar643/PITCHINVEST-sub001/pkg/response"
)

// Error is a checkout failure with a fixed HTTP status and public message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrMissingParameters          = &Error{http.StatusBadRequest, "Missing required parameters"}
	ErrMissingVerifyParameters    = &Error{http.StatusBadRequest, "Missing required parameters: session_id and user_id"}
	ErrPlanNotFound               = &Error{http.StatusNotFound, "Pricing plan not found"}
	ErrCheckoutURLUnavailable     = &Error{http.StatusInternalServerError, "Failed to get checkout URL from Stripe"}
	ErrPaymentNotCompleted        = &Error{http.StatusBadRequest, "Payment not completed"}
	ErrUserMismatch               = &Error{http.StatusForbidden, "User ID mismatch"}
	ErrMissingPlanMetadata        = &Error{http.StatusBadRequest, "Missing pricing plan ID in session metadata"}
	ErrSubscriptionCreationFailed = &Error{http.StatusInternalServerError, "Failed to create subscription"}
	ErrInvalidSignature           = &Error{http.StatusBadRequest, "Invalid webhook signature"}
)

// Failure attaches request-specific detail to one of the sentinel errors.
type Failure struct {
	Kind          *Error
	Details       string
	SessionID     string
	PaymentStatus string
}

func (f *Failure) Error() string {
	if f.Details != "" {
		return f.Kind.Message + ": " + f.Details
	}
	return f.Kind.Message
}

func (f *Failure) Unwrap() error { return f.Kind }

// Describe maps err to the HTTP status and flat error body returned to
// checkout clients. Unknown errors are 500 with the error text.
func Describe(err error) (int, *response.ErrorBody) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind.Status, &response.ErrorBody{
			Error:         f.Kind.Message,
			Details:       f.Details,
			SessionID:     f.SessionID,
			PaymentStatus: f.PaymentStatus,
		}
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status, response.Error(e.Message)
	}
	return http.StatusInternalServerError, response.Error(err.Error())
}

// HTTPStatus is Describe without the body.
func HTTPStatus(err error) int {
	status, _ := Describe(err)
	return status
}
