package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
)

// ErrPaymentNotFound is returned when the provider does not know a payment id
var ErrPaymentNotFound = errors.New("payment not found at provider")

// RazorpayProvider opens and looks up transactions with Razorpay
type RazorpayProvider struct {
	client *razorpay.Client
}

// NewRazorpayProvider creates a provider authenticated with the given keys
func NewRazorpayProvider(keyID, keySecret string) *RazorpayProvider {
	return &RazorpayProvider{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder opens a provider order for amount in the smallest currency unit
func (rp *RazorpayProvider) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (map[string]interface{}, error) {
	data := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	return rp.client.Order.Create(data, nil)
}

// FetchPayment returns the provider's view of a payment
func (rp *RazorpayProvider) FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error) {
	payment, err := rp.client.Payment.Fetch(paymentID, nil, nil)
	if isUnknownID(err) {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
	}
	return payment, err
}

// isUnknownID reports whether err is Razorpay's reply to an id it has never
// issued: HTTP 400 with code BAD_REQUEST_ERROR and the description "The id
// provided does not exist". The SDK surfaces it as a BadRequestError that
// carries only the description. When the reply is tagged with
// internal_error_code BAD_REQUEST_ERROR the SDK returns an empty map instead.
func isUnknownID(err error) bool {
	var badRequest *rzperrors.BadRequestError
	return errors.As(err, &badRequest) &&
		strings.Contains(strings.ToLower(badRequest.Message), "does not exist")
}
