package services

import (
	"context"
	"errors"
	"go-food-ordering/models"
	"go-food-ordering/store"
	"go-food-ordering/utils"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentProvider is the external payment gateway
type PaymentProvider interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (map[string]interface{}, error)
	FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error)
}

// PaymentStore is the payment record store as the payment service sees it
type PaymentStore interface {
	Insert(ctx context.Context, payment *models.Payment) error
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error)
}

// CreateProviderOrderInput opens a transaction. Amount is in major units.
type CreateProviderOrderInput struct {
	Amount *models.FlexNumber `json:"amount"`
}

// VerifyPaymentInput is the completion callback relayed by the client
type VerifyPaymentInput struct {
	OrderID   string            `json:"razorpay_order_id"`
	PaymentID string            `json:"razorpay_payment_id"`
	Signature string            `json:"razorpay_signature"`
	Amount    models.FlexNumber `json:"amount"`
	Currency  string            `json:"currency"`
}

// VerifyResult is a stored payment. Duplicate is set when the callback had
// already been recorded and nothing new was written.
type VerifyResult struct {
	Payment   *models.Payment
	Duplicate bool
}

// ProviderPayment is the provider's record reshaped for clients
type ProviderPayment struct {
	PaymentID   string                 `json:"paymentId"`
	TotalAmount float64                `json:"totalAmount"`
	PaidAt      *time.Time             `json:"paidAt"`
	Method      *string                `json:"method"`
	Status      string                 `json:"status,omitempty"`
	Raw         map[string]interface{} `json:"raw"`
}

// MaxOrderAmount is the largest amount, in major units, accepted for a
// provider order. Its paise value fits an int64 exactly.
const MaxOrderAmount = 1e10

// PaymentService opens provider transactions and records verified callbacks
type PaymentService struct {
	Provider PaymentProvider
	Payments PaymentStore
	Users    UserReader
	Notifier Notifier
	Log      logrus.FieldLogger
	Now      func() time.Time

	secret        string
	notifications sync.WaitGroup
}

// NewPaymentService creates a PaymentService that verifies callbacks with
// the provider key secret
func NewPaymentService(provider PaymentProvider, payments PaymentStore, users UserReader, notifier Notifier, log logrus.FieldLogger, secret string) *PaymentService {
	return &PaymentService{
		Provider: provider,
		Payments: payments,
		Users:    users,
		Notifier: notifier,
		Log:      log,
		Now:      time.Now,
		secret:   secret,
	}
}

// CreateProviderOrder opens a provider order for the amount converted to
// paise. Nothing is stored locally.
func (ps *PaymentService) CreateProviderOrder(ctx context.Context, in CreateProviderOrderInput) (map[string]interface{}, error) {
	if in.Amount == nil {
		return nil, validationError("Amount is required")
	}
	amount := float64(*in.Amount)
	if !(amount > 0 && amount <= MaxOrderAmount) {
		return nil, validationError("Invalid amount")
	}
	paise := int64(math.Round(amount * 100))
	if paise <= 0 {
		return nil, validationError("Invalid amount")
	}
	receipt := "receipt_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	order, err := ps.Provider.CreateOrder(ctx, paise, models.DefaultCurrency, receipt)
	if err != nil {
		return nil, upstreamError("Error creating payment order", err)
	}
	return order, nil
}

// VerifyAndRecordPayment checks the callback signature and stores a success
// record. A bad signature stores nothing. Replaying a recorded callback
// returns the existing record.
func (ps *PaymentService) VerifyAndRecordPayment(ctx context.Context, caller Caller, in VerifyPaymentInput) (*VerifyResult, error) {
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, validationError("Missing payment fields")
	}
	if !utils.VerifyPaymentSignature(ps.secret, in.OrderID, in.PaymentID, in.Signature) {
		ps.Log.WithFields(logrus.Fields{"order_id": in.OrderID, "payment_id": in.PaymentID}).
			Warn("Rejected payment callback with invalid signature")
		return nil, validationError("Invalid signature")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}
	payment := &models.Payment{
		OrderID:   in.OrderID,
		PaymentID: in.PaymentID,
		Signature: in.Signature,
		Amount:    nonNegative(float64(in.Amount)),
		Currency:  currency,
		Status:    models.PaymentSuccess,
		CreatedAt: ps.Now().UTC(),
	}
	err := ps.Payments.Insert(ctx, payment)
	if errors.Is(err, store.ErrDuplicate) {
		existing, ferr := ps.Payments.FindByPaymentID(ctx, in.PaymentID)
		if ferr != nil {
			return nil, upstreamError("Error verifying payment", ferr)
		}
		return &VerifyResult{Payment: existing, Duplicate: true}, nil
	}
	if err != nil {
		return nil, upstreamError("Error verifying payment", err)
	}

	ps.notifications.Add(1)
	go func() {
		defer ps.notifications.Done()
		ps.notifyPaid(caller.ID, *payment)
	}()
	return &VerifyResult{Payment: payment}, nil
}

// Wait blocks until every receipt started so far has been sent or has failed
func (ps *PaymentService) Wait() {
	ps.notifications.Wait()
}

// FetchPayment returns the local record for paymentID, or the provider's
// record when none is stored
func (ps *PaymentService) FetchPayment(ctx context.Context, paymentID string) (interface{}, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, validationError("paymentId required")
	}
	local, err := ps.Payments.FindByPaymentID(ctx, paymentID)
	if err == nil {
		return local, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, upstreamError("Error fetching payment details.", err)
	}

	raw, err := ps.Provider.FetchPayment(ctx, paymentID)
	if errors.Is(err, utils.ErrPaymentNotFound) {
		return nil, notFoundError("Payment not found")
	}
	if err != nil {
		return nil, upstreamError("Error fetching payment details.", err)
	}
	if len(raw) == 0 {
		return nil, notFoundError("Payment not found")
	}
	return reshapeProviderPayment(paymentID, raw), nil
}

func reshapeProviderPayment(paymentID string, raw map[string]interface{}) *ProviderPayment {
	out := &ProviderPayment{PaymentID: paymentID, Raw: raw}
	if id, ok := raw["id"].(string); ok && id != "" {
		out.PaymentID = id
	}
	if amount, ok := toFloat(raw["amount"]); ok {
		out.TotalAmount = amount / 100
	}
	if created, ok := toFloat(raw["created_at"]); ok && created > 0 {
		paidAt := time.Unix(int64(created), 0).UTC()
		out.PaidAt = &paidAt
	}
	if method, ok := raw["method"].(string); ok && method != "" {
		out.Method = &method
	}
	if status, ok := raw["status"].(string); ok {
		out.Status = status
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func (ps *PaymentService) notifyPaid(userID primitive.ObjectID, payment models.Payment) {
	if ps.Notifier == nil || userID.IsZero() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := ps.Users.FindByID(ctx, userID)
	if err != nil {
		ps.Log.WithError(err).WithField("payment_id", payment.PaymentID).Warn("Could not load payer for receipt")
		return
	}
	if err := ps.Notifier.SendPaymentReceipt(user.Email, payment); err != nil {
		ps.Log.WithError(err).WithField("to", user.Email).Error("Failed to send payment receipt")
	}
}
