package services_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go-food-ordering/models"
	"go-food-ordering/services"
	"go-food-ordering/store/memstore"
	"go-food-ordering/utils"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keySecret = "rzp_test_secret"

type providerOrder struct {
	amount   int64
	currency string
	receipt  string
}

type fakeProvider struct {
	mu       sync.Mutex
	created  []providerOrder
	fetched  []string
	payments map[string]map[string]interface{}
	err      error
}

func (p *fakeProvider) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (map[string]interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.created = append(p.created, providerOrder{amount: amount, currency: currency, receipt: receipt})
	return map[string]interface{}{
		"id":       "order_test123",
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"status":   "created",
	}, nil
}

func (p *fakeProvider) FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetched = append(p.fetched, paymentID)
	if p.err != nil {
		return nil, p.err
	}
	return p.payments[paymentID], nil
}

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentService(t *testing.T) (*services.PaymentService, *fakeProvider, *memstore.Payments) {
	t.Helper()
	log, _ := test.NewNullLogger()
	provider := &fakeProvider{payments: map[string]map[string]interface{}{}}
	payments := memstore.NewPayments()
	svc := services.NewPaymentService(provider, payments, memstore.NewUsers(), nil, log, keySecret)
	return svc, provider, payments
}

func amount(v float64) *models.FlexNumber {
	n := models.FlexNumber(v)
	return &n
}

func TestCreateProviderOrderConvertsToPaise(t *testing.T) {
	svc, provider, payments := newPaymentService(t)

	order, err := svc.CreateProviderOrder(context.Background(), services.CreateProviderOrderInput{Amount: amount(499.99)})
	require.NoError(t, err)
	assert.Equal(t, "order_test123", order["id"])

	require.Len(t, provider.created, 1)
	created := provider.created[0]
	assert.Equal(t, int64(49999), created.amount)
	assert.Equal(t, "INR", created.currency)
	assert.True(t, strings.HasPrefix(created.receipt, "receipt_"))
	assert.LessOrEqual(t, len(created.receipt), 40)
	assert.Zero(t, payments.Count())
}

func TestCreateProviderOrderRejectsBadAmounts(t *testing.T) {
	for name, in := range map[string]services.CreateProviderOrderInput{
		"missing":   {},
		"zero":      {Amount: amount(0)},
		"negative":  {Amount: amount(-5)},
		"sub-paisa": {Amount: amount(0.001)},
		"too large": {Amount: amount(services.MaxOrderAmount + 1)},
		"overflow":  {Amount: amount(1e17)},
	} {
		t.Run(name, func(t *testing.T) {
			svc, provider, _ := newPaymentService(t)
			_, err := svc.CreateProviderOrder(context.Background(), in)
			assert.True(t, services.IsKind(err, services.KindValidation), "got %v", err)
			assert.Empty(t, provider.created)
		})
	}
}

func TestCreateProviderOrderAcceptsMaximum(t *testing.T) {
	svc, provider, _ := newPaymentService(t)

	_, err := svc.CreateProviderOrder(context.Background(), services.CreateProviderOrderInput{Amount: amount(services.MaxOrderAmount)})
	require.NoError(t, err)
	require.Len(t, provider.created, 1)
	assert.Equal(t, int64(1e12), provider.created[0].amount)
}

func TestCreateProviderOrderProviderFailure(t *testing.T) {
	svc, provider, _ := newPaymentService(t)
	provider.err = errors.New("gateway timeout")

	_, err := svc.CreateProviderOrder(context.Background(), services.CreateProviderOrderInput{Amount: amount(10)})
	assert.True(t, services.IsKind(err, services.KindUpstream))
}

func TestVerifyAcceptsProviderSignature(t *testing.T) {
	svc, _, payments := newPaymentService(t)
	svc.Now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }

	res, err := svc.VerifyAndRecordPayment(context.Background(), services.Caller{}, services.VerifyPaymentInput{
		OrderID:   "order_O",
		PaymentID: "pay_P",
		Signature: sign(keySecret, "order_O", "pay_P"),
		Amount:    499.99,
	})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, models.PaymentSuccess, res.Payment.Status)
	assert.Equal(t, "INR", res.Payment.Currency)
	assert.Equal(t, 499.99, res.Payment.Amount)
	assert.Equal(t, 1, payments.Count())

	stored, err := payments.FindByPaymentID(context.Background(), "pay_P")
	require.NoError(t, err)
	assert.Equal(t, "order_O", stored.OrderID)
}

func TestVerifyRejectsWrongSignature(t *testing.T) {
	good := sign(keySecret, "order_O", "pay_P")
	for name, sig := range map[string]string{
		"other secret":  sign("not-the-secret", "order_O", "pay_P"),
		"swapped ids":   sign(keySecret, "pay_P", "order_O"),
		"other payment": sign(keySecret, "order_O", "pay_Q"),
		"uppercased":    strings.ToUpper(good),
		"truncated":     good[:len(good)-2],
		"not hex":       "zz" + good[2:],
	} {
		t.Run(name, func(t *testing.T) {
			svc, _, payments := newPaymentService(t)
			_, err := svc.VerifyAndRecordPayment(context.Background(), services.Caller{}, services.VerifyPaymentInput{
				OrderID:   "order_O",
				PaymentID: "pay_P",
				Signature: sig,
			})
			require.Error(t, err)
			assert.True(t, services.IsKind(err, services.KindValidation))
			var e *services.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "Invalid signature", e.Message)
			assert.Zero(t, payments.Count())
		})
	}
}

func TestVerifyRequiresAllFields(t *testing.T) {
	svc, _, payments := newPaymentService(t)

	_, err := svc.VerifyAndRecordPayment(context.Background(), services.Caller{}, services.VerifyPaymentInput{
		OrderID:   "order_O",
		Signature: sign(keySecret, "order_O", ""),
	})
	assert.True(t, services.IsKind(err, services.KindValidation))
	assert.Zero(t, payments.Count())
}

func TestVerifyReplayIsNoop(t *testing.T) {
	svc, _, payments := newPaymentService(t)
	in := services.VerifyPaymentInput{
		OrderID:   "order_O",
		PaymentID: "pay_P",
		Signature: sign(keySecret, "order_O", "pay_P"),
		Amount:    100,
	}

	first, err := svc.VerifyAndRecordPayment(context.Background(), services.Caller{}, in)
	require.NoError(t, err)
	second, err := svc.VerifyAndRecordPayment(context.Background(), services.Caller{}, in)
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Payment.ID, second.Payment.ID)
	assert.Equal(t, 1, payments.Count())
}

func TestVerifySendsReceiptToPayer(t *testing.T) {
	svc, _, _ := newPaymentService(t)
	users := memstore.NewUsers()
	payer := &models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleUser}
	require.NoError(t, users.Insert(context.Background(), payer))
	notifier := &recordingNotifier{}
	svc.Users = users
	svc.Notifier = notifier

	_, err := svc.VerifyAndRecordPayment(context.Background(), services.Caller{ID: payer.ID, Role: payer.Role}, services.VerifyPaymentInput{
		OrderID:   "order_O",
		PaymentID: "pay_P",
		Signature: sign(keySecret, "order_O", "pay_P"),
	})
	require.NoError(t, err)

	svc.Wait()
	_, receipts := notifier.sent()
	assert.Equal(t, []string{"asha@example.com"}, receipts)
}

func TestFetchPaymentPrefersLocalRecord(t *testing.T) {
	svc, provider, payments := newPaymentService(t)
	require.NoError(t, payments.Insert(context.Background(), &models.Payment{
		OrderID: "order_O", PaymentID: "pay_P", Amount: 250, Currency: "INR", Status: models.PaymentSuccess,
	}))

	got, err := svc.FetchPayment(context.Background(), "pay_P")
	require.NoError(t, err)
	payment, ok := got.(*models.Payment)
	require.True(t, ok)
	assert.Equal(t, 250.0, payment.Amount)
	assert.Empty(t, provider.fetched)
}

func TestFetchPaymentFallsBackToProvider(t *testing.T) {
	svc, provider, _ := newPaymentService(t)
	provider.payments["pay_R"] = map[string]interface{}{
		"id":         "pay_R",
		"amount":     float64(50000),
		"created_at": float64(1700000000),
		"method":     "upi",
		"status":     "captured",
	}

	got, err := svc.FetchPayment(context.Background(), "pay_R")
	require.NoError(t, err)
	payment, ok := got.(*services.ProviderPayment)
	require.True(t, ok)
	assert.Equal(t, "pay_R", payment.PaymentID)
	assert.Equal(t, 500.0, payment.TotalAmount)
	require.NotNil(t, payment.PaidAt)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), *payment.PaidAt)
	require.NotNil(t, payment.Method)
	assert.Equal(t, "upi", *payment.Method)
	assert.Equal(t, "captured", payment.Status)
	assert.Equal(t, []string{"pay_R"}, provider.fetched)
}

func TestFetchPaymentErrors(t *testing.T) {
	svc, provider, _ := newPaymentService(t)

	_, err := svc.FetchPayment(context.Background(), " ")
	assert.True(t, services.IsKind(err, services.KindValidation))

	_, err = svc.FetchPayment(context.Background(), "pay_missing")
	assert.True(t, services.IsKind(err, services.KindNotFound))

	provider.err = fmt.Errorf("fetch: %w", utils.ErrPaymentNotFound)
	_, err = svc.FetchPayment(context.Background(), "pay_missing")
	assert.True(t, services.IsKind(err, services.KindNotFound))

	provider.err = errors.New("boom")
	_, err = svc.FetchPayment(context.Background(), "pay_missing")
	assert.True(t, services.IsKind(err, services.KindUpstream))
}
