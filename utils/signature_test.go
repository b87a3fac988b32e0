package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentSignature(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("key_secret"))
	mac.Write([]byte("order_9A33XWu170gUtm|pay_29QQoUBi66xm2f"))
	want := hex.EncodeToString(mac.Sum(nil))

	got := PaymentSignature("key_secret", "order_9A33XWu170gUtm", "pay_29QQoUBi66xm2f")
	assert.Equal(t, want, got)
	assert.Len(t, got, 64)
}

func TestVerifyPaymentSignature(t *testing.T) {
	sig := PaymentSignature("key_secret", "order_1", "pay_1")

	assert.True(t, VerifyPaymentSignature("key_secret", "order_1", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("key_secret", "order_1", "pay_2", sig))
	assert.False(t, VerifyPaymentSignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("key_secret", "order_1", "pay_1", ""))
	// the separator is part of the signed message
	mac := hmac.New(sha256.New, []byte("key_secret"))
	mac.Write([]byte("order_1pay_1"))
	assert.False(t, VerifyPaymentSignature("key_secret", "order_1", "pay_1", hex.EncodeToString(mac.Sum(nil))))
}
