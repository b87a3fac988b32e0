package controllers

import (
	"context"
	"go-food-ordering/services"
	"go-food-ordering/utils"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// PaymentController handles the provider checkout round trip
type PaymentController struct {
	Payments *services.PaymentService
	Log      logrus.FieldLogger
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(payments *services.PaymentService, log logrus.FieldLogger) *PaymentController {
	return &PaymentController{Payments: payments, Log: log}
}

// CreateOrder opens a provider order for the checkout widget
func (pc *PaymentController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in services.CreateProviderOrderInput
	if err := decodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	order, err := pc.Payments.CreateProviderOrder(ctx, in)
	if err != nil {
		writeError(w, r, pc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

// VerifyPayment checks the completion callback and records the payment
func (pc *PaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}
	var in services.VerifyPaymentInput
	if err := decodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	result, err := pc.Payments.VerifyAndRecordPayment(ctx, caller, in)
	if err != nil {
		writeError(w, r, pc.Log, err)
		return
	}
	message := "Payment verified & saved"
	if result.Duplicate {
		message = "Payment already recorded"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   message,
		"duplicate": result.Duplicate,
		"payment":   result.Payment,
	})
}

// GetPayment returns a payment from local records or the provider
func (pc *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	payment, err := pc.Payments.FetchPayment(ctx, mux.Vars(r)["paymentId"])
	if err != nil {
		writeError(w, r, pc.Log, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"payment": payment})
}
