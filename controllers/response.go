package controllers

import (
	"encoding/json"
	"errors"
	"go-food-ordering/middleware"
	"go-food-ordering/services"
	"go-food-ordering/utils"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// requestTimeout bounds every store and provider call made by a handler
const requestTimeout = 10 * time.Second

var statusByKind = map[services.Kind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindAuth:       http.StatusUnauthorized,
	services.KindForbidden:  http.StatusForbidden,
	services.KindNotFound:   http.StatusNotFound,
	services.KindConflict:   http.StatusBadRequest,
	services.KindUpstream:   http.StatusInternalServerError,
}

// writeError maps a service error onto a status and a user-facing message.
// Upstream causes are logged, never shown.
func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	kind := services.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "Internal Server Error"
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": w.Header().Get(middleware.RequestIDHeader),
		}).Error("Request failed")
	}
	utils.RespondError(w, status, message)
}

// decodeJSON reads the request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// callerOrUnauthorized pulls the caller attached by the auth middleware
func callerOrUnauthorized(w http.ResponseWriter, r *http.Request) (services.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return caller, ok
}
