package controllers

import (
	"context"
	"go-food-ordering/middleware"
	"go-food-ordering/services"
	"go-food-ordering/utils"
	"net/http"

	"github.com/sirupsen/logrus"
)

// UserController handles signup, login and the admin dashboard
type UserController struct {
	Auth         *services.AuthService
	Log          logrus.FieldLogger
	SecureCookie bool
}

// NewUserController creates a new UserController
func NewUserController(auth *services.AuthService, log logrus.FieldLogger, secureCookie bool) *UserController {
	return &UserController{Auth: auth, Log: log, SecureCookie: secureCookie}
}

// Signup handles user registration
func (uc *UserController) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	result, err := uc.Auth.Signup(ctx, in)
	if err != nil {
		writeError(w, r, uc.Log, err)
		return
	}

	uc.setSessionCookie(w, result.Token)
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"token":   result.Token,
		"userId":  result.UserID,
		"role":    result.Role,
	})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	result, err := uc.Auth.Login(ctx, in)
	if err != nil {
		writeError(w, r, uc.Log, err)
		return
	}

	uc.setSessionCookie(w, result.Token)
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   result.Token,
		"userId":  result.UserID,
		"role":    result.Role,
	})
}

// Dashboard confirms the caller is an admin
func (uc *UserController) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the admin dashboard, " + user.Name + "!",
	})
}

func (uc *UserController) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   uc.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
