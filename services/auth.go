package services

import (
	"context"
	"errors"
	"go-food-ordering/models"
	"go-food-ordering/store"
	"go-food-ordering/utils"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid email or password."

// UserStore is the credential store as the auth service sees it
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, email, role string) error
}

// SignupInput is the body of a signup request
type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// LoginInput is the body of a login request
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by signup and login
type AuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// AuthService issues and verifies session tokens
type AuthService struct {
	Users  UserStore
	Tokens *utils.TokenIssuer
	// AllowRoleSignup lets signup callers ask for a role other than user
	AllowRoleSignup bool
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost
	HashCost int

	validate *validator.Validate
}

// NewAuthService creates an AuthService
func NewAuthService(users UserStore, tokens *utils.TokenIssuer, allowRoleSignup bool) *AuthService {
	return &AuthService{
		Users:           users,
		Tokens:          tokens,
		AllowRoleSignup: allowRoleSignup,
		validate:        validator.New(),
	}
}

// Signup registers a user and returns a session token for it
func (as *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := as.validator().Struct(in); err != nil {
		return nil, validationError(describeValidation(err))
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && !as.AllowRoleSignup {
		return nil, forbiddenError("Only the user role can be requested at signup.")
	}

	if _, err := as.Users.FindByEmail(ctx, in.Email); err == nil {
		return nil, conflictError("User already exists.")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, upstreamError("Database error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.cost())
	if err != nil {
		return nil, upstreamError("Error hashing password", err)
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
		Role:     role,
	}
	if err := as.Users.Insert(ctx, user); err != nil {
		// lost a race against a concurrent signup for the same email
		if errors.Is(err, store.ErrDuplicate) {
			return nil, conflictError("User already exists.")
		}
		return nil, upstreamError("Error creating user", err)
	}
	return as.issue(user)
}

// Login checks credentials. Unknown email and wrong password fail with the
// same error.
func (as *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := as.validator().Struct(in); err != nil {
		return nil, validationError("Email and password are required.")
	}
	user, err := as.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, authError(invalidCredentials)
	}
	if err != nil {
		return nil, upstreamError("Database error", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, authError(invalidCredentials)
	}
	return as.issue(user)
}

// VerifyToken returns the claims embedded in a valid, unexpired token
func (as *AuthService) VerifyToken(token string) (*utils.Claims, error) {
	claims, err := as.Tokens.ParseJWT(token)
	if err != nil {
		return nil, authError("Invalid or expired token.")
	}
	return claims, nil
}

// ResolveUser verifies token and loads the user it names
func (as *AuthService) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := as.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, authError("Invalid or expired token.")
	}
	user, err := as.Users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, authError("User not found.")
	}
	if err != nil {
		return nil, upstreamError("Database error", err)
	}
	return user, nil
}

// BootstrapAdmin creates an admin account unless the email is already
// registered. It reports whether an account was created.
func (as *AuthService) BootstrapAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, validationError("Admin email and password are required.")
	}
	if name == "" {
		name = "Admin"
	}
	if _, err := as.Users.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, upstreamError("Database error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.cost())
	if err != nil {
		return false, upstreamError("Error hashing password", err)
	}
	admin := &models.User{Name: name, Email: email, Password: string(hash), Role: models.RoleAdmin}
	if err := as.Users.Insert(ctx, admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, upstreamError("Error creating admin", err)
	}
	return true, nil
}

// PromoteAdmin gives an existing user the admin role
func (as *AuthService) PromoteAdmin(ctx context.Context, email string) error {
	err := as.Users.SetRole(ctx, strings.ToLower(strings.TrimSpace(email)), models.RoleAdmin)
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError("User not found: " + email)
	}
	if err != nil {
		return upstreamError("Database error", err)
	}
	return nil
}

func (as *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := as.Tokens.GenerateJWT(user.ID.Hex(), user.Role, utils.TokenTTL)
	if err != nil {
		return nil, upstreamError("Error generating token", err)
	}
	return &AuthResult{Token: token, UserID: user.ID.Hex(), Role: user.Role}, nil
}

func (as *AuthService) cost() int {
	if as.HashCost == 0 {
		return bcrypt.DefaultCost
	}
	return as.HashCost
}

func (as *AuthService) validator() *validator.Validate {
	if as.validate == nil {
		as.validate = validator.New()
	}
	return as.validate
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid input."
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return "Name, email and password are required."
	case "email":
		return "Email is malformed."
	case "oneof":
		return "Role must be user or admin."
	}
	return "Invalid " + strings.ToLower(fe.Field()) + "."
}
