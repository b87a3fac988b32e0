package services_test

import (
	"context"
	"testing"
	"time"

	"go-food-ordering/models"
	"go-food-ordering/services"
	"go-food-ordering/store/memstore"
	"go-food-ordering/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-signing-key")

func newAuthService(t *testing.T) (*services.AuthService, *memstore.Users) {
	t.Helper()
	users := memstore.NewUsers()
	as := services.NewAuthService(users, utils.NewTokenIssuer(testSecret), false)
	as.HashCost = bcrypt.MinCost
	return as, users
}

func signup(t *testing.T, as *services.AuthService, email string) *services.AuthResult {
	t.Helper()
	res, err := as.Signup(context.Background(), services.SignupInput{
		Name:     "Asha",
		Email:    email,
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	return res
}

func TestSignupIssuesTokenForNewUser(t *testing.T) {
	as, users := newAuthService(t)

	res := signup(t, as, "asha@example.com")

	assert.Equal(t, models.RoleUser, res.Role)
	claims, err := as.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)

	stored, err := users.FindByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.UserID, stored.ID.Hex())
	assert.NotEqual(t, "s3cret-pass", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret-pass")))
}

func TestSignupDuplicateEmail(t *testing.T) {
	as, users := newAuthService(t)
	signup(t, as, "asha@example.com")

	_, err := as.Signup(context.Background(), services.SignupInput{
		Name:     "Other",
		Email:    "Asha@Example.com",
		Password: "another",
	})
	require.Error(t, err)
	assert.True(t, services.IsKind(err, services.KindConflict))
	assert.Equal(t, 1, users.Count())
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name string
		in   services.SignupInput
	}{
		{"missing name", services.SignupInput{Email: "a@example.com", Password: "pw"}},
		{"missing email", services.SignupInput{Name: "A", Password: "pw"}},
		{"malformed email", services.SignupInput{Name: "A", Email: "not-an-email", Password: "pw"}},
		{"missing password", services.SignupInput{Name: "A", Email: "a@example.com"}},
		{"unknown role", services.SignupInput{Name: "A", Email: "a@example.com", Password: "pw", Role: "courier"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as, users := newAuthService(t)
			_, err := as.Signup(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, services.IsKind(err, services.KindValidation), "got %v", err)
			assert.Zero(t, users.Count())
		})
	}
}

func TestSignupAdminRoleRequiresOptIn(t *testing.T) {
	as, _ := newAuthService(t)
	in := services.SignupInput{Name: "Root", Email: "root@example.com", Password: "pw", Role: models.RoleAdmin}

	_, err := as.Signup(context.Background(), in)
	assert.True(t, services.IsKind(err, services.KindForbidden))

	as.AllowRoleSignup = true
	res, err := as.Signup(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)
}

func TestLoginDoesNotRevealWhichCredentialIsWrong(t *testing.T) {
	as, _ := newAuthService(t)
	signup(t, as, "asha@example.com")

	_, wrongPassword := as.Login(context.Background(), services.LoginInput{Email: "asha@example.com", Password: "nope"})
	_, unknownEmail := as.Login(context.Background(), services.LoginInput{Email: "ghost@example.com", Password: "nope"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.True(t, services.IsKind(wrongPassword, services.KindAuth))
	assert.True(t, services.IsKind(unknownEmail, services.KindAuth))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginIssuesSameShapeTokenAsSignup(t *testing.T) {
	as, _ := newAuthService(t)
	created := signup(t, as, "asha@example.com")

	res, err := as.Login(context.Background(), services.LoginInput{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, created.UserID, res.UserID)
	assert.Equal(t, created.Role, res.Role)

	claims, err := as.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, created.UserID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), time.Unix(claims.ExpiresAt, 0), 5*time.Second)
}

func TestVerifyTokenRejectsBadTokens(t *testing.T) {
	as, _ := newAuthService(t)
	res := signup(t, as, "asha@example.com")

	expired, err := utils.NewTokenIssuer(testSecret).GenerateJWT(res.UserID, models.RoleUser, -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.NewTokenIssuer([]byte("another-key")).GenerateJWT(res.UserID, models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":     "",
		"garbage":   "not.a.token",
		"expired":   expired,
		"wrong key": foreign,
		"tampered":  res.Token + "x",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := as.VerifyToken(token)
			require.Error(t, err)
			assert.True(t, services.IsKind(err, services.KindAuth))
		})
	}
}

func TestResolveUserRequiresExistingUser(t *testing.T) {
	as, _ := newAuthService(t)
	res := signup(t, as, "asha@example.com")

	user, err := as.ResolveUser(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)

	orphan, err := utils.NewTokenIssuer(testSecret).GenerateJWT("64b7f0c2a1b2c3d4e5f60718", models.RoleUser, time.Hour)
	require.NoError(t, err)
	_, err = as.ResolveUser(context.Background(), orphan)
	assert.True(t, services.IsKind(err, services.KindAuth))
}

func TestBootstrapAdminCreatesOnce(t *testing.T) {
	as, users := newAuthService(t)
	ctx := context.Background()

	created, err := as.BootstrapAdmin(ctx, "", "admin@example.com", "admin-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = as.BootstrapAdmin(ctx, "Admin", "admin@example.com", "admin-pass")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, users.Count())

	admin, err := users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Admin", admin.Name)

	_, err = as.BootstrapAdmin(ctx, "Admin", "", "")
	assert.True(t, services.IsKind(err, services.KindValidation))
}

func TestPromoteAdmin(t *testing.T) {
	as, users := newAuthService(t)
	ctx := context.Background()
	signup(t, as, "asha@example.com")

	require.NoError(t, as.PromoteAdmin(ctx, "asha@example.com"))
	user, err := users.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	err = as.PromoteAdmin(ctx, "ghost@example.com")
	assert.True(t, services.IsKind(err, services.KindNotFound))
}
