package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boehmtech/task-tracker/internal/middleware"
	"github.com/boehmtech/task-tracker/internal/models"
	"github.com/boehmtech/task-tracker/internal/repository"
	"github.com/boehmtech/task-tracker/internal/services"
	"github.com/boehmtech/task-tracker/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *token.Manager
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskUpdate{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	tokens := token.NewManager("test-secret")
	handler := NewAuthHandler(services.NewAuthService(userRepo, tokens), zap.NewNop().Sugar())

	r := gin.New()
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/refresh", handler.Refresh)
	r.GET("/api/auth/me", middleware.RequireAuth(tokens, userRepo), handler.Me)

	return authTestEnv{db: db, router: r, tokens: tokens}
}

func (env authTestEnv) createUser(t *testing.T, username, password string, active bool) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
		DisplayName:  username,
		Role:         models.RoleUser,
		IsActive:     active,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func postJSON(t *testing.T, router *gin.Engine, url string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)
	env.createUser(t, "bob", "supersecret", true)

	w := postJSON(t, env.router, "/api/auth/login", map[string]string{
		"username": "bob",
		"password": "supersecret",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.AccessToken)
	require.NotEmpty(t, response.RefreshToken)

	userID, err := env.tokens.Verify(response.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	require.NotZero(t, userID)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	env := setupAuthTestEnv(t)
	env.createUser(t, "bob", "supersecret", true)
	env.createUser(t, "ghost", "supersecret", false)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "bob", "wrong"},
		{"unknown user", "nobody", "supersecret"},
		{"deactivated account", "ghost", "supersecret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, env.router, "/api/auth/login", map[string]string{
				"username": tt.username,
				"password": tt.password,
			})
			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	env := setupAuthTestEnv(t)
	user := env.createUser(t, "bob", "supersecret", true)

	pair, err := env.tokens.IssuePair(user.ID)
	require.NoError(t, err)

	w := postJSON(t, env.router, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	userID, err := env.tokens.Verify(response.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
}

func TestAuthHandler_RefreshRejectsAccessToken(t *testing.T) {
	env := setupAuthTestEnv(t)
	user := env.createUser(t, "bob", "supersecret", true)

	access, err := env.tokens.IssueAccess(user.ID)
	require.NoError(t, err)

	w := postJSON(t, env.router, "/api/auth/refresh", map[string]string{
		"refresh_token": access,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	env := setupAuthTestEnv(t)
	user := env.createUser(t, "bob", "supersecret", true)

	access, err := env.tokens.IssueAccess(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "bob", response.Username)
}

func TestAuthHandler_MeTokenErrors(t *testing.T) {
	env := setupAuthTestEnv(t)

	// Missing token
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "TOKEN_MISSING")

	// Garbage token
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "TOKEN_INVALID")
}
