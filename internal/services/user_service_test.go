package services

import (
	"testing"

	"github.com/boehmtech/task-tracker/internal/models"
	"github.com/boehmtech/task-tracker/internal/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type userServiceTestEnv struct {
	db         *gorm.DB
	service    *UserService
	superadmin *models.User
	admin      *models.User
	user       *models.User
}

func setupUserServiceTest(t *testing.T) userServiceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskUpdate{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	service := NewUserService(repository.NewUserRepository(db))

	env := userServiceTestEnv{db: db, service: service}
	env.superadmin = createTestAccount(t, db, "root", "root@example.com", models.RoleSuperadmin, true)
	env.admin = createTestAccount(t, db, "boss", "boss@example.com", models.RoleAdmin, true)
	env.user = createTestAccount(t, db, "bob", "bob@example.com", models.RoleUser, true)
	return env
}

func createTestAccount(t *testing.T, db *gorm.DB, username, email string, role models.Role, active bool) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	account := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  username,
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestUserService_CreateDuplicateUsername(t *testing.T) {
	env := setupUserServiceTest(t)

	_, err := env.service.Create(env.superadmin, CreateUserInput{
		Username:    "bob",
		Email:       "bob2@example.com",
		Password:    "supersecret",
		DisplayName: "Bob Again",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserService_CreateDuplicateEmailOfInactiveUser(t *testing.T) {
	env := setupUserServiceTest(t)

	// Deactivated accounts still hold their username and email.
	createTestAccount(t, env.db, "ghost", "ghost@example.com", models.RoleUser, false)

	_, err := env.service.Create(env.admin, CreateUserInput{
		Username:    "newghost",
		Email:       "ghost@example.com",
		Password:    "supersecret",
		DisplayName: "New Ghost",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserService_CreateAdminRequiresSuperadmin(t *testing.T) {
	env := setupUserServiceTest(t)

	_, err := env.service.Create(env.admin, CreateUserInput{
		Username:    "wannabe",
		Email:       "wannabe@example.com",
		Password:    "supersecret",
		DisplayName: "Wannabe",
		Role:        models.RoleAdmin,
	})
	require.ErrorIs(t, err, ErrRoleEscalation)

	created, err := env.service.Create(env.superadmin, CreateUserInput{
		Username:    "newadmin",
		Email:       "newadmin@example.com",
		Password:    "supersecret",
		DisplayName: "New Admin",
		Role:        models.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, created.Role)
}

func TestUserService_CreateHashesPassword(t *testing.T) {
	env := setupUserServiceTest(t)

	created, err := env.service.Create(env.admin, CreateUserInput{
		Username:    "carol",
		Email:       "carol@example.com",
		Password:    "plaintext-password",
		DisplayName: "Carol",
	})
	require.NoError(t, err)
	require.NotEqual(t, "plaintext-password", created.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("plaintext-password")))
}

func TestUserService_GetSelfAndOther(t *testing.T) {
	env := setupUserServiceTest(t)

	got, err := env.service.Get(env.user, env.user.ID)
	require.NoError(t, err)
	require.Equal(t, env.user.ID, got.ID)

	_, err = env.service.Get(env.user, env.admin.ID)
	require.ErrorIs(t, err, ErrNotPermitted)

	got, err = env.service.Get(env.admin, env.user.ID)
	require.NoError(t, err)
	require.Equal(t, env.user.ID, got.ID)
}

func TestUserService_GetResolvesDeactivated(t *testing.T) {
	env := setupUserServiceTest(t)
	ghost := createTestAccount(t, env.db, "ghost", "ghost@example.com", models.RoleUser, false)

	got, err := env.service.Get(env.admin, ghost.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestUserService_UpdateEmailUniqueness(t *testing.T) {
	env := setupUserServiceTest(t)

	taken := "boss@example.com"
	_, err := env.service.Update(env.user, env.user.ID, UpdateUserInput{Email: &taken})
	require.ErrorIs(t, err, ErrEmailTaken)

	// Re-submitting one's own email is not a conflict.
	own := "bob@example.com"
	_, err = env.service.Update(env.user, env.user.ID, UpdateUserInput{Email: &own})
	require.NoError(t, err)
}

func TestUserService_UpdatePromotionRequiresSuperadmin(t *testing.T) {
	env := setupUserServiceTest(t)

	admin := models.RoleAdmin
	_, err := env.service.Update(env.admin, env.user.ID, UpdateUserInput{Role: &admin})
	require.ErrorIs(t, err, ErrRoleEscalation)

	updated, err := env.service.Update(env.superadmin, env.user.ID, UpdateUserInput{Role: &admin})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, updated.Role)
}

func TestUserService_UpdateRoleIgnoredForPlainActor(t *testing.T) {
	env := setupUserServiceTest(t)

	admin := models.RoleAdmin
	updated, err := env.service.Update(env.user, env.user.ID, UpdateUserInput{Role: &admin})
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, updated.Role)
}

func TestUserService_UpdateRehashesPassword(t *testing.T) {
	env := setupUserServiceTest(t)

	newPassword := "brand-new-password"
	updated, err := env.service.Update(env.user, env.user.ID, UpdateUserInput{Password: &newPassword})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(newPassword)))
}

func TestUserService_DeactivateRules(t *testing.T) {
	env := setupUserServiceTest(t)

	// Admins cannot deactivate at all.
	err := env.service.Deactivate(env.admin, env.user.ID)
	require.ErrorIs(t, err, ErrNotPermitted)

	// Superadmins cannot deactivate themselves.
	err = env.service.Deactivate(env.superadmin, env.superadmin.ID)
	require.ErrorIs(t, err, ErrSelfDeactivation)

	err = env.service.Deactivate(env.superadmin, env.user.ID)
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, env.db.First(&stored, env.user.ID).Error)
	require.False(t, stored.IsActive)
}

func TestUserService_SearchExcludesInactive(t *testing.T) {
	env := setupUserServiceTest(t)
	createTestAccount(t, env.db, "bobby-inactive", "bobby@example.com", models.RoleUser, false)

	results, err := env.service.Search(env.admin, "bob")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "bob", results[0].Username)
}

func TestUserService_SearchEmptyQuery(t *testing.T) {
	env := setupUserServiceTest(t)

	results, err := env.service.Search(env.admin, "   ")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestUserService_SearchRequiresAdmin(t *testing.T) {
	env := setupUserServiceTest(t)

	_, err := env.service.Search(env.user, "bob")
	require.ErrorIs(t, err, ErrNotPermitted)
}

func TestUserService_ListFilters(t *testing.T) {
	env := setupUserServiceTest(t)
	createTestAccount(t, env.db, "ghost", "ghost@example.com", models.RoleUser, false)

	role := models.RoleUser
	users, err := env.service.List(env.admin, ListUsersInput{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 2)

	active := true
	users, err = env.service.List(env.admin, ListUsersInput{Role: &role, IsActive: &active})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "bob", users[0].Username)

	_, err = env.service.List(env.user, ListUsersInput{})
	require.ErrorIs(t, err, ErrNotPermitted)
}
