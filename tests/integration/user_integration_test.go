package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/davicafu/latamtradex/internal/identity/application"
	"github.com/davicafu/latamtradex/internal/identity/domain"
	identityPostgres "github.com/davicafu/latamtradex/internal/identity/infra/outbound/db/postgre"
	"github.com/davicafu/latamtradex/internal/identity/infra/outbound/db/sqlite"
	"github.com/davicafu/latamtradex/internal/identity/infra/outbound/security"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/tests/mocks"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.InitSQLite(db))
	return db
}

func TestIdentitySQLiteIntegration_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	db := setupSQLite(t)
	pub := &mocks.RecordingPublisher{}
	svc := application.NewAuthService(sqlite.NewUserRepoSQLite(db), security.NewBcryptHasher(4), pub, zap.NewNop())

	user, err := svc.RegisterUser(ctx, contracts.RegisterUser{
		Email: "  Integration@Example.com ", Password: "supersecreta", Name: "Integrado", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "integration@example.com", user.Email)
	assert.NotEqual(t, "supersecreta", user.PasswordHash)

	// Duplicado
	_, err = svc.RegisterUser(ctx, contracts.RegisterUser{
		Email: "integration@example.com", Password: "otraclave", Name: "Otro", Role: "buyer",
	})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	assert.Len(t, pub.OnTopic(contracts.UserRegisteredTopic), 1)

	// Login contra el hash persistido
	logged, err := svc.LoginUser(ctx, contracts.LoginUser{Email: "INTEGRATION@example.com", Password: "supersecreta"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Equal(t, domain.RoleAdmin, logged.Role)

	_, err = svc.LoginUser(ctx, contracts.LoginUser{Email: "integration@example.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestIdentitySQLiteIntegration_ReopenKeepsUsers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identity.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, sqlite.InitSQLite(db))
	svc := application.NewAuthService(sqlite.NewUserRepoSQLite(db), security.NewBcryptHasher(4), &mocks.RecordingPublisher{}, zap.NewNop())
	created, err := svc.RegisterUser(ctx, contracts.RegisterUser{Email: "keep@example.com", Password: "supersecreta", Name: "Keep"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, sqlite.InitSQLite(db))

	got, err := sqlite.NewUserRepoSQLite(db).GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep@example.com", got.Email)
	assert.Equal(t, domain.RoleBuyer, got.Role)
}

func TestIdentityPostgresIntegration_UniqueEmail(t *testing.T) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		t.Skip("DATABASE_URL no está configurada, saltando test de integración con Postgres")
	}
	ctx := context.Background()
	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, identityPostgres.InitPostgres(db))
	_, err = db.Exec(`TRUNCATE TABLE users`)
	require.NoError(t, err)

	repo := identityPostgres.NewUserRepoPostgres(db)
	u, err := domain.NewUser("pg@example.com", "Pg", domain.RoleSeller, "hash", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	dup, err := domain.NewUser("pg@example.com", "Otro", domain.RoleBuyer, "hash", time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrUserAlreadyExists)

	got, err := repo.GetByEmail(ctx, "pg@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.RoleSeller, got.Role)
}
