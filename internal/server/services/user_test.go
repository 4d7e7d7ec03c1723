package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/logging"
	"github.com/dmitrijs2005/fplassistant/internal/server/auth"
	"github.com/dmitrijs2005/fplassistant/internal/server/config"
	"github.com/dmitrijs2005/fplassistant/internal/server/models"
	"github.com/dmitrijs2005/fplassistant/internal/server/password"
	"github.com/dmitrijs2005/fplassistant/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

var testParams = password.Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		SpecialUserEmail:            "Boss@Example.com",
	}
}

func newUserService(t *testing.T, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	return NewUserService(rm, password.NewHasher(testParams), testConfig(), logging.Nop())
}

func register(t *testing.T, s *UserService, name, email string) *AuthResult {
	t.Helper()
	res, err := s.Register(context.Background(), RegisterInput{UserName: name, Email: email, Password: "secret1"})
	require.NoError(t, err)
	return res
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	s := newUserService(t, rm)
	id := int64(1234567)

	res, err := s.Register(context.Background(), RegisterInput{
		UserName: "  alice ", Email: "  Alice@Example.COM ", Password: "secret1", ManagerID: &id,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "alice", res.User.UserName)
	assert.Equal(t, "alice@example.com", res.User.Email)
	require.NotNil(t, res.User.ManagerID)
	assert.Equal(t, id, *res.User.ManagerID)
	assert.NotContains(t, res.User.PasswordHash, "secret1")
	assert.False(t, res.IsSpecialUser)

	uid, err := auth.GetUserIDFromToken(res.Token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, uid)
}

func TestRegister_DuplicateEmailLeavesCountUnchanged(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	s := newUserService(t, rm)
	ctx := context.Background()

	register(t, s, "alice", "alice@example.com")
	before, err := rm.Users(nil).Count(ctx)
	require.NoError(t, err)

	_, err = s.Register(ctx, RegisterInput{UserName: "other", Email: "ALICE@example.com", Password: "secret1"})
	require.ErrorIs(t, err, common.ErrDuplicateEmail)

	after, err := rm.Users(nil).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := newUserService(t, repomanager.NewMemoryRepositoryManager())
	register(t, s, "alice", "alice@example.com")

	_, err := s.Register(context.Background(), RegisterInput{UserName: "alice", Email: "bob@example.com", Password: "secret1"})
	require.ErrorIs(t, err, common.ErrDuplicateUsername)
}

func TestRegister_WeakPassword(t *testing.T) {
	s := newUserService(t, repomanager.NewMemoryRepositoryManager())

	_, err := s.Register(context.Background(), RegisterInput{UserName: "alice", Email: "a@example.com", Password: "12345"})
	require.ErrorIs(t, err, common.ErrWeakPassword)
}

func TestRegister_LengthsCountCharacters(t *testing.T) {
	s := newUserService(t, repomanager.NewMemoryRepositoryManager())
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{UserName: "  ab ", Email: "a@example.com", Password: "secret1"})
	require.ErrorIs(t, err, common.ErrInvalidUsername)

	_, err = s.Register(ctx, RegisterInput{UserName: "alice", Email: "a@example.com", Password: "ééé"})
	require.ErrorIs(t, err, common.ErrWeakPassword, "three two-byte characters are too short")

	res, err := s.Register(ctx, RegisterInput{UserName: " Zoë ", Email: "a@example.com", Password: "pässwörd"})
	require.NoError(t, err)
	assert.Equal(t, "Zoë", res.User.UserName)
}

func TestRegister_SpecialUser(t *testing.T) {
	s := newUserService(t, repomanager.NewMemoryRepositoryManager())

	res := register(t, s, "boss", "boss@example.com")
	assert.True(t, res.IsSpecialUser)
}

func TestRegister_Postgres_DuplicateEmailRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newUserService(t, repomanager.NewPostgresRepositoryManagerWithDB(db))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`)).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = s.Register(context.Background(), RegisterInput{UserName: "alice", Email: "alice@example.com", Password: "secret1"})
	require.ErrorIs(t, err, common.ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Postgres_DBErrorIsInternal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newUserService(t, repomanager.NewPostgresRepositoryManagerWithDB(db))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err = s.Register(context.Background(), RegisterInput{UserName: "alice", Email: "alice@example.com", Password: "secret1"})
	require.ErrorIs(t, err, common.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

// --- Login ---

func TestLogin(t *testing.T) {
	s := newUserService(t, repomanager.NewMemoryRepositoryManager())
	reg := register(t, s, "alice", "alice@example.com")

	t.Run("ok", func(t *testing.T) {
		res, err := s.Login(context.Background(), " ALICE@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, res.User.ID)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errPwd := s.Login(context.Background(), "alice@example.com", "wrong-password")
		_, errMail := s.Login(context.Background(), "nobody@example.com", "secret1")

		require.ErrorIs(t, errPwd, common.ErrInvalidCredentials)
		require.ErrorIs(t, errMail, common.ErrInvalidCredentials)
		assert.Equal(t, errPwd.Error(), errMail.Error())
	})
}

func TestLogin_ImportedBcryptHash(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	s := newUserService(t, rm)

	hash, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = rm.Users(nil).Create(context.Background(), &models.User{
		UserName: "old", Email: "old@example.com", PasswordHash: string(hash),
	})
	require.NoError(t, err)

	res, err := s.Login(context.Background(), "old@example.com", "legacy-pass")
	require.NoError(t, err)
	assert.Equal(t, "old", res.User.UserName)

	_, err = s.Login(context.Background(), "old@example.com", "nope")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

// --- Authenticate ---

func TestAuthenticate(t *testing.T) {
	s := newUserService(t, repomanager.NewMemoryRepositoryManager())
	reg := register(t, s, "alice", "alice@example.com")

	u, err := s.Authenticate(context.Background(), reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, u.ID)

	wrongSecret, err := auth.GenerateToken(reg.User.ID, []byte("other"), time.Hour)
	require.NoError(t, err)
	ghost, err := auth.GenerateToken("00000000-0000-0000-0000-000000000000", []byte("k"), time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": wrongSecret,
		"unknown user": ghost,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Authenticate(context.Background(), token)
			require.True(t, errors.Is(err, common.ErrUnauthorized), "got %v", err)
		})
	}
}
