package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/dbx"
	"github.com/dmitrijs2005/authservice/internal/server/auth"
	"github.com/dmitrijs2005/authservice/internal/server/models"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	getOut    *models.User
	getErr    error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	cp := *u
	cp.ID = "u1"
	return &cp, nil
}

func (f *fakeUsersRepo) GetByEmail(context.Context, string) (*models.User, error) {
	return f.getOut, f.getErr
}

func (f *fakeUsersRepo) GetByID(context.Context, string) (*models.User, error) {
	return f.getOut, f.getErr
}

type fakeRefreshRepo struct {
	createErr     error
	findErr       error
	invalidateErr error

	created     int
	invalidated []string
}

func (f *fakeRefreshRepo) Create(_ context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	return t, nil
}

func (f *fakeRefreshRepo) FindValid(_ context.Context, userID, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return &models.RefreshToken{UserID: userID, Token: token, IsValid: true}, nil
}

func (f *fakeRefreshRepo) Invalidate(_ context.Context, token string) error {
	f.invalidated = append(f.invalidated, token)
	return f.invalidateErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }

// fakeHasher accepts exactly the password "right".
type fakeHasher struct {
	hashErr error
}

func (h fakeHasher) Hash(_ context.Context, pw string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hash:" + pw, nil
}

func (h fakeHasher) Verify(_ context.Context, hash, pw string) bool {
	return hash == "hash:"+pw
}

func newFakeService(t *testing.T, rm *fakeRepoManager, h PasswordHasher, opts ...SessionOption) (*SessionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionService(db, rm, h, newTestSigner(t), opts...), mock
}

func TestSignUp_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup error", func(t *testing.T) {
		s, _ := newFakeService(t, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom}, r: &fakeRefreshRepo{}}, fakeHasher{})
		_, err := s.SignUp(ctx, "n", "e@x.com", "pw", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorInternal)
	})

	t.Run("existing email", func(t *testing.T) {
		s, _ := newFakeService(t, &fakeRepoManager{u: &fakeUsersRepo{getOut: &models.User{ID: "u1"}}, r: &fakeRefreshRepo{}}, fakeHasher{})
		_, err := s.SignUp(ctx, "n", "e@x.com", "pw", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorConflict)
	})

	t.Run("hash error", func(t *testing.T) {
		rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, r: &fakeRefreshRepo{}}
		s, _ := newFakeService(t, rm, fakeHasher{hashErr: errBoom})
		_, err := s.SignUp(ctx, "n", "e@x.com", "pw", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorInternal)
	})

	t.Run("lost insert race", func(t *testing.T) {
		rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound, createErr: common.ErrorAlreadyExists}, r: &fakeRefreshRepo{}}
		s, mock := newFakeService(t, rm, fakeHasher{})
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := s.SignUp(ctx, "n", "e@x.com", "pw", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token store error rolls back user", func(t *testing.T) {
		rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, r: &fakeRefreshRepo{createErr: errBoom}}
		s, mock := newFakeService(t, rm, fakeHasher{})
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := s.SignUp(ctx, "n", "e@x.com", "pw", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorInternal)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("token collision is internal", func(t *testing.T) {
		rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, r: &fakeRefreshRepo{createErr: common.ErrorAlreadyExists}}
		s, mock := newFakeService(t, rm, fakeHasher{})
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := s.SignUp(ctx, "n", "e@x.com", "pw", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorInternal)
		assert.NotErrorIs(t, err, common.ErrorConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commits on success", func(t *testing.T) {
		rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, r: &fakeRefreshRepo{}}
		s, mock := newFakeService(t, rm, fakeHasher{})
		mock.ExpectBegin()
		mock.ExpectCommit()

		pair, err := s.SignUp(ctx, "n", "e@x.com", "pw", ClientInfo{})
		require.NoError(t, err)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, 1, rm.r.created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSignIn_Errors(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1", Email: "e@x.com", PasswordHash: "hash:right"}

	t.Run("lookup error is internal", func(t *testing.T) {
		s, _ := newFakeService(t, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom}, r: &fakeRefreshRepo{}}, fakeHasher{})
		_, err := s.SignIn(ctx, "e@x.com", "right", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorInternal)
	})

	t.Run("store error is internal", func(t *testing.T) {
		s, _ := newFakeService(t, &fakeRepoManager{u: &fakeUsersRepo{getOut: user}, r: &fakeRefreshRepo{createErr: errBoom}}, fakeHasher{})
		_, err := s.SignIn(ctx, "e@x.com", "right", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorInternal)
	})

	t.Run("wrong password", func(t *testing.T) {
		s, _ := newFakeService(t, &fakeRepoManager{u: &fakeUsersRepo{getOut: user}, r: &fakeRefreshRepo{}}, fakeHasher{})
		_, err := s.SignIn(ctx, "e@x.com", "wrong", ClientInfo{})
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("success", func(t *testing.T) {
		rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: user}, r: &fakeRefreshRepo{}}
		s, _ := newFakeService(t, rm, fakeHasher{})
		pair, err := s.SignIn(ctx, "e@x.com", "right", ClientInfo{})
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.Equal(t, 1, rm.r.created)
	})
}

func TestRefreshAccess_StoreErrorIsInternal(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{findErr: errBoom}}
	s, _ := newFakeService(t, rm, fakeHasher{})

	tok, err := s.signer.Issue(auth.Payload{UserID: "u1", Email: "e@x.com"}, auth.Refresh)
	require.NoError(t, err)

	_, err = s.RefreshAccess(context.Background(), tok, ClientInfo{})
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRefreshAccess_RotationInvalidateFailureKeepsNewToken(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{invalidateErr: errBoom}}
	s, _ := newFakeService(t, rm, fakeHasher{}, WithRefreshRotation(true))

	tok, err := s.signer.Issue(auth.Payload{UserID: "u1", Email: "e@x.com"}, auth.Refresh)
	require.NoError(t, err)

	pair, err := s.RefreshAccess(context.Background(), tok, ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, []string{tok}, rm.r.invalidated)
}

func TestLogout_SwallowsStoreErrors(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{invalidateErr: errBoom}}
	s, _ := newFakeService(t, rm, fakeHasher{})

	assert.NotPanics(t, func() { s.Logout(context.Background(), "tok") })
	assert.Equal(t, []string{"tok"}, rm.r.invalidated)
}

func TestGetUser_InternalError(t *testing.T) {
	s, _ := newFakeService(t, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom}, r: &fakeRefreshRepo{}}, fakeHasher{})
	_, err := s.GetUser(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrorInternal)
}
