package auth

import (
	"context"
	"errors"
	"testing"

	domain "catalog/backend/internal/domain/auth"
	"catalog/backend/internal/domain/page"
	"catalog/backend/internal/domain/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) FindAll(ctx context.Context, req page.Request) (page.Page[*domain.User], error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(page.Page[*domain.User])
	return p, args.Error(1)
}

func (m *mockUsers) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	saved, _ := args.Get(0).(*domain.User)
	return saved, args.Error(1)
}

func (m *mockUsers) DeleteByID(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type stubTokens struct {
	issued  []int64
	userID  int64
	invalid bool
}

func (s *stubTokens) Generate(u *domain.User) (string, error) {
	s.issued = append(s.issued, u.ID)
	return "signed-token", nil
}

func (s *stubTokens) Validate(string) (int64, error) {
	if s.invalid {
		return 0, errors.New("expired")
	}
	return s.userID, nil
}

func storedUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           2,
		Email:        "maria@gmail.com",
		PasswordHash: string(hash),
		Roles:        []domain.Role{{ID: 1, Authority: domain.RoleOperator}},
	}
}

func TestLogin(t *testing.T) {
	users := &mockUsers{}
	users.On("FindByEmail", mock.Anything, "maria@gmail.com").Return(storedUser(t), nil)
	users.On("FindByEmail", mock.Anything, "nobody@gmail.com").Return(nil, storage.ErrEmptyResult)
	tokens := &stubTokens{}
	s := NewService(users, tokens, nil)

	token, user, err := s.Login(context.Background(), domain.Credentials{Email: " Maria@Gmail.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, []int64{2}, tokens.issued)

	_, _, err = s.Login(context.Background(), domain.Credentials{Email: "maria@gmail.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = s.Login(context.Background(), domain.Credentials{Email: "nobody@gmail.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = s.Login(context.Background(), domain.Credentials{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyToken(t *testing.T) {
	users := &mockUsers{}
	users.On("FindByID", mock.Anything, int64(2)).Return(storedUser(t), nil)
	users.On("FindByID", mock.Anything, int64(1000)).Return(nil, storage.ErrEmptyResult)

	user, err := NewService(users, &stubTokens{userID: 2}, nil).VerifyToken(context.Background(), "t")
	require.NoError(t, err)
	assert.True(t, user.HasAuthority(domain.RoleOperator))

	_, err = NewService(users, &stubTokens{userID: 1000}, nil).VerifyToken(context.Background(), "t")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = NewService(users, &stubTokens{invalid: true}, nil).VerifyToken(context.Background(), "t")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRenewToken(t *testing.T) {
	users := &mockUsers{}
	users.On("FindByID", mock.Anything, int64(2)).Return(storedUser(t), nil)
	tokens := &stubTokens{userID: 2}

	token, err := NewService(users, tokens, nil).RenewToken(context.Background(), "old")

	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.Equal(t, []int64{2}, tokens.issued)
}
