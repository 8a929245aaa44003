package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByPasswordResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, userID string, record domain.LoginRecord) error {
	args := m.Called(ctx, userID, record)
	return args.Error(0)
}

func (m *MockUserRepository) SetPasswordResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

// --- Test Suite Setup ---

type UserServiceTestSuite struct {
	suite.Suite
	mockRepo *MockUserRepository
	service  portssvc.UserSvcFacade
	ctx      context.Context
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockUserRepository)
	suite.service = services.NewUserService(suite.mockRepo)
	suite.ctx = context.Background()
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

// --- Test Cases ---

func (suite *UserServiceTestSuite) TestGetUserByID_Success() {
	expected := &domain.User{UserID: "u-1", Username: "alice", Email: "alice@example.com"}
	suite.mockRepo.On("FindUserByID", suite.ctx, "u-1").Return(expected, nil).Once()

	user, err := suite.service.GetUserByID(suite.ctx, "u-1")

	suite.Require().NoError(err)
	suite.Equal(expected, user)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestGetUserByID_NotFound() {
	suite.mockRepo.On("FindUserByID", suite.ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	user, err := suite.service.GetUserByID(suite.ctx, "missing")

	suite.Nil(user)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *UserServiceTestSuite) TestGetUserByEmail_Normalizes() {
	expected := &domain.User{UserID: "u-1", Email: "alice@example.com"}
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "alice@example.com").Return(expected, nil).Once()

	user, err := suite.service.GetUserByEmail(suite.ctx, "  Alice@Example.COM ")

	suite.Require().NoError(err)
	suite.Equal("u-1", user.UserID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestListUsers_EmptyIsNotNil() {
	suite.mockRepo.On("FindUsers", suite.ctx, 20, 0).Return(nil, nil).Once()

	users, err := suite.service.ListUsers(suite.ctx, 20, 0)

	suite.Require().NoError(err)
	suite.NotNil(users)
	suite.Empty(users)
}

func (suite *UserServiceTestSuite) TestListUsers_RepoError() {
	suite.mockRepo.On("FindUsers", suite.ctx, 10, 5).Return(nil, errors.New("db down")).Once()

	users, err := suite.service.ListUsers(suite.ctx, 10, 5)

	suite.Error(err)
	suite.Nil(users)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "bob@example.com", services.NormalizeEmail(" BOB@example.com\t"))
	assert.Equal(t, "", services.NormalizeEmail("   "))
}
