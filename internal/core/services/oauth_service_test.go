package services_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/core/services"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// stubProvider returns a fixed profile for any code.
type stubProvider struct {
	name    domain.AuthProvider
	profile domain.OAuthProfile
	err     error
}

func (p *stubProvider) Name() domain.AuthProvider { return p.name }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, _ string) (domain.OAuthProfile, error) {
	return p.profile, p.err
}

type OAuthServiceTestSuite struct {
	suite.Suite
	mockRepo *MockUserRepository
	google   *stubProvider
	tokens   portssvc.TokenSvcFacade
	service  portssvc.OAuthSvc
	ctx      context.Context
}

func (suite *OAuthServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockUserRepository)
	suite.google = &stubProvider{
		name: domain.ProviderGoogle,
		profile: domain.GoogleProfile{
			Subject:       "g-123",
			Email:         "Jane.Doe@Example.com",
			EmailVerified: true,
			Name:          "Jane Doe",
			Picture:       "https://img.example/jane.png",
		},
	}
	suite.tokens = services.NewTokenService(testConfig())
	suite.service = services.NewOAuthService(suite.mockRepo, suite.tokens, suite.google)
	suite.ctx = context.Background()
}

func TestOAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OAuthServiceTestSuite))
}

func (suite *OAuthServiceTestSuite) TestAuthCodeURL() {
	url, err := suite.service.AuthCodeURL(domain.ProviderGoogle, "abc")
	suite.Require().NoError(err)
	suite.Contains(url, "state=abc")

	_, err = suite.service.AuthCodeURL(domain.ProviderGitHub, "abc")
	assertAppError(&suite.Suite, err, http.StatusNotFound, services.MsgUnsupportedProvider)
}

func (suite *OAuthServiceTestSuite) TestCompleteLogin_ExistingEmailLinks() {
	existing := &domain.User{UserID: "u-1", Email: "jane.doe@example.com", AuthProvider: domain.ProviderLocal}
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "jane.doe@example.com").Return(existing, nil).Once()
	suite.mockRepo.On("RecordLogin", suite.ctx, "u-1", mock.Anything).Return(nil).Once()

	result, err := suite.service.CompleteLogin(suite.ctx, domain.ProviderGoogle, "code", domain.LoginRecord{Address: "1.2.3.4"})

	suite.Require().NoError(err)
	suite.Equal("u-1", result.User.UserID)
	suite.Equal(domain.ProviderLocal, result.User.AuthProvider)
	subject, err := suite.tokens.ParseAccessToken(result.AccessToken)
	suite.Require().NoError(err)
	suite.Equal("u-1", subject)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *OAuthServiceTestSuite) TestCompleteLogin_CreatesUser() {
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "jane.doe@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, "janedoe").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveUser", suite.ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.User).UserID = "u-new" }).
		Return(nil).Once()
	suite.mockRepo.On("RecordLogin", suite.ctx, "u-new", mock.Anything).Return(nil).Once()

	result, err := suite.service.CompleteLogin(suite.ctx, domain.ProviderGoogle, "code", domain.LoginRecord{})

	suite.Require().NoError(err)
	user := result.User
	suite.Equal("janedoe", user.Username)
	suite.Equal("Jane Doe", user.FullName)
	suite.Equal("jane.doe@example.com", user.Email)
	suite.True(user.IsVerified)
	suite.False(user.HasPassword())
	suite.Equal(domain.ProviderGoogle, user.AuthProvider)
	suite.Equal("https://img.example/jane.png", user.AvatarURL)
	suite.Len(user.LoginHistory, 1)
}

func (suite *OAuthServiceTestSuite) TestCompleteLogin_ExchangeFailure() {
	suite.google.err = errors.New("bad code")

	_, err := suite.service.CompleteLogin(suite.ctx, domain.ProviderGoogle, "code", domain.LoginRecord{})

	suite.Error(err)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindUserByEmail", mock.Anything, mock.Anything)
}

func (suite *OAuthServiceTestSuite) TestResolveUser_UsernameSuffixes() {
	identity := domain.GitHubProfile{ID: 7, Login: "Octo-Cat"}.Canonical()
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "octo-cat@users.noreply.github.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, "octocat").Return(&domain.User{}, nil).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, "octocat1").Return(&domain.User{}, nil).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, "octocat2").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveUser", suite.ctx, mock.Anything).Return(nil).Once()

	user, err := suite.service.ResolveUser(suite.ctx, identity)

	suite.Require().NoError(err)
	suite.Equal("octocat2", user.Username)
	suite.Equal(domain.ProviderGitHub, user.AuthProvider)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *OAuthServiceTestSuite) TestResolveUser_RaceFallsBackToExisting() {
	identity := domain.OAuthIdentity{Provider: domain.ProviderGoogle, Email: "race@example.com", EmailVerified: true, DisplayName: "Race"}
	winner := &domain.User{UserID: "u-winner", Email: "race@example.com"}
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "race@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, "race").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveUser", suite.ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "race@example.com").Return(winner, nil).Once()

	user, err := suite.service.ResolveUser(suite.ctx, identity)

	suite.Require().NoError(err)
	suite.Equal("u-winner", user.UserID)
}

func (suite *OAuthServiceTestSuite) TestResolveUser_NameWithoutSlugUsesEmail() {
	identity := domain.OAuthIdentity{Provider: domain.ProviderGoogle, Email: "kenji@example.com", EmailVerified: true, DisplayName: "健二"}
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "kenji@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, "kenji").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveUser", suite.ctx, mock.Anything).Return(nil).Once()

	user, err := suite.service.ResolveUser(suite.ctx, identity)

	suite.Require().NoError(err)
	suite.Equal("kenji", user.Username)
}

func (suite *OAuthServiceTestSuite) TestResolveUser_MissingEmail() {
	_, err := suite.service.ResolveUser(suite.ctx, domain.OAuthIdentity{Provider: domain.ProviderGoogle})

	assertAppError(&suite.Suite, err, http.StatusBadRequest, services.MsgProviderNoEmail)
}

func (suite *OAuthServiceTestSuite) TestCompleteLogin_UnverifiedEmailDoesNotLink() {
	suite.google.profile = domain.GoogleProfile{Subject: "g-9", Email: "Jane.Doe@Example.com", EmailVerified: false}

	_, err := suite.service.CompleteLogin(suite.ctx, domain.ProviderGoogle, "code", domain.LoginRecord{})

	assertAppError(&suite.Suite, err, http.StatusBadRequest, services.MsgProviderUnverified)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindUserByEmail", mock.Anything, mock.Anything)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *OAuthServiceTestSuite) TestResolveUser_TriesFiftySuffixesThenRandom() {
	identity := domain.OAuthIdentity{Provider: domain.ProviderGoogle, Email: "sam@example.com", EmailVerified: true, DisplayName: "Sam"}
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "sam@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, "sam").Return(&domain.User{}, nil).Once()
	for i := 1; i <= 50; i++ {
		suite.mockRepo.On("FindUserByUsername", suite.ctx, "sam"+strconv.Itoa(i)).Return(&domain.User{}, nil).Once()
	}
	suite.mockRepo.On("SaveUser", suite.ctx, mock.Anything).Return(nil).Once()

	user, err := suite.service.ResolveUser(suite.ctx, identity)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.Len(user.Username, len("sam")+4)
	suite.True(strings.HasPrefix(user.Username, "sam"))
}

func (suite *OAuthServiceTestSuite) TestResolveUser_LongNamesFitUsernameRules() {
	longName := strings.Repeat("Maximilian", 5)
	base := strings.ToLower(longName)[:utils.MaxUsernameLength]
	identity := domain.OAuthIdentity{Provider: domain.ProviderGoogle, Email: "max@example.com", EmailVerified: true, DisplayName: longName}
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "max@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, base).Return(&domain.User{}, nil).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, base[:utils.MaxUsernameLength-1]+"1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveUser", suite.ctx, mock.Anything).Return(nil).Once()

	user, err := suite.service.ResolveUser(suite.ctx, identity)

	suite.Require().NoError(err)
	suite.Equal(base[:utils.MaxUsernameLength-1]+"1", user.Username)
	suite.True(utils.IsValidUsername(user.Username))
}

func (suite *OAuthServiceTestSuite) TestResolveUser_ShortNamesArePadded() {
	identity := domain.OAuthIdentity{Provider: domain.ProviderGitHub, Email: "jo@example.com", EmailVerified: true, DisplayName: "Jo"}
	suite.mockRepo.On("FindUserByEmail", suite.ctx, "jo@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindUserByUsername", suite.ctx, "jouser").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveUser", suite.ctx, mock.Anything).Return(nil).Once()

	user, err := suite.service.ResolveUser(suite.ctx, identity)

	suite.Require().NoError(err)
	suite.True(utils.IsValidUsername(user.Username))
}
