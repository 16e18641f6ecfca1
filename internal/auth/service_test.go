package auth

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/internal/users"
	"github.com/asookemart/asooke-backend/internal/verification"
	pkgAuth "github.com/asookemart/asooke-backend/pkg/auth"
	"github.com/asookemart/asooke-backend/pkg/auth/session"
	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/db/dbtest"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/mailer"
)

var (
	testJWT      = config.JWTConfig{Secret: "test-secret", Issuer: "asooke-test", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60}
	testPassword = config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	testApp      = config.AppConfig{APIBaseURL: "https://api.asooke.test", FrontendURL: "https://asooke.test"}

	verifyLink = regexp.MustCompile(`/api/v1/auth/verify-email/([0-9a-f-]+)/(\d{6})/(\S+)`)
	magicLink  = regexp.MustCompile(`/api/v1/auth/magic-login/(\S+)`)
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) last(t *testing.T) mailer.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]string
	owners   map[string]uuid.UUID
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]string{}, owners: map[string]uuid.UUID{}}
}

func (m *memorySessions) Generate(_ context.Context, userID uuid.UUID, accessID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := "rt-" + uuid.NewString()
	m.sessions[accessID] = token
	m.owners[accessID] = userID
	return token, nil
}

func (m *memorySessions) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error) {
	m.mu.Lock()
	stored, ok := m.sessions[oldAccessID]
	owner := m.owners[oldAccessID]
	if !ok || stored != provided || owner != userID {
		m.mu.Unlock()
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.sessions, oldAccessID)
	m.mu.Unlock()

	accessID := session.NewAccessID()
	token, err := m.Generate(ctx, userID, accessID)
	return accessID, token, err
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, accessID)
	return nil
}

func (m *memorySessions) has(accessID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[accessID]
	return ok
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	mail     *recordingMailer
	sessions *memorySessions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	f := &fixture{conn: conn, mail: &recordingMailer{}, sessions: newMemorySessions()}
	svc, err := NewService(ServiceParams{
		Users:          users.NewRepository(conn),
		Codes:          verification.NewStore(conn, nil),
		SessionManager: f.sessions,
		Mailer:         f.mail,
		App:            testApp,
		JWTConfig:      testJWT,
		MagicLink:      config.MagicLinkConfig{TTL: 10 * time.Minute},
		PasswordConfig: testPassword,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) register(t *testing.T, email, password string) uuid.UUID {
	t.Helper()
	_, err := f.svc.Register(context.Background(), RegisterRequest{
		FirstName: "ada", LastName: "obi", Email: email, Password: password,
	})
	require.NoError(t, err)
	var user models.User
	require.NoError(t, f.conn.Take(&user, "email = ?", strings.ToLower(email)).Error)
	return user.ID
}

// verificationCode pulls the user id and code out of the last verification email.
func (f *fixture) verificationCode(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	match := verifyLink.FindStringSubmatch(f.mail.last(t).Text)
	require.Len(t, match, 4)
	return uuid.MustParse(match[1]), match[2]
}

func TestRegisterCreatesInactiveCustomerAndSendsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, RegisterRequest{
		FirstName: "ada", LastName: "OBI", Email: " Ada@Example.com ", Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "ada@example.com", res.Email)

	var user models.User
	require.NoError(t, f.conn.Take(&user, "email = ?", "ada@example.com").Error)
	assert.False(t, user.IsActive)
	assert.Equal(t, enums.RoleCustomer, user.Role)
	assert.Equal(t, "Ada", user.FirstName)
	require.NotNil(t, user.PasswordHash)

	msg := f.mail.last(t)
	assert.Equal(t, "ada@example.com", msg.To)
	match := verifyLink.FindStringSubmatch(msg.Text)
	require.Len(t, match, 4)
	assert.Equal(t, user.ID.String(), match[1])
	assert.Equal(t, url.PathEscape("ada@example.com"), match[3])
	assert.True(t, strings.HasPrefix(msg.Text, "Verify your email address: https://api.asooke.test/"))

	_, err = f.svc.Register(ctx, RegisterRequest{FirstName: "a", LastName: "b", Email: "ADA@example.com"})
	assert.ErrorIs(t, err, ErrEmailRegistered)
}

func TestRegisterMailFailureIsDependencyError(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("sendgrid down")

	_, err := f.svc.Register(context.Background(), RegisterRequest{FirstName: "a", LastName: "b", Email: "a@example.com"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestVerifyEmailActivatesAndSignsIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "ada@example.com", "correct-horse")

	_, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "inactive accounts cannot log in")

	uid, code := f.verificationCode(t)
	require.Equal(t, id, uid)

	_, err = f.svc.VerifyEmail(ctx, uid, "000000x")
	assert.ErrorIs(t, err, verification.ErrMismatch)

	sess, err := f.svc.VerifyEmail(ctx, uid, code)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, "Customer", sess.Group)
	assert.True(t, sess.User.IsActive)

	claims, err := pkgAuth.ParseAccessToken(testJWT, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.True(t, f.sessions.has(claims.ID))

	_, err = f.svc.VerifyEmail(ctx, uid, code)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com", "correct-horse")
	uid, code := f.verificationCode(t)
	_, err := f.svc.VerifyEmail(ctx, uid, code)
	require.NoError(t, err)

	sess, err := f.svc.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotNil(t, sess.User.LastLoginAt)

	for _, req := range []LoginRequest{
		{Email: "ada@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "correct-horse"},
		{Email: "  ", Password: "x"},
	} {
		_, err := f.svc.Login(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidCredentials, req.Email)
	}
}

func TestLoginWithoutPasswordIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com", "")
	uid, code := f.verificationCode(t)
	_, err := f.svc.VerifyEmail(ctx, uid, code)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMagicLinkFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestMagicLink(ctx, MagicLinkRequest{Email: "new@example.com"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	res, err := f.svc.RequestMagicLink(ctx, MagicLinkRequest{Email: "new@example.com", FirstName: "Kemi", LastName: "Ade"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	uid, code := f.verificationCode(t)

	_, err = f.svc.RequestMagicLink(ctx, MagicLinkRequest{Email: "new@example.com"})
	assert.ErrorIs(t, err, ErrAccountInactive)

	_, err = f.svc.VerifyEmail(ctx, uid, code)
	require.NoError(t, err)

	res, err = f.svc.RequestMagicLink(ctx, MagicLinkRequest{Email: "new@example.com"})
	require.NoError(t, err)
	assert.False(t, res.Created)

	match := magicLink.FindStringSubmatch(f.mail.last(t).Text)
	require.Len(t, match, 2)

	sess, err := f.svc.MagicLogin(ctx, match[1])
	require.NoError(t, err)
	assert.Equal(t, uid, sess.User.ID)

	_, err = f.svc.MagicLogin(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidLink, "access tokens are not magic links")
}

func TestMagicLoginRejectsChangedEmail(t *testing.T) {
	f := newFixture(t)
	user := dbtest.SeedUser(t, f.conn, enums.RoleCustomer)

	token, err := pkgAuth.MintMagicLinkToken(testJWT, time.Now().UTC(), time.Minute, user.ID, "old@example.com")
	require.NoError(t, err)
	_, err = f.svc.MagicLogin(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResendVerification(ctx, ResendRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	f.register(t, "ada@example.com", "")
	_, firstCode := f.verificationCode(t)

	_, err = f.svc.ResendVerification(ctx, ResendRequest{Email: "ada@example.com", IsLogin: true})
	assert.ErrorIs(t, err, ErrAccountInactive)

	res, err := f.svc.ResendVerification(ctx, ResendRequest{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, verificationSentMessage, res.Message)
	uid, code := f.verificationCode(t)

	if code != firstCode {
		_, err = f.svc.VerifyEmail(ctx, uid, firstCode)
		assert.ErrorIs(t, err, verification.ErrMismatch, "reissuing replaces the earlier code")
	}
	_, err = f.svc.VerifyEmail(ctx, uid, code)
	require.NoError(t, err)

	_, err = f.svc.ResendVerification(ctx, ResendRequest{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	res, err = f.svc.ResendVerification(ctx, ResendRequest{Email: "ada@example.com", IsLogin: true})
	require.NoError(t, err)
	assert.Equal(t, magicLinkSentMessage, res.Message)
	assert.Regexp(t, magicLink, f.mail.last(t).Text)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com", "correct-horse")
	uid, code := f.verificationCode(t)
	first, err := f.svc.VerifyEmail(ctx, uid, code)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: "forged"})
	assert.ErrorIs(t, err, ErrInvalidSession)

	second, err := f.svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidSession, "a rotated refresh token cannot be replayed")

	claims, err := pkgAuth.ParseAccessToken(testJWT, second.AccessToken)
	require.NoError(t, err)
	require.True(t, f.sessions.has(claims.ID))

	require.NoError(t, f.svc.Logout(ctx, second.AccessToken))
	assert.False(t, f.sessions.has(claims.ID))

	assert.ErrorIs(t, f.svc.Logout(ctx, "garbage"), ErrInvalidSession)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
