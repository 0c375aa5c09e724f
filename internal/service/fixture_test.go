package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/pkg/apperr"
	"sendit/messenger/internal/pkg/auth"
	"sendit/messenger/internal/pkg/otp"
	"sendit/messenger/internal/repository"
	"sendit/messenger/internal/testutil"
)

const testPassword = "Secret#123"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeGateway records delivered codes. If block is set it waits for the
// context to end instead of delivering.
type fakeGateway struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
	block bool
}

func (g *fakeGateway) SendCode(ctx context.Context, email, code string) error {
	if g.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if g.err != nil {
		return g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.codes == nil {
		g.codes = make(map[string]string)
	}
	g.codes[email] = code
	return nil
}

func (g *fakeGateway) lastCode(email string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.codes[email]
}

type fixture struct {
	db            *gorm.DB
	store         repository.Store
	mr            *miniredis.Miniredis
	challenges    repository.ChallengeRepository
	identity      IdentityService
	login         *loginService
	conversations *conversationService
	gateway       *fakeGateway
	clock         *fakeClock
	codes         *otp.Generator
	tokens        *auth.TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		db:         db,
		store:      repository.NewStore(db),
		mr:         mr,
		challenges: repository.NewChallengeRepository(rdb),
		gateway:    &fakeGateway{},
		clock:      newFakeClock(),
		codes:      otp.NewGenerator("SendIt"),
		tokens:     auth.NewTokenIssuer("test-key", time.Hour),
	}

	f.identity = NewIdentityService(f.store, auth.NewBcryptVerifier(bcrypt.MinCost), f.tokens, logger)

	f.login = NewLoginService(f.identity, f.store.Accounts(), f.challenges, f.gateway, f.codes, f.tokens,
		LoginConfig{NotifyTimeout: 100 * time.Millisecond, MaxAttempts: 3}, logger).(*loginService)
	f.login.now = f.clock.Now

	f.conversations = NewConversationService(f.store, repository.NewConversationCacheRepository(rdb), logger).(*conversationService)
	f.conversations.now = f.clock.Now

	return f
}

func (f *fixture) signup(t *testing.T, username, phone string) model.Profile {
	t.Helper()
	res, err := f.identity.Register(context.Background(), RegisterInput{
		Username: username,
		Phone:    phone,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return res.Account
}

func requireCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Error())
}
