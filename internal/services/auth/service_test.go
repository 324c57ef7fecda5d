package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/crosswordgame-daily/internal/dependencies/mocks"
	"github.com/mcoot/crosswordgame-daily/internal/storage/memory"
	"github.com/mcoot/crosswordgame-daily/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	ids     *mocks.MockIDs
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.service = New(s.storage, s.clock, s.ids, testutil.NopLogger(), DefaultConfig())
	s.ctx = context.Background()
}

func (s *ServiceSuite) register(username, displayName string) *Session {
	session, err := s.service.RegisterPlayer(s.ctx, username, "password123", displayName)
	s.Require().NoError(err)
	return session
}

// RegisterPlayer tests

func (s *ServiceSuite) TestRegisterPlayerSucceeds() {
	s.ids.Queue("player-1")

	session, err := s.service.RegisterPlayer(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("Alice", session.Player.DisplayName)
	s.Equal("player-1", string(session.PlayerID))
}

func (s *ServiceSuite) TestRegisterPlayerPersistsRegistration() {
	s.register("alice", "Alice")

	rp, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", rp.Username)
	s.NotEmpty(rp.PasswordHash)
	s.NotEqual("password123", rp.PasswordHash) // Should be hashed

	player, err := s.storage.GetPlayer(s.ctx, rp.PlayerID)
	s.Require().NoError(err)
	s.Equal("Alice", player.DisplayName)
}

func (s *ServiceSuite) TestRegisterPlayerFailsIfUsernameExists() {
	s.register("alice", "Alice")

	_, err := s.service.RegisterPlayer(s.ctx, "alice", "different", "Alice2")
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterPlayerRequiresFields() {
	_, err := s.service.RegisterPlayer(s.ctx, " ", "password123", "Alice")
	s.ErrorIs(err, ErrInvalidRegistration)

	_, err = s.service.RegisterPlayer(s.ctx, "alice", "", "Alice")
	s.ErrorIs(err, ErrInvalidRegistration)

	_, err = s.service.RegisterPlayer(s.ctx, "alice", "password123", "")
	s.ErrorIs(err, ErrInvalidRegistration)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	registered := s.register("alice", "Alice")

	session, err := s.service.Login(s.ctx, "alice", "password123")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.NotEqual(registered.Token, session.Token)
	s.Equal(registered.PlayerID, session.PlayerID, "player id is stable across sign-ins")
	s.Equal("Alice", session.Player.DisplayName)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	s.register("alice", "Alice")

	_, err := s.service.Login(s.ctx, "alice", "wrongpassword")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownUser() {
	_, err := s.service.Login(s.ctx, "nobody", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// ValidateSession tests

func (s *ServiceSuite) TestValidateSessionSucceeds() {
	session := s.register("alice", "Alice")

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.Token, validated.Token)
}

func (s *ServiceSuite) TestValidateSessionFailsWithInvalidToken() {
	_, err := s.service.ValidateSession("invalid_token")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWhenExpired() {
	session := s.register("alice", "Alice")

	// Advance time past expiration
	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

// InvalidateSession tests

func (s *ServiceSuite) TestInvalidateSessionRemovesSession() {
	session := s.register("alice", "Alice")

	s.service.InvalidateSession(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSessionNoopForUnknownToken() {
	// Should not panic
	s.service.InvalidateSession("unknown_token")
}

// CleanExpiredSessions tests

func (s *ServiceSuite) TestCleanExpiredSessionsRemovesExpired() {
	session1 := s.register("alice", "Alice")

	// Advance time so session1 expires
	s.clock.Advance(25 * time.Hour)

	// Create a new session (not expired)
	session2 := s.register("bob", "Bob")

	s.Equal(1, s.service.CleanExpiredSessions())

	// session1 should be gone
	_, err := s.service.ValidateSession(session1.Token)
	s.ErrorIs(err, ErrInvalidSession)

	// session2 should still be valid
	_, err = s.service.ValidateSession(session2.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestSessionJanitorStopsOnCancel() {
	session := s.register("alice", "Alice")
	ctx, cancel := context.WithCancel(s.ctx)

	sweeps := 0
	s.clock.OnSleep = func(time.Duration) {
		sweeps++
		if sweeps == 2 {
			cancel()
		}
	}
	s.clock.Advance(25 * time.Hour)

	s.service.RunSessionJanitor(ctx, time.Minute)

	s.Equal(2, sweeps)
	s.service.mu.RLock()
	_, ok := s.service.sessions[session.Token]
	s.service.mu.RUnlock()
	s.False(ok)
}
