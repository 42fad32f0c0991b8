package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"learnhub/internal/config"
	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/security"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Now().Truncate(time.Second)}
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

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.User
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{rows: map[int64]models.User{}}
	for _, u := range users {
		m.rows[u.ID] = u
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

func (m *memUsers) FindActiveByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if strings.EqualFold(u.Email, email) && u.IsActive() {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.rows))
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.rows[user.ID] = user
	return user, nil
}

func (m *memUsers) Update(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[user.ID]; !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	m.rows[user.ID] = user
	return user, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Password = credential
	m.rows[id] = u
	return nil
}

func (m *memUsers) UpdateStatus(_ context.Context, id int64, status models.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Status = status
	m.rows[id] = u
	return nil
}

func (m *memUsers) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// memOtps mirrors OtpRepository: one mutex stands in for the user row lock.
type memOtps struct {
	mu     sync.Mutex
	nextID int64
	rows   []models.OtpChallenge
}

func (m *memOtps) Replace(_ context.Context, c models.OtpChallenge, cooldown time.Duration) (models.OtpChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest time.Time
	for _, row := range m.rows {
		if row.UserID == c.UserID && row.CreatedAt.After(latest) {
			latest = row.CreatedAt
		}
	}
	if cooldown > 0 && !latest.IsZero() && c.CreatedAt.Sub(latest) < cooldown {
		return models.OtpChallenge{}, repository.ErrOtpCooldown
	}

	kept := make([]models.OtpChallenge, 0, len(m.rows))
	for _, row := range m.rows {
		if row.UserID != c.UserID {
			kept = append(kept, row)
		}
	}

	m.nextID++
	c.ID = m.nextID
	m.rows = append(kept, c)
	return c, nil
}

func (m *memOtps) Consume(_ context.Context, userID int64, code string, now time.Time) (models.OtpChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.UserID == userID && row.Code == code && row.Usable(now) {
			m.rows[i].Verified = true
			return m.rows[i], nil
		}
	}
	return models.OtpChallenge{}, repository.ErrOtpNotFound
}

func (m *memOtps) forUser(userID int64) []models.OtpChallenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OtpChallenge
	for _, row := range m.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out
}

// memTokens mirrors TokenRepository transactional semantics under one mutex.
type memTokens struct {
	mu      sync.Mutex
	users   *memUsers
	access  map[string]models.AccessToken
	refresh map[string]models.RefreshToken
	touched map[string]time.Time
}

func newMemTokens(users *memUsers) *memTokens {
	return &memTokens{
		users:   users,
		access:  map[string]models.AccessToken{},
		refresh: map[string]models.RefreshToken{},
		touched: map[string]time.Time{},
	}
}

func (m *memTokens) ReplaceSession(ctx context.Context, userID int64, pair repository.SessionPair) error {
	if _, err := m.users.GetByID(ctx, userID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replace(userID, pair)
	return nil
}

func (m *memTokens) RotateRefresh(ctx context.Context, hash []byte, now time.Time, next func(models.User) (repository.SessionPair, error)) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.refresh[string(hash)]
	if !ok || !row.ExpiresAt.After(now) {
		return models.User{}, repository.ErrRefreshTokenNotFound
	}
	owner, err := m.users.GetByID(ctx, row.UserID)
	if err != nil {
		return models.User{}, err
	}
	pair, err := next(owner)
	if err != nil {
		return models.User{}, err
	}
	delete(m.refresh, string(hash))
	m.replace(owner.ID, pair)
	return owner, nil
}

func (m *memTokens) replace(userID int64, pair repository.SessionPair) {
	m.revokeAll(userID)
	m.access[pair.Access.ID] = pair.Access
	m.refresh[string(pair.Refresh.TokenHash)] = pair.Refresh
}

func (m *memTokens) RevokeAll(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokeAll(userID)
	return nil
}

func (m *memTokens) revokeAll(userID int64) {
	for id, tok := range m.access {
		if tok.UserID == userID {
			delete(m.access, id)
		}
	}
	for h, tok := range m.refresh {
		if tok.UserID == userID {
			delete(m.refresh, h)
		}
	}
}

func (m *memTokens) FindAccessToken(_ context.Context, id string) (models.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.access[id]
	if !ok {
		return models.AccessToken{}, repository.ErrAccessTokenNotFound
	}
	return tok, nil
}

func (m *memTokens) TouchAccessToken(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[id] = at
	return nil
}

func (m *memTokens) counts(userID int64) (access, refresh int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tok := range m.access {
		if tok.UserID == userID {
			access++
		}
	}
	for _, tok := range m.refresh {
		if tok.UserID == userID {
			refresh++
		}
	}
	return access, refresh
}

type sentCode struct {
	UserID int64
	Email  string
	Code   string
	TTL    time.Duration
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (n *recordingNotifier) SendLoginCode(_ context.Context, user models.User, code string, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentCode{UserID: user.ID, Email: user.Email, Code: code, TTL: ttl})
	return nil
}

func (n *recordingNotifier) last() sentCode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type countingMetrics struct {
	mu     sync.Mutex
	events map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{events: map[string]int{}}
}

func (m *countingMetrics) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[key]++
}

func (m *countingMetrics) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[key]
}

func (m *countingMetrics) RecordLogin(o string)     { m.inc("login:" + o) }
func (m *countingMetrics) RecordOtpIssued(r string) { m.inc("issued:" + r) }
func (m *countingMetrics) RecordOtpVerify(o string) { m.inc("verify:" + o) }
func (m *countingMetrics) RecordRefresh(o string)   { m.inc("refresh:" + o) }

func strPtr(s string) *string { return &s }

// harness wires the auth services against in-memory stores sharing one clock.
type harness struct {
	clock    *fakeClock
	users    *memUsers
	otps     *memOtps
	tokens   *memTokens
	notifier *recordingNotifier
	metrics  *countingMetrics
	otp      *OtpService
	sessions *SessionService
	auth     *AuthService
}

var testSecurity = config.SecurityConfig{
	JWTAccessSecret: "test-secret",
	JWTAccessTTL:    15 * time.Minute,
	RefreshTTL:      30 * 24 * time.Hour,
}

var testOTP = config.OTPConfig{TTL: 10 * time.Minute, ResendCooldown: 2 * time.Minute}

func newHarness(users ...models.User) *harness {
	h := &harness{
		clock:    newClock(),
		users:    newMemUsers(users...),
		otps:     &memOtps{},
		notifier: &recordingNotifier{},
		metrics:  newCountingMetrics(),
	}
	h.tokens = newMemTokens(h.users)

	log := zerolog.Nop()
	h.otp = NewOtpService(h.otps, h.notifier, testOTP, h.metrics, log)
	h.otp.now = h.clock.Now
	h.sessions = NewSessionService(h.tokens, h.users, testSecurity, h.metrics, log)
	h.sessions.now = h.clock.Now
	h.auth = NewAuthService(h.users, security.DefaultCredentialVerifier(), h.otp, h.sessions, h.metrics, log)
	return h
}

func activeUser(id int64, email, password string) models.User {
	return models.User{
		ID:       id,
		Email:    email,
		Password: password,
		Name:     "Test User",
		Role:     models.UserRoleUser,
		Status:   models.UserStatusActive,
	}
}
