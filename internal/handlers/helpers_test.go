package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"learnhub/internal/config"
	"learnhub/internal/models"
	"learnhub/internal/response"
	"learnhub/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	response.UseJSONFieldNames()
}

const validBearer = "Bearer good-token"

type fakeAuth struct {
	current models.User

	loginErr   error
	verifyErr  error
	resendErr  error
	refreshErr error
	logoutErr  error

	loggedOut []service.Identity
	verified  []string
}

func (f *fakeAuth) Authenticate(_ context.Context, bearer string) (models.User, service.Identity, error) {
	if "Bearer "+bearer != validBearer {
		return models.User{}, service.Identity{}, service.ErrUnauthenticated
	}
	return f.current, service.Identity{UserID: f.current.ID, Role: f.current.Role, TokenID: "tok-1"}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (service.LoginChallenge, error) {
	if f.loginErr != nil {
		return service.LoginChallenge{}, f.loginErr
	}
	return service.LoginChallenge{UserID: 7}, nil
}

func (f *fakeAuth) VerifyOtp(_ context.Context, userID int64, code string) (service.Tokens, error) {
	f.verified = append(f.verified, code)
	if f.verifyErr != nil {
		return service.Tokens{}, f.verifyErr
	}
	return service.Tokens{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}, nil
}

func (f *fakeAuth) ResendOtp(_ context.Context, userID int64) error {
	return f.resendErr
}

func (f *fakeAuth) Refresh(_ context.Context, token string) (service.Tokens, error) {
	if f.refreshErr != nil {
		return service.Tokens{}, f.refreshErr
	}
	return service.Tokens{AccessToken: "access-2", RefreshToken: "refresh-2", TokenType: "Bearer"}, nil
}

func (f *fakeAuth) Logout(_ context.Context, identity service.Identity) error {
	f.loggedOut = append(f.loggedOut, identity)
	return f.logoutErr
}

type fakeUsers struct {
	users map[int64]models.User

	profileUpdate service.ProfileUpdate
	userUpdate    service.UserUpdate
	newUser       service.NewUser
	uploaded      []byte

	err error
}

func (f *fakeUsers) GetProfile(_ context.Context, id int64) (models.User, error) {
	return f.users[id], f.err
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id int64, in service.ProfileUpdate) (models.User, error) {
	f.profileUpdate = in
	if f.err != nil {
		return models.User{}, f.err
	}
	u := f.users[id]
	if in.Name != nil {
		u.Name = *in.Name
	}
	return u, nil
}

func (f *fakeUsers) ChangePassword(_ context.Context, id int64, current, next string) error {
	return f.err
}

func (f *fakeUsers) UploadProfileImage(_ context.Context, id int64, data []byte) (models.User, error) {
	f.uploaded = data
	if f.err != nil {
		return models.User{}, f.err
	}
	u := f.users[id]
	url := "https://cdn.example.com/profile/1/a.png"
	u.ImageURL = &url
	return u, nil
}

func (f *fakeUsers) ListUsers(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for id := int64(1); id <= int64(len(f.users)); id++ {
		out = append(out, f.users[id])
	}
	return out, f.err
}

func (f *fakeUsers) AddUser(_ context.Context, in service.NewUser) (models.User, error) {
	f.newUser = in
	if f.err != nil {
		return models.User{}, f.err
	}
	return models.User{ID: 99, Name: in.Name, Email: in.Email, Role: in.Role, Status: models.UserStatusActive}, nil
}

func (f *fakeUsers) EditUser(_ context.Context, id int64, in service.UserUpdate) (models.User, error) {
	f.userUpdate = in
	if f.err != nil {
		return models.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return models.User{}, service.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) RemoveUser(_ context.Context, actorID, id int64) error {
	if actorID == id {
		return service.ErrCannotRemoveSelf
	}
	if _, ok := f.users[id]; !ok {
		return service.ErrUserNotFound
	}
	return f.err
}

func adminUser() models.User {
	return models.User{ID: 1, Name: "Admin", Email: "admin@example.com", Role: models.UserRoleAdmin, Status: models.UserStatusActive}
}

func memberUser() models.User {
	return models.User{ID: 2, Name: "Member", Email: "member@example.com", Password: "secret-hash", Role: models.UserRoleUser, Status: models.UserStatusActive}
}

func newTestRouter(auth *fakeAuth, users *fakeUsers) *gin.Engine {
	h := HandlerSet{
		log:   zerolog.Nop(),
		cfg:   &config.AppConfig{Environment: "test", Storage: config.StorageConfig{MaxImageBytes: 1 << 10}},
		auth:  auth,
		users: users,
	}
	r := gin.New()
	h.Register(r.Group("/api"))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, bearer bool) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer {
		req.Header.Set("Authorization", validBearer)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func dataMap(t *testing.T, env response.Envelope) map[string]any {
	t.Helper()
	m, ok := env.Data.(map[string]any)
	require.True(t, ok, "data is %T", env.Data)
	return m
}
