package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sponti/internal/auth"
	"sponti/internal/repository/sqlite"
	"sponti/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	tripRepo := sqlite.NewTripRepository(db)
	followRepo := sqlite.NewFollowRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, tripRepo.Init(ctx))
	require.NoError(t, followRepo.Init(ctx))

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	handler := NewHandler(
		service.NewUserService(userRepo),
		service.NewTripService(tripRepo),
		service.NewFollowService(followRepo),
		tokens,
		nil, "", "uploads",
		false,
		logger,
	)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any, cookie string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&nethttp.Cookie{Name: SessionCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionFromResponse(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			assert.True(t, c.HttpOnly, "session cookie must be http-only")
			return c.Value
		}
	}
	t.Fatalf("no session cookie in response")
	return ""
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestSignupLoginProfileFlow(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12", "name": "Alice"}, "")
	require.Equal(t, nethttp.StatusCreated, w.Code, w.Body.String())
	signupToken := sessionFromResponse(t, w)
	assert.NotEmpty(t, signupToken)

	w = doJSON(router, "POST", "/api/auth/login",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12"}, "")
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
	loginToken := sessionFromResponse(t, w)

	w = doJSON(router, "GET", "/api/profile", nil, loginToken)
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
	var resp struct {
		User struct {
			Email  string `json:"email"`
			Name   string `json:"name"`
			Avatar string `json:"avatar"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice@x.com", resp.User.Email)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.NotEmpty(t, resp.User.Avatar)
}

func TestSignupValidationMessages(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "short"}, "")
	require.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "at least 8 characters")

	w = doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "alllowercase1"}, "")
	require.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "uppercase")

	w = doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "nope", "password": "Abcdef12"}, "")
	require.Equal(t, nethttp.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email address", errorMessage(t, w))
}

func TestSignupDuplicateEmail(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12"}, "")
	require.Equal(t, nethttp.StatusCreated, w.Code)

	w = doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12"}, "")
	assert.Equal(t, nethttp.StatusConflict, w.Code)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12"}, "")
	require.Equal(t, nethttp.StatusCreated, w.Code)

	unknown := doJSON(router, "POST", "/api/auth/login",
		map[string]string{"email": "nobody@x.com", "password": "Abcdef12"}, "")
	wrong := doJSON(router, "POST", "/api/auth/login",
		map[string]string{"email": "alice@x.com", "password": "Wrong9999"}, "")

	assert.Equal(t, nethttp.StatusUnauthorized, unknown.Code)
	assert.Equal(t, nethttp.StatusUnauthorized, wrong.Code)
	assert.Equal(t, errorMessage(t, unknown), errorMessage(t, wrong))
}

func TestProfileRequiresSession(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "GET", "/api/profile", nil, "")
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code)

	w = doJSON(router, "GET", "/api/profile", nil, "garbage-token")
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
}

func TestPageGateRedirects(t *testing.T) {
	router := newTestRouter(t)

	// no session: page navigation redirects to login
	w := doJSON(router, "GET", "/dashboard", nil, "")
	assert.Equal(t, nethttp.StatusFound, w.Code)
	assert.Equal(t, auth.LoginPath, w.Header().Get("Location"))

	// auth pages pass without a session
	w = doJSON(router, "GET", "/auth/login", nil, "")
	assert.NotEqual(t, nethttp.StatusFound, w.Code)

	// with a valid session the gate allows the navigation through
	signup := doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12"}, "")
	require.Equal(t, nethttp.StatusCreated, signup.Code)
	token := sessionFromResponse(t, signup)

	w = doJSON(router, "GET", "/dashboard", nil, token)
	assert.Equal(t, nethttp.StatusNotFound, w.Code, "allowed through the gate, no such page")
}

func TestLogoutClearsCookie(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/api/auth/logout", nil, "whatever")
	require.Equal(t, nethttp.StatusOK, w.Code)

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			cleared = c.Value == "" && c.MaxAge < 0
		}
	}
	assert.True(t, cleared, "logout must clear the session cookie")
}

func createTrip(t *testing.T, router *gin.Engine, token, title string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("title", title))
	require.NoError(t, form.WriteField("description", "A spontaneous trip"))
	require.NoError(t, form.WriteField("location", "Lisbon"))
	require.NoError(t, form.WriteField("date", "2026-09-12"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest("POST", "/api/trips", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	if token != "" {
		req.AddCookie(&nethttp.Cookie{Name: SessionCookie, Value: token})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTripsFlow(t *testing.T) {
	router := newTestRouter(t)

	signup := doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12", "name": "Alice"}, "")
	require.Equal(t, nethttp.StatusCreated, signup.Code)
	token := sessionFromResponse(t, signup)

	// creating a trip requires a session
	w := createTrip(t, router, "", "Lisbon weekend")
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code)

	w = createTrip(t, router, token, "Lisbon weekend")
	require.Equal(t, nethttp.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, "GET", "/api/trips", nil, "")
	require.Equal(t, nethttp.StatusOK, w.Code)
	var trips []TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trips))
	require.Len(t, trips, 1)
	assert.Equal(t, "Lisbon weekend", trips[0].Title)
	assert.Equal(t, "Alice", trips[0].Author.Name)
	assert.Equal(t, "alice@x.com", trips[0].Author.Email)
}

func TestDeleteTripOwnership(t *testing.T) {
	router := newTestRouter(t)

	signup := doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12", "name": "Alice"}, "")
	require.Equal(t, nethttp.StatusCreated, signup.Code)
	aliceToken := sessionFromResponse(t, signup)

	signup = doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "bob@x.com", "password": "Abcdef12", "name": "Bob"}, "")
	require.Equal(t, nethttp.StatusCreated, signup.Code)
	bobToken := sessionFromResponse(t, signup)

	w := createTrip(t, router, aliceToken, "Lisbon weekend")
	require.Equal(t, nethttp.StatusCreated, w.Code)
	var created struct {
		Trip TripResponse `json:"trip"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := "/api/trips/" + strconv.FormatInt(created.Trip.ID, 10)

	// someone else's trip looks like it does not exist
	w = doJSON(router, "DELETE", path, nil, bobToken)
	assert.Equal(t, nethttp.StatusNotFound, w.Code)

	w = doJSON(router, "DELETE", path, nil, aliceToken)
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, "GET", "/api/trips", nil, "")
	var trips []TripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trips))
	assert.Empty(t, trips)
}

func TestFollowFlow(t *testing.T) {
	router := newTestRouter(t)

	for _, u := range []struct{ email, name string }{
		{"alice@x.com", "Alice"},
		{"bob@x.com", "Bob"},
	} {
		w := doJSON(router, "POST", "/api/auth/signup",
			map[string]string{"email": u.email, "password": "Abcdef12", "name": u.name}, "")
		require.Equal(t, nethttp.StatusCreated, w.Code)
	}

	login := doJSON(router, "POST", "/api/auth/login",
		map[string]string{"email": "bob@x.com", "password": "Abcdef12"}, "")
	require.Equal(t, nethttp.StatusOK, login.Code)
	bobToken := sessionFromResponse(t, login)

	w := doJSON(router, "POST", "/api/follow",
		map[string]string{"user_email": "alice@x.com", "action": "follow"}, bobToken)
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, "GET", "/api/follow?email=alice@x.com&type=followers", nil, "")
	require.Equal(t, nethttp.StatusOK, w.Code)
	var followers struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &followers))
	assert.Equal(t, 1, followers.Count)

	w = doJSON(router, "POST", "/api/follow",
		map[string]string{"user_email": "alice@x.com", "action": "unfollow"}, bobToken)
	require.Equal(t, nethttp.StatusOK, w.Code)

	w = doJSON(router, "GET", "/api/follow?email=alice@x.com&type=followers", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &followers))
	assert.Equal(t, 0, followers.Count)
}

func TestPublicProfileAggregate(t *testing.T) {
	router := newTestRouter(t)

	signup := doJSON(router, "POST", "/api/auth/signup",
		map[string]string{"email": "alice@x.com", "password": "Abcdef12", "name": "Alice"}, "")
	require.Equal(t, nethttp.StatusCreated, signup.Code)
	token := sessionFromResponse(t, signup)

	w := createTrip(t, router, token, "Lisbon weekend")
	require.Equal(t, nethttp.StatusCreated, w.Code)

	w = doJSON(router, "GET", "/api/profile/alice@x.com", nil, "")
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
	var resp struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Trips     []TripResponse `json:"trips"`
		Followers int            `json:"followers"`
		Following int            `json:"following"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice@x.com", resp.User.Email)
	assert.Len(t, resp.Trips, 1)
	assert.Zero(t, resp.Followers)

	w = doJSON(router, "GET", "/api/profile/nobody@x.com", nil, "")
	assert.Equal(t, nethttp.StatusNotFound, w.Code)
}

func TestMalformedJSONBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
}
