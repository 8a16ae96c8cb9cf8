package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sponti/internal/auth"
	"sponti/internal/domain"
	"sponti/internal/repository"
	"sponti/internal/service"
	"sponti/internal/storage"
)

const imageURLTTL = time.Hour

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	trips     service.TripService
	follows   service.FollowService
	tokens    *auth.TokenService
	gate      *auth.Gate
	storage   storage.Service
	bucket    string
	keyPrefix string

	cookieSecure bool
	logger       *logrus.Logger
}

func NewHandler(
	users service.UserService,
	trips service.TripService,
	follows service.FollowService,
	tokens *auth.TokenService,
	store storage.Service,
	bucket, keyPrefix string,
	cookieSecure bool,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		users:        users,
		trips:        trips,
		follows:      follows,
		tokens:       tokens,
		gate:         auth.NewGate(tokens),
		storage:      store,
		bucket:       bucket,
		keyPrefix:    keyPrefix,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(PageGateMiddleware(h.gate))

	api := router.Group("/api")
	{
		api.POST("/auth/signup", h.signup)
		api.POST("/auth/login", h.login)
		api.POST("/auth/logout", h.logout)

		api.GET("/trips", h.listTrips)
		api.GET("/profile/:email", h.publicProfile)
		api.GET("/follow", h.listFollows)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authed := api.Group("", RequireUser(h.tokens))
		{
			authed.GET("/profile", h.profile)
			authed.POST("/trips", h.createTrip)
			authed.DELETE("/trips/:id", h.deleteTrip)
			authed.POST("/follow", h.setFollow)
		}
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": userToResponse(user)})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// startSession issues a token for the user and hands it to the client as an
// HTTP-only cookie whose max age matches the token's validity window.
func (h *Handler) startSession(c *gin.Context, user *domain.User) error {
	token, err := h.tokens.Issue(strconv.FormatInt(user.ID, 10))
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(h.tokens.TTL().Seconds()), "/", "", h.cookieSecure, true)
	return nil
}

func (h *Handler) profile(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), AuthUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) publicProfile(c *gin.Context) {
	email := c.Param("email")

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err)
		return
	}

	trips, err := h.trips.ListByAuthor(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err)
		return
	}

	followers, err := h.follows.Followers(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err)
		return
	}
	following, err := h.follows.Following(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]TripResponse, len(trips))
	for i := range trips {
		resp[i] = h.tripToResponse(c, trips[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      userToResponse(user),
		"trips":     resp,
		"followers": len(followers),
		"following": len(following),
	})
}

type TripResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Image       string `json:"image,omitempty"`
	CreatedAt   string `json:"created_at"`
	Author      struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Avatar string `json:"avatar"`
	} `json:"author"`
}

func (h *Handler) createTrip(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")
	location := c.PostForm("location")
	date := c.PostForm("date")

	imageURL, err := h.uploadImage(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	trip, err := h.trips.CreateTrip(c.Request.Context(), service.CreateTripInput{
		AuthorID:    AuthUserID(c),
		Title:       title,
		Description: description,
		Location:    location,
		TripDate:    date,
		ImageURL:    imageURL,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trip": h.tripToResponse(c, *trip)})
}

// uploadImage stores an optional multipart image and returns its s3 location.
// Returns "" when no image was attached or storage is not configured.
func (h *Handler) uploadImage(c *gin.Context) (string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return "", nil // no image attached
	}
	if h.storage == nil || h.bucket == "" {
		return "", errors.New("image storage is not configured")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded image: %w", err)
	}
	defer file.Close()

	key := h.imageKey(fileHeader)
	return h.storage.UploadObject(c.Request.Context(), storage.UploadInput{
		Bucket:      h.bucket,
		Key:         key,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        file,
	})
}

func (h *Handler) imageKey(fileHeader *multipart.FileHeader) string {
	prefix := strings.Trim(h.keyPrefix, "/")
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (h *Handler) listTrips(c *gin.Context) {
	trips, err := h.trips.ListTrips(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]TripResponse, len(trips))
	for i := range trips {
		resp[i] = h.tripToResponse(c, trips[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteTrip(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	trip, err := h.trips.GetTrip(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if trip.AuthorID != AuthUserID(c) {
		h.writeError(c, repository.ErrNotFound)
		return
	}

	var warnings []string
	if bucket, key, ok := splitS3Location(trip.ImageURL); ok && h.storage != nil {
		if err := h.storage.DeleteObject(c.Request.Context(), bucket, key); err != nil {
			warnings = append(warnings, fmt.Sprintf("delete image: %v", err))
		}
	}

	if err := h.trips.DeleteTrip(c.Request.Context(), id, AuthUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}

	resp := gin.H{"deleted": id}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

type followRequest struct {
	UserEmail string `json:"user_email"`
	Action    string `json:"action"`
}

func (h *Handler) setFollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserEmail == "" || (req.Action != "follow" && req.Action != "unfollow") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}

	follower, err := h.users.GetByID(c.Request.Context(), AuthUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if req.Action == "follow" {
		err = h.follows.Follow(c.Request.Context(), req.UserEmail, follower.Email)
	} else {
		err = h.follows.Unfollow(c.Request.Context(), req.UserEmail, follower.Email)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "followed": req.Action == "follow"})
}

func (h *Handler) listFollows(c *gin.Context) {
	email := c.Query("email")
	kind := c.Query("type")
	if email == "" || (kind != "followers" && kind != "following") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid query"})
		return
	}

	var (
		follows []domain.Follow
		err     error
	)
	if kind == "followers" {
		follows, err = h.follows.Followers(c.Request.Context(), email)
	} else {
		follows, err = h.follows.Following(c.Request.Context(), email)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	list := make([]gin.H, len(follows))
	for i, f := range follows {
		list[i] = gin.H{"user_email": f.UserEmail, "follower_email": f.FollowerEmail}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(follows), "list": list})
}

// writeError maps domain errors to HTTP statuses. Validation failures carry
// the rule's message; auth failures stay deliberately vague; everything else
// is logged server-side and reported as a generic 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrMissingTripFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		if h.logger != nil {
			h.logger.WithError(err).Errorf("%s %s failed", c.Request.Method, c.Request.URL.Path)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func userToResponse(user *domain.User) userResponse {
	return userResponse{
		ID:     user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Avatar: user.AvatarURL(),
	}
}

func (h *Handler) tripToResponse(c *gin.Context, trip domain.Trip) TripResponse {
	resp := TripResponse{
		ID:          trip.ID,
		Title:       trip.Title,
		Description: trip.Description,
		Location:    trip.Location,
		Date:        trip.TripDate,
		Image:       h.resolveImageURL(c, trip.ImageURL),
		CreatedAt:   trip.CreatedAt.Format(time.RFC3339),
	}
	resp.Author.Name = trip.AuthorName
	resp.Author.Email = trip.AuthorEmail
	resp.Author.Avatar = "https://i.pravatar.cc/150?u=" + trip.AuthorEmail
	return resp
}

func splitS3Location(location string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(location, "s3://") {
		return "", "", false
	}
	rest := strings.TrimPrefix(location, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// resolveImageURL turns a stored s3:// location into a time-limited download
// URL. Non-s3 locations pass through unchanged.
func (h *Handler) resolveImageURL(c *gin.Context, location string) string {
	if location == "" || !strings.HasPrefix(location, "s3://") {
		return location
	}
	if h.storage == nil {
		return ""
	}

	bucket, key, ok := splitS3Location(location)
	if !ok {
		return ""
	}

	url, err := h.storage.ObjectURL(c.Request.Context(), bucket, key, imageURLTTL)
	if err != nil {
		if h.logger != nil {
			h.logger.WithError(err).Warnf("presign image %s", location)
		}
		return ""
	}
	return url
}
