// controllers/auth_controller.go
package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/snapgram_backend/config"
	"github.com/HSouheill/snapgram_backend/middleware"
	"github.com/HSouheill/snapgram_backend/models"
	"github.com/HSouheill/snapgram_backend/repositories"
	"github.com/HSouheill/snapgram_backend/utils"
)

// AuthController contains registration and session logic
type AuthController struct {
	DB              *mongo.Client
	userRepo        *repositories.UserRepository
	logger          *log.Logger
	loginAttempts   map[string]loginAttempt
	loginAttemptsMu sync.RWMutex
}

type loginAttempt struct {
	count       int
	lastAttempt time.Time
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client, userRepo *repositories.UserRepository) *AuthController {
	return &AuthController{
		DB:            db,
		userRepo:      userRepo,
		logger:        log.New(os.Stdout, "auth: ", log.LstdFlags),
		loginAttempts: make(map[string]loginAttempt),
	}
}

// isLoginThrottled reports whether the email has accumulated too many
// recent failures
func (ac *AuthController) isLoginThrottled(email string) bool {
	ac.loginAttemptsMu.RLock()
	defer ac.loginAttemptsMu.RUnlock()

	attempt, exists := ac.loginAttempts[email]
	return exists && attempt.count >= 5 && time.Since(attempt.lastAttempt) < 30*time.Minute
}

// recordFailedLogin increments the failure counter for the email. The
// entry is re-read under the write lock so concurrent failures cannot
// lose increments.
func (ac *AuthController) recordFailedLogin(email string) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()

	attempt := ac.loginAttempts[email]
	attempt.count++
	attempt.lastAttempt = time.Now()
	ac.loginAttempts[email] = attempt
}

func (ac *AuthController) clearLoginAttempts(email string) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()
	delete(ac.loginAttempts, email)
}

// Register handler creates a new account
func (ac *AuthController) Register(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Get user collection
	collection := config.GetCollection(ac.DB, "users")

	// Parse request body
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Something is missing, please check",
		})
	}

	// Sanitize inputs
	username, err := utils.SanitizeUsername(req.Username)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	// Check for an existing account
	count, err := collection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing users",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Try a different email",
		})
	}

	// Never store plaintext
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	now := time.Now()
	user := models.User{
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		Posts:     []primitive.ObjectID{},
		Followers: []primitive.ObjectID{},
		Following: []primitive.ObjectID{},
		Bookmarks: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = collection.InsertOne(ctx, user)
	if err != nil {
		// The unique email index closes the race between the duplicate
		// check above and this insert
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Try a different email",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created successfully",
	})
}

// Login handler checks credentials and issues the session cookie
func (ac *AuthController) Login(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Parse request body
	var loginReq models.LoginRequest
	if err := c.Bind(&loginReq); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&loginReq); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Something is missing, please check",
		})
	}

	email, err := utils.SanitizeEmail(loginReq.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	if ac.isLoginThrottled(email) {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many failed login attempts. Please try again later.",
		})
	}

	// Find user by email
	user, err := ac.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Incorrect email or password",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find user",
		})
	}

	// Check password
	if err := utils.CheckPassword(loginReq.Password, user.Password); err != nil {
		ac.recordFailedLogin(email)

		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Incorrect email or password",
		})
	}

	ac.clearLoginAttempts(email)

	// Generate session token
	token, err := middleware.GenerateJWT(user.ID.Hex(), user.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	// Resolve the user's post references. A post whose stored author no
	// longer matches the user is returned as null rather than dropped.
	resolvedPosts := ac.resolveOwnedPosts(ctx, user)

	loginUser := models.LoginUser{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		Followers:      user.Followers,
		Following:      user.Following,
		Posts:          resolvedPosts,
	}

	ac.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("Welcome back %s", user.Username),
		Data: map[string]interface{}{
			"token": token,
			"user":  loginUser,
		},
	})
}

// resolveOwnedPosts fetches each referenced post and nulls out entries
// whose author does not match the owner
func (ac *AuthController) resolveOwnedPosts(ctx context.Context, user *models.User) []*models.Post {
	posts := make([]*models.Post, 0, len(user.Posts))
	if len(user.Posts) == 0 {
		return posts
	}

	postColl := config.GetCollection(ac.DB, "posts")
	cursor, err := postColl.Find(ctx, bson.M{"_id": bson.M{"$in": user.Posts}})
	if err != nil {
		ac.logger.Printf("Failed to resolve posts for user %s: %v", user.ID.Hex(), err)
		return posts
	}

	found := make(map[primitive.ObjectID]*models.Post, len(user.Posts))
	for cursor.Next(ctx) {
		var post models.Post
		if err := cursor.Decode(&post); err != nil {
			continue
		}
		p := post
		found[post.ID] = &p
	}
	cursor.Close(ctx)

	for _, id := range user.Posts {
		post, ok := found[id]
		if ok && post.Author == user.ID {
			posts = append(posts, post)
		} else {
			posts = append(posts, nil)
		}
	}
	return posts
}

// Logout handler clears the session cookie and revokes the token
func (ac *AuthController) Logout(c echo.Context) error {
	// Revoke the presented token for its remaining lifetime, whether it
	// came from the cookie or the Authorization header
	if token := extractRawToken(c); token != "" {
		middleware.RevokeToken(token, time.Now().Add(middleware.TokenLifetime))
	}

	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// ValidateToken handler lets the frontend check session validity
func (ac *AuthController) ValidateToken(c echo.Context) error {
	token := extractRawToken(c)

	result, err := utils.ValidateToken(token, ac.DB)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to validate token",
		})
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnauthorized
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: result.Message,
		Data:    result,
	})
}

func (ac *AuthController) setSessionCookie(c echo.Context, token string) {
	isProd := os.Getenv("ENV") == "production"

	sameSite := http.SameSiteLaxMode
	if isProd {
		sameSite = http.SameSiteNoneMode
	}

	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(middleware.TokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: sameSite,
	}
	c.SetCookie(cookie)
}

// extractRawToken pulls the raw token out of the cookie or the
// Authorization header without validating it
func extractRawToken(c echo.Context) string {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	auth := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
