package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/repository"
	"github.com/rongwang/finance-cockpit/internal/session"
	"github.com/rongwang/finance-cockpit/internal/utils"
)

const (
	// ClientCookieName holds the signed per-browser client id
	ClientCookieName = "cockpit_client"
	// LoginPath is where unauthenticated browsers are sent
	LoginPath = "/login"

	clientCookieMaxAge = 365 * 24 * time.Hour

	contextKeyClientID = "clientId"
	contextKeySession  = "session"
)

// CORSMiddleware allows the browser front end to call the API with credentials.
// An empty origin list allows any origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Accept")
	corsConfig.AddExposeHeaders("Content-Length", "Location")
	corsConfig.AllowCredentials = true
	return cors.New(corsConfig)
}

// ClientMiddleware identifies the browser by a signed cookie, issuing one when
// it is missing or does not verify. The id only scopes stored state; it grants nothing.
func ClientMiddleware(secret []byte, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(ClientCookieName); err == nil {
			if clientID, err := parseClientToken(raw, secret); err == nil {
				c.Set(contextKeyClientID, clientID)
				c.Next()
				return
			}
		}

		clientID := uuid.New().String()
		token, err := signClientToken(clientID, secret)
		if err != nil {
			utils.LogError(logger, "api", "ClientMiddleware", "sign client token", nil, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Status:  "error",
				Code:    "INTERNAL_ERROR",
				Message: "Failed to identify client",
			})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(ClientCookieName, token, int(clientCookieMaxAge.Seconds()), "/", "", false, true)
		c.Set(contextKeyClientID, clientID)
		c.Next()
	}
}

func signClientToken(clientID string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  clientID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	})
	return token.SignedString(secret)
}

func parseClientToken(raw string, secret []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid client token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", errors.New("invalid client id in token")
	}
	return id.String(), nil
}

// SessionMiddleware restores the session of the current client from repo
func SessionMiddleware(repo repository.Repository, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString(contextKeyClientID)
		store := session.NewStore(repository.ForClient(repo, clientID))

		if err := store.Init(c.Request.Context()); err != nil {
			utils.LogError(logger, "api", "SessionMiddleware", "restore session", clientID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Status:  "error",
				Code:    "STORAGE_ERROR",
				Message: "Failed to read session",
			})
			return
		}

		c.Set(contextKeySession, store)
		c.Next()
	}
}

// RequireSession turns away requests without a logged in session.
// Browsers asking for HTML are redirected to the login page, API callers get a 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if store := sessionFrom(c); store != nil && store.Authenticated() {
			c.Next()
			return
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Header("Location", LoginPath)
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
			Status:  "error",
			Code:    "UNAUTHORIZED",
			Message: "Authentication required",
		})
	}
}

func sessionFrom(c *gin.Context) *session.Store {
	v, ok := c.Get(contextKeySession)
	if !ok {
		return nil
	}
	store, _ := v.(*session.Store)
	return store
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), gin.MIMEHTML)
}
