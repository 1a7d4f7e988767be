package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"minitube/cmd/config"
)

const sessionCookie = "session"

type Claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// GenerateJWT issues the session token consumed by RequireLogin.
func GenerateJWT(username string) (string, error) {
	claims := Claims{
		Username: username,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

func ValidateJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.NewValidationError("invalid token", jwt.ValidationErrorSignatureInvalid)
	}
	return claims, nil
}

// SetSession attaches the token to the response as the session cookie.
func SetSession(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, int((24 * time.Hour).Seconds()), "/", "", false, true)
}

// ClearSession invalidates the session cookie.
func ClearSession(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// RequireLogin resolves the acting user from the session cookie or a Bearer
// header and stores the username in the request context. Requests without a
// valid token are rejected before the handler runs.
func RequireLogin(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Login required"})
			return
		}
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Login required"})
		return
	}
	c.Set("username", claims.Username)
	c.Next()
}

// Username returns the acting username set by RequireLogin.
func Username(c *gin.Context) string {
	return c.GetString("username")
}
