package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyAuth guards the API with the X-API-KEY header. When hashedKey (a
// bcrypt hash, see cmd/hash-api-key) is set it takes precedence over the
// plaintext key; the plaintext comparison is constant-time.
func APIKeyAuth(plainKey, hashedKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.GetHeader("X-API-KEY")
		if !keyAuthorized(clientKey, plainKey, hashedKey) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized. Invalid Gradia API Key.",
			})
			return
		}
		c.Next()
	}
}

func keyAuthorized(clientKey, plainKey, hashedKey string) bool {
	if clientKey == "" {
		return false
	}
	if hashedKey != "" {
		return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(clientKey)) == nil
	}
	if plainKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(clientKey), []byte(plainKey)) == 1
}
