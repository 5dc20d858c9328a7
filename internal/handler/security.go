package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/freshbowl/internal/domain/auth"
)

// APIKeyAuth returns a middleware that authenticates operations routes via
// HMAC-SHA256 hashed API keys carried in the api_key header. The stored hash
// is compared in constant time to guard against timing side-channels even
// after the lookup has matched.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) gin.HandlerFunc {
	unauthorized := errorResponse{
		Code:    http.StatusUnauthorized,
		Message: "unauthorized",
	}

	return func(c *gin.Context) {
		key := c.GetHeader("api_key")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		mac := hmac.New(sha256.New, pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := apikeys.FindByHash(c.Request.Context(), hex.EncodeToString(hash))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		c.Next()
	}
}
