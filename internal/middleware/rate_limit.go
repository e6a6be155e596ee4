package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ecommerce_back_end/internal/cache"
)

// AttemptCounter est un compteur réinitialisable (Redis ou mémoire).
type AttemptCounter interface {
	cache.Counter
	Delete(ctx context.Context, keys ...string) error
}

func tooManyRequests(c *gin.Context, message string, window time.Duration) {
	c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       message,
		"code":        "RATE_LIMITED",
		"retry_after": int(window.Seconds()),
	})
}

// APIRateLimit limite le nombre de requêtes par IP (général)
func APIRateLimit(counter cache.Counter, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "api_requests:" + c.ClientIP()
		requests, err := counter.Increment(c.Request.Context(), key, window)
		if err != nil {
			// compteur indisponible : la requête passe
			log.Printf("⚠️ Rate limit indisponible: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		remaining := int64(max) - requests
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if requests > int64(max) {
			tooManyRequests(c, fmt.Sprintf("Trop de requêtes. Réessayez dans %d secondes", int(window.Seconds())), window)
			return
		}
		c.Next()
	}
}

// LoginRateLimit limite les tentatives de connexion par email; un login
// réussi remet le compteur à zéro.
func LoginRateLimit(counter AttemptCounter, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Lire le body sans le consommer
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "login_attempts:" + strings.ToLower(strings.TrimSpace(input.Email))
		attempts, err := counter.Increment(ctx, key, window)
		if err != nil {
			log.Printf("⚠️ Compteur de connexion indisponible: %v", err)
			c.Next()
			return
		}
		if attempts > int64(max) {
			log.Printf("⚠️ Trop de tentatives de connexion pour %s", input.Email)
			tooManyRequests(c, fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(window.Minutes())), window)
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			if err := counter.Delete(ctx, key); err != nil {
				log.Printf("⚠️ Réinitialisation du compteur %s: %v", key, err)
			}
		}
	}
}
