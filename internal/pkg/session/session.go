package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/cache"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

const (
	KeyAccessToken  = "access_token_enc"
	KeyRefreshToken = "refresh_token_enc"
	KeyUserJSON     = "user_json"
)

var sessionStore *session.Store

// Sealer encrypts values before they are written to the session.
type Sealer interface {
	Seal(plaintext string) (string, error)
}

func NewSessionStore() *session.Store {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Sessions live in database 1, the cache uses 0
	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
		// The payment handoff must survive its full 24h validity window.
		Expiration: 24 * time.Hour,
		KeyLookup:  "cookie:suede_session",
	})

	return sessionStore
}

// SetSessionStore swaps the package store, e.g. for an in-memory store in tests.
func SetSessionStore(store *session.Store) {
	sessionStore = store
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	if strValue, ok := sess.Get(key).(string); ok {
		return strValue
	}
	return ""
}

// DeleteSessionValue removes a key from the user's session.
func DeleteSessionValue(c *fiber.Ctx, key string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	sess.Delete(key)
	return sess.Save()
}

// SetAuthTokens seals the backend tokens and stores them with the user payload
// so the visitor arrives at the dashboard already signed in.
func SetAuthTokens(c *fiber.Ctx, sealer Sealer, accessToken, refreshToken, userJSON string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}
	if sealer == nil {
		return fmt.Errorf("session encryption key not configured")
	}

	accessEnc, err := sealer.Seal(accessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	refreshEnc := ""
	if refreshToken != "" {
		if refreshEnc, err = sealer.Seal(refreshToken); err != nil {
			return fmt.Errorf("seal refresh token: %w", err)
		}
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	// Fresh id after privilege change
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(KeyAccessToken, accessEnc)
	sess.Set(KeyRefreshToken, refreshEnc)
	sess.Set(KeyUserJSON, userJSON)
	return sess.Save()
}
