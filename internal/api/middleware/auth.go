package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

const (
	// LocalClientID is the key to retrieve the authenticated client id from context
	LocalClientID = "client_id"

	// HeaderAPIKey is accepted as an alternative to "Authorization: Bearer"
	HeaderAPIKey = "X-API-Key"
)

// Auth creates an authentication middleware for a single static API key.
// An empty key disables authentication (local development).
func Auth(apiKey string) fiber.Handler {
	if apiKey == "" {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	expected := sha256.Sum256([]byte(apiKey))
	clientID := "key:" + hashAPIKey(apiKey)[:12]

	return func(c *fiber.Ctx) error {
		presented := extractAPIKey(c)
		if presented == "" {
			return domain.ErrUnauthorized
		}

		// compara os hashes para não vazar o tamanho da chave
		got := sha256.Sum256([]byte(presented))
		if subtle.ConstantTimeCompare(got[:], expected[:]) != 1 {
			return domain.ErrUnauthorized
		}

		c.Locals(LocalClientID, clientID)
		return c.Next()
	}
}

// extractAPIKey reads the key from X-API-Key, falling back to a Bearer token.
// Browsers cannot set headers on a WebSocket handshake, so ?api_key= is accepted too.
func extractAPIKey(c *fiber.Ctx) string {
	if key := strings.TrimSpace(c.Get(HeaderAPIKey)); key != "" {
		return key
	}
	if token := extractBearerToken(c); token != "" {
		return token
	}
	return strings.TrimSpace(c.Query("api_key"))
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// hashAPIKey generates SHA-256 hash of API Key
func hashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

// GetClientID retrieves the authenticated client id, empty when auth is disabled
func GetClientID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalClientID).(string)
	return id
}
