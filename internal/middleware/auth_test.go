package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AuthRequired(testSecret), func(c *fiber.Ctx) error {
		userID, _ := UserID(c)
		return c.JSON(fiber.Map{"userID": userID})
	})

	valid, err := IssueToken(testSecret, 123, "alice", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, 123, "alice", -time.Hour)
	require.NoError(t, err)
	otherSecret, err := IssueToken("another-secret-another-secret-another", 123, "alice", time.Hour)
	require.NoError(t, err)

	wrongIssuer := signed(t, jwt.MapClaims{
		"sub": "123", "iss": "someone-else", "aud": TokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noAudience := signed(t, jwt.MapClaims{
		"sub": "123", "iss": TokenIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	numericSub := signed(t, jwt.MapClaims{
		"sub": 123, "iss": TokenIssuer, "aud": TokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{name: "Happy Path", authHeader: "Bearer " + valid, expectedStatus: http.StatusOK, expectedUserID: 123},
		{name: "Missing Header", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid Format", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed Token", authHeader: "Bearer malformed.token.here", expectedStatus: http.StatusUnauthorized},
		{name: "Expired Token", authHeader: "Bearer " + expired, expectedStatus: http.StatusUnauthorized},
		{name: "Wrong Secret", authHeader: "Bearer " + otherSecret, expectedStatus: http.StatusUnauthorized},
		{name: "Wrong Issuer", authHeader: "Bearer " + wrongIssuer, expectedStatus: http.StatusUnauthorized},
		{name: "Missing Audience", authHeader: "Bearer " + noAudience, expectedStatus: http.StatusUnauthorized},
		{name: "Numeric Subject", authHeader: "Bearer " + numericSub, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			} else {
				assert.Equal(t, "UNAUTHORIZED", body["code"])
			}
		})
	}
}

func TestIssueToken_Claims(t *testing.T) {
	token, err := IssueToken(testSecret, 42, "alice", time.Hour)
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, strconv.Itoa(42), claims["sub"])
	assert.Equal(t, TokenIssuer, claims["iss"])
	assert.Equal(t, TokenAudience, claims["aud"])
	assert.NotEmpty(t, claims["jti"])

	_, err = IssueToken("", 42, "alice", time.Hour)
	assert.Error(t, err)
}
