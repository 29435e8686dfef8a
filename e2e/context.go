package e2e

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
)

// TestContext carries HTTP state between steps of one scenario.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client

	signingKey string
	issuer     string
	audience   string

	LastResponse     *http.Response
	LastResponseBody []byte
	accounts         map[string]string
	tokens           map[string]string
}

// NewTestContext reads the target server and token settings from the environment.
func NewTestContext() *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(getenv("ESTATE_E2E_BASE_URL", "http://localhost:8080"), "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		signingKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		issuer:     getenv("ESTATE_JWT_ISSUER", "estate"),
		audience:   getenv("ESTATE_JWT_AUDIENCE", "estate-api"),
		accounts:   make(map[string]string),
		tokens:     make(map[string]string),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.LastResponse = nil
	tc.LastResponseBody = nil
	tc.accounts = make(map[string]string)
	tc.tokens = make(map[string]string)
}

// Account returns the hex account the server derives for a seed. Seeds are
// stable across runs, so "gov" stays the governance of a long-lived server.
func (tc *TestContext) Account(name string) string {
	if acct, ok := tc.accounts[name]; ok {
		return acct
	}
	sum := blake2b.Sum256([]byte(name))
	acct := hex.EncodeToString(sum[:])
	tc.accounts[name] = acct
	return acct
}

// TokenFor mints a bearer token for the named account.
func (tc *TestContext) TokenFor(name string) (string, error) {
	if token, ok := tc.tokens[name]; ok {
		return token, nil
	}
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   tc.Account(name),
		Issuer:    tc.issuer,
		Audience:  jwt.ClaimStrings{tc.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
	}).SignedString([]byte(tc.signingKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	tc.tokens[name] = token
	return token, nil
}

// Do sends a request as the named account; an empty name sends no token.
func (tc *TestContext) Do(method, path, as string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		token, err := tc.TokenFor(as)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	return err
}

// StatusCode returns the status of the last response.
func (tc *TestContext) StatusCode() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

// ResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	value, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response %s", field, tc.LastResponseBody)
	}
	return value, nil
}

// DecodeResponse unmarshals the last response body into v.
func (tc *TestContext) DecodeResponse(v any) error {
	return json.Unmarshal(tc.LastResponseBody, v)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
