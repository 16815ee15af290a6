package http_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	httpctrl "github.com/secmon-lab/bailiff/pkg/controller/http"
)

var VerifySlackSignature = httpctrl.VerifySlackSignature

// computeSlackSignature computes the Slack signature for testing
func computeSlackSignature(signingSecret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

// Test core signature verification function
func TestVerifySlackSignature(t *testing.T) {
	signingSecret := "test-signing-secret"
	body := []byte("command=%2Fwarrant&text=bob+theft&user_id=U1")

	t.Run("valid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		err := VerifySlackSignature(signingSecret, timestamp, signature, body)
		if err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})

	t.Run("invalid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		invalidSignature := "v0=invalid_signature"

		err := VerifySlackSignature(signingSecret, timestamp, invalidSignature, body)
		if err == nil {
			t.Error("expected error for invalid signature, got nil")
		}
	})

	t.Run("missing timestamp", func(t *testing.T) {
		signature := computeSlackSignature(signingSecret, "123456", string(body))

		err := VerifySlackSignature(signingSecret, "", signature, body)
		if err == nil {
			t.Error("expected error for missing timestamp, got nil")
		}
	})

	t.Run("missing signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)

		err := VerifySlackSignature(signingSecret, timestamp, "", body)
		if err == nil {
			t.Error("expected error for missing signature, got nil")
		}
	})

	t.Run("timestamp too old", func(t *testing.T) {
		// Timestamp 10 minutes ago (should be rejected, limit is 5 minutes)
		oldTimestamp := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
		signature := computeSlackSignature(signingSecret, oldTimestamp, string(body))

		err := VerifySlackSignature(signingSecret, oldTimestamp, signature, body)
		if err == nil {
			t.Error("expected error for old timestamp, got nil")
		}
	})

	t.Run("invalid timestamp format", func(t *testing.T) {
		invalidTimestamp := "not-a-number"
		signature := computeSlackSignature(signingSecret, invalidTimestamp, string(body))

		err := VerifySlackSignature(signingSecret, invalidTimestamp, signature, body)
		if err == nil {
			t.Error("expected error for invalid timestamp format, got nil")
		}
	})

	t.Run("different secret produces different signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature("wrong-secret", timestamp, string(body))

		err := VerifySlackSignature(signingSecret, timestamp, signature, body)
		if err == nil {
			t.Error("expected error when using wrong secret, got nil")
		}
	})

	t.Run("different body produces different signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, "different body")

		err := VerifySlackSignature(signingSecret, timestamp, signature, body)
		if err == nil {
			t.Error("expected error when body doesn't match signature, got nil")
		}
	})
}

// Test middleware
func TestSlackSignatureMiddleware(t *testing.T) {
	signingSecret := "test-signing-secret"
	body := []byte("command=%2Fwarrant&text=bob+theft&user_id=U1")

	t.Run("calls next handler when signature is valid", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", signature)

		rec := httptest.NewRecorder()

		nextCalled := false
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		middleware := httpctrl.SlackSignatureMiddleware(signingSecret)
		middleware(nextHandler).ServeHTTP(rec, req)

		if !nextCalled {
			t.Error("expected next handler to be called, but it wasn't")
		}

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("does not call next handler when signature is invalid", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		invalidSignature := "v0=invalid"

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", invalidSignature)

		rec := httptest.NewRecorder()

		nextCalled := false
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		middleware := httpctrl.SlackSignatureMiddleware(signingSecret)
		middleware(nextHandler).ServeHTTP(rec, req)

		if nextCalled {
			t.Error("expected next handler NOT to be called, but it was")
		}

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("restores request body for next handler", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", signature)

		rec := httptest.NewRecorder()

		var receivedBody []byte
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error
			receivedBody, err = io.ReadAll(r.Body)
			if err != nil {
				t.Fatalf("failed to read body in next handler: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		})

		middleware := httpctrl.SlackSignatureMiddleware(signingSecret)
		middleware(nextHandler).ServeHTTP(rec, req)

		if string(receivedBody) != string(body) {
			t.Errorf("expected body %s, got %s", string(body), string(receivedBody))
		}
	})

	t.Run("handles different signing secrets", func(t *testing.T) {
		correctSecret := "correct-secret"
		wrongSecret := "wrong-secret"

		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(correctSecret, timestamp, string(body))

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", signature)

		rec := httptest.NewRecorder()

		nextCalled := false
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		// Use wrong secret - should fail
		middleware := httpctrl.SlackSignatureMiddleware(wrongSecret)
		middleware(nextHandler).ServeHTTP(rec, req)

		if nextCalled {
			t.Error("expected next handler NOT to be called with wrong secret, but it was")
		}

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})
}
