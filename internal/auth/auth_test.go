package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const userID = "5f0c2b8e-8f3e-4f6c-9a53-2f1d3c4b5a69"

func fixedIssuer(now time.Time) *Issuer {
	iss := NewIssuer("test-secret", time.Hour)
	iss.now = func() time.Time { return now }
	return iss
}

func TestValid(t *testing.T) {
	exp := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want bool
	}{
		{exp.Add(-time.Second), true},
		{exp, false},
		{exp.Add(time.Second), false},
	}
	for _, tt := range tests {
		if got := Valid(tt.now, exp); got != tt.want {
			t.Errorf("Valid(%v, %v) = %v, want %v", tt.now, exp, got, tt.want)
		}
	}
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer(now)

	tok, exp, err := iss.Issue(userID)
	if err != nil {
		t.Fatal(err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Errorf("exp = %v, want %v", exp, now.Add(time.Hour))
	}

	c, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c.UserID != userID || !c.ExpiresAt.Equal(exp) {
		t.Errorf("claims = %+v", c)
	}
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)
	tok, _, err := fixedIssuer(now).Issue(userID)
	if err != nil {
		t.Fatal(err)
	}
	later := fixedIssuer(now.Add(time.Hour))
	if _, err := later.Verify(tok); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify at expiry = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now()
	iss := fixedIssuer(now)

	otherKey, _, _ := NewIssuer("other-secret", time.Hour).Issue(userID)
	badID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": "not-a-uuid", "exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": userID,
	}).SignedString([]byte("test-secret"))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id": userID, "exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))

	for name, tok := range map[string]string{
		"garbage":     "abc.def.ghi",
		"wrong key":   otherKey,
		"bad user id": badID,
		"missing exp": noExp,
		"wrong alg":   hs512,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNoSecret(t *testing.T) {
	iss := NewIssuer("", 0)
	if _, _, err := iss.Issue(userID); !errors.Is(err, ErrNoSecret) {
		t.Errorf("Issue = %v, want ErrNoSecret", err)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := CheckPassword(hash, "correct horse"); err != nil || !ok {
		t.Errorf("CheckPassword(right) = %v, %v", ok, err)
	}
	if ok, err := CheckPassword(hash, "battery staple"); err != nil || ok {
		t.Errorf("CheckPassword(wrong) = %v, %v", ok, err)
	}
	if _, err := CheckPassword("not-a-hash", "x"); err == nil {
		t.Error("CheckPassword(malformed hash) should fail")
	}
	if ok, err := CheckPassword(hash, strings.Repeat("a", MaxPasswordBytes+1)); err != nil || ok {
		t.Errorf("CheckPassword(too long) = %v, %v", ok, err)
	}
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1)); err == nil {
		t.Error("HashPassword(too long) should fail")
	}
}

func TestMiddleware(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	good, _, err := iss.Issue(userID)
	if err != nil {
		t.Fatal(err)
	}

	protected := Middleware(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		if !ok {
			t.Error("user id missing from context")
		}
		_, _ = w.Write([]byte(id))
	}))

	tests := []struct {
		name   string
		header string
		status int
		reason string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing authentication token"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Missing authentication token"},
		{"invalid", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token"},
		{"valid", "Bearer " + good, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + good, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/meals", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK {
				if rec.Body.String() != userID {
					t.Errorf("body = %q, want user id", rec.Body.String())
				}
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.reason {
				t.Errorf("error = %q, want %q", body["error"], tt.reason)
			}
		})
	}
}

func TestMiddlewareWithoutSecret(t *testing.T) {
	h := Middleware(NewIssuer("", 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a secret")
	}))
	req := httptest.NewRequest(http.MethodGet, "/meals", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
