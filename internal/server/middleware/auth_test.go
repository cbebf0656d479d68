package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"article-platform/backend/internal/security"
)

type fakeDecoder struct {
	userID string
	err    error
}

func (d *fakeDecoder) DecodeAccess(token string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return d.userID, nil
}

type fakeVerifier struct {
	info *security.RefreshInfo
	err  error
}

func (v *fakeVerifier) VerifyRefresh(ctx context.Context, token string) (*security.RefreshInfo, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.info, nil
}

func TestRequireAccessToken(t *testing.T) {
	cases := []struct {
		name       string
		header     string
		decoder    *fakeDecoder
		wantStatus int
		wantUser   string
	}{
		{"valid token", "Bearer good", &fakeDecoder{userID: "u1"}, fiber.StatusOK, "u1"},
		{"missing header", "", &fakeDecoder{userID: "u1"}, fiber.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", &fakeDecoder{userID: "u1"}, fiber.StatusUnauthorized, ""},
		{"empty token", "Bearer ", &fakeDecoder{userID: "u1"}, fiber.StatusUnauthorized, ""},
		{"rejected token", "Bearer bad", &fakeDecoder{err: security.ErrTokenInvalid}, fiber.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			var gotUser string
			app.Get("/", func(c fiber.Ctx) error {
				gotUser = UserID(c)
				return c.SendStatus(fiber.StatusOK)
			}, RequireAccessToken(tc.decoder))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if gotUser != tc.wantUser {
				t.Errorf("user id = %q, want %q", gotUser, tc.wantUser)
			}
		})
	}
}

func TestRequireRefreshToken(t *testing.T) {
	info := &security.RefreshInfo{UserID: "u1", DeviceID: "d1"}
	cases := []struct {
		name       string
		cookie     string
		verifier   *fakeVerifier
		wantStatus int
	}{
		{"valid cookie", "refresh-token", &fakeVerifier{info: info}, fiber.StatusOK},
		{"missing cookie", "", &fakeVerifier{info: info}, fiber.StatusUnauthorized},
		{"revoked session", "refresh-token", &fakeVerifier{err: errors.New("session not found")}, fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			var gotUser, gotToken string
			app.Post("/", func(c fiber.Ctx) error {
				gotUser = UserID(c)
				gotToken = RefreshToken(c)
				return c.SendStatus(fiber.StatusOK)
			}, RequireRefreshToken(tc.verifier))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: tc.cookie})
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if resp.StatusCode == fiber.StatusOK {
				if gotUser != "u1" || gotToken != tc.cookie {
					t.Errorf("locals = %q/%q, want u1/%q", gotUser, gotToken, tc.cookie)
				}
			}
		})
	}
}
