package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/erise-club/website/apps/api/echo"
	"github.com/erise-club/website/core/admin"
	"github.com/erise-club/website/testutil"
)

func Test_authApi_login(t *testing.T) {
	app := setup(t)
	testutil.CreateAdmin(t, app.adminRepo, "sara", "Gr33n-Energy")

	tests := []httpTest{
		{name: "no body", method: http.MethodPost, path: "/api/login", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidPassword)},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/login",
			body:     marchallObj(t, LoginRequest{Password: "erise2025"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidPassword),
		},
		{
			name: "unknown account", method: http.MethodPost, path: "/api/login",
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: adminPassword}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidPassword),
		},
		{
			name: "numeric password", method: http.MethodPost, path: "/api/login",
			body: []byte(`{"password": 123}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidPassword),
		},
		{
			name: "array password", method: http.MethodPost, path: "/api/login",
			body: []byte(`{"password": ["erise2026"]}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidPassword),
		},
		{
			name: "null password", method: http.MethodPost, path: "/api/login",
			body: []byte(`{"password": null}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidPassword),
		},
		{
			name: "object username", method: http.MethodPost, path: "/api/login",
			body: []byte(`{"username": {"name": "admin"}, "password": "erise2026"}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidPassword),
		},
		{
			name: "malformed body", method: http.MethodPost, path: "/api/login",
			body: []byte(`{"password": `), wantCode: http.StatusBadRequest,
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("success", func(t *testing.T) {
		for _, data := range []LoginRequest{
			{Password: adminPassword},
			{Username: "admin", Password: adminPassword},
			{Username: "Sara", Password: "Gr33n-Energy"},
		} {
			req, rec := newRequest(http.MethodPost, "/api/login", marchallObj(t, data))
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Regexp(t, `^\{"token":"[\w-]+\.[\w-]+\.[\w-]+"\}\n$`, rec.Body.String())
		}
	})

	t.Run("sets last login", func(t *testing.T) {
		app.login(t)
		adm, err := app.adminRepo.GetAdminByUsername(context.Background(), admin.DefaultUsername)
		require.NoError(t, err)
		assert.True(t, adm.LastLogin.Valid)
	})
}

func Test_authMiddleware(t *testing.T) {
	app := setup(t)
	token := app.login(t)
	body := marchallObj(t, map[string]string{
		"title": "t", "date": "d", "time": "h", "location": "l", "image": "i", "description": "x", "status": "s",
	})

	adm, err := app.adminRepo.GetAdminByUsername(context.Background(), admin.DefaultUsername)
	require.NoError(t, err)
	now := time.Now().UTC()
	sign := func(secret string, sess admin.Session) string {
		tkn, err := GenerateToken([]byte(secret), newTestClaims(adm, sess))
		require.NoError(t, err)
		return tkn
	}
	// a well-signed token of a session that was never issued
	forged := sign(app.conf.SecretKey, admin.Session{ID: "e0f4b5f0-1111-4c4c-9b9b-000000000000", AdminID: adm.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

	// a session that exists but whose token is expired
	expiredSess := admin.Session{ID: "e0f4b5f0-2222-4c4c-9b9b-000000000000", AdminID: adm.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, app.adminRepo.CreateSession(context.Background(), expiredSess))
	expired := sign(app.conf.SecretKey, expiredSess)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header"},
		{name: "empty bearer", header: "Bearer "},
		{name: "wrong scheme", header: "Basic " + token},
		{name: "lowercase scheme", header: "bearer " + token},
		{name: "legacy static token", header: "Bearer admin-secret-token"},
		{name: "garbage", header: "Bearer not.a.jwt"},
		{name: "wrong secret", header: "Bearer " + sign("another-secret", admin.Session{ID: "x", AdminID: adm.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)})},
		{name: "unknown session", header: "Bearer " + forged},
		{name: "expired", header: "Bearer " + expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/events", body)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthorized)}, rec)
		})
	}

	// no side effects on rejected requests
	rows, err := app.events.QueryAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	t.Run("valid token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/events", token, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_authApi_logout(t *testing.T) {
	app := setup(t)
	token := app.login(t)
	other := app.login(t)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/logout", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthorized)},
		{name: "logout", method: http.MethodPost, path: "/api/logout", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{name: "token revoked", method: http.MethodDelete, path: "/api/events/1", token: token, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthorized)},
		{name: "other sessions unaffected", method: http.MethodDelete, path: "/api/events/1", token: other, wantCode: http.StatusOK, wantData: marchallObj(t, success)},
	}
	runHTTPTests(t, app, tests)
}

func Test_authApi_refreshToken(t *testing.T) {
	app := setup(t)
	token := app.login(t)

	req, rec := newAuthRequest(http.MethodPost, "/api/token-refresh", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.NotEqual(t, token, resp.Token)

	tests := []httpTest{
		{name: "old token revoked", method: http.MethodDelete, path: "/api/team/1", token: token, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthorized)},
		{name: "new token works", method: http.MethodDelete, path: "/api/team/1", token: resp.Token, wantCode: http.StatusOK, wantData: marchallObj(t, success)},
		{name: "auth required", method: http.MethodPost, path: "/api/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthorized)},
	}
	runHTTPTests(t, app, tests)
}

func newTestClaims(adm admin.Admin, sess admin.Session) *Claims {
	claims := new(Claims)
	claims.Id = sess.ID
	claims.Subject = strconv.FormatInt(adm.ID, 10)
	claims.IssuedAt = sess.CreatedAt.Unix()
	claims.ExpiresAt = sess.ExpiresAt.Unix()
	claims.Username = adm.Username
	return claims
}
