package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/claimguard/internal/app"
	"github.com/templui/claimguard/internal/config"
	"github.com/templui/claimguard/internal/inference"
	"github.com/templui/claimguard/internal/model"
	"github.com/templui/claimguard/internal/routes"
)

type scoreAnalyzer struct {
	score float64
	err   error
}

func (a *scoreAnalyzer) Analyze(context.Context, []byte) (inference.Result, error) {
	if a.err != nil {
		return inference.Result{}, a.err
	}
	return inference.Result{Score: a.score, ClassIndex: 1, Raw: []float64{1 - a.score, a.score}}, nil
}

type testServer struct {
	t        *testing.T
	srv      *httptest.Server
	app      *app.App
	analyzer *scoreAnalyzer
	ip       atomic.Int64
}

func newTestServer(t *testing.T, handle func(inference.Analyzer) *inference.Handle) *testServer {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		AppName:          "ClaimGuard",
		AppEnv:           "development",
		AppVersion:       "test",
		DBDriver:         "sqlite",
		DBConnection:     filepath.Join(dir, "claims.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		JWTSecret:        "test-secret-that-is-long-enough-for-hs256",
		JWTExpiry:        time.Hour,
		TrustedProxies:   []string{"127.0.0.1", "::1"},
		StorageDriver:    "local",
		UploadDir:        filepath.Join(dir, "uploads"),
		MaxUploadSize:    1 << 20,
		MaxBatchImages:   10,
		InferenceTimeout: 5 * time.Second,
	}

	analyzer := &scoreAnalyzer{score: 0.9}
	a, err := app.New(context.Background(), cfg, app.Options{Model: handle(analyzer)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(routes.SetupRoutes(a))
	t.Cleanup(srv.Close)

	return &testServer{t: t, srv: srv, app: a, analyzer: analyzer}
}

func withModel(t *testing.T) *testServer {
	return newTestServer(t, func(a inference.Analyzer) *inference.Handle { return inference.Static(a) })
}

func (s *testServer) do(method, path, token, contentType string, body io.Reader) *http.Response {
	s.t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, body)
	require.NoError(s.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	// Spread requests over addresses so the auth limiter does not trip
	n := s.ip.Add(1)
	req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", n/250, n%250+1))

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *testServer) doJSON(method, path, token string, body any) *http.Response {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	return s.do(method, path, token, "application/json", r)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) register(name, role string) string {
	s.t.Helper()
	resp := s.doJSON(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		"password": "correct horse battery staple",
		"role":     role,
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode)
	return decode[map[string]any](s.t, resp)["access_token"].(string)
}

// admin inserts an admin directly; admins cannot self-register.
func (s *testServer) admin() string {
	s.t.Helper()
	now := time.Now().UTC()
	u := &model.User{ID: uuid.New().String(), Name: "Ada Admin", Email: "ada@example.com", Role: model.RoleAdmin, CreatedAt: now, UpdatedAt: now}
	require.NoError(s.t, s.app.Store.Users().Create(context.Background(), u))

	token, _, err := s.app.AuthService.GenerateJWT(u)
	require.NoError(s.t, err)
	return token
}

type file struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...file) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

func claimFields() map[string]string {
	return map[string]string{
		"claimant_name": "Olivia Owner",
		"vehicle_make":  "Toyota",
		"vehicle_model": "Corolla",
		"vehicle_year":  "2019",
		"vehicle_vin":   "JTDBR32E720123456",
		"incident_date": "2024-05-10",
		"location":      "Main St",
		"description":   "Rear-ended at a light",
		"policy_number": "POL-123",
		"policy_type":   "comprehensive",
	}
}

func (s *testServer) createClaim(token string, files ...file) (*http.Response, map[string]any) {
	s.t.Helper()
	ct, body := multipartBody(s.t, claimFields(), files...)
	resp := s.do(http.MethodPost, "/api/claims", token, ct, body)
	if resp.StatusCode != http.StatusCreated {
		return resp, nil
	}
	return resp, decode[map[string]any](s.t, resp)
}

func TestHealthAndRoot(t *testing.T) {
	s := withModel(t)

	resp := s.do(http.MethodGet, "/health", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["model_loaded"])
	assert.Equal(t, "connected", body["database"])

	resp = s.do(http.MethodGet, "/", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ClaimGuard", decode[map[string]any](t, resp)["message"])

	resp = s.do(http.MethodGet, "/nope", "", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	s := withModel(t)
	token := s.register("Jane Doe", "")

	resp := s.do(http.MethodGet, "/api/auth/me", token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, resp)
	assert.Equal(t, "jane.doe@example.com", me["email"])
	assert.Equal(t, model.RoleOwner, me["role"])
	assert.NotContains(t, me, "password_hash")

	resp = s.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane.doe@example.com", "password": "correct horse battery staple",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[map[string]any](t, resp)
	assert.Equal(t, "bearer", login["token_type"])
	assert.NotEmpty(t, login["access_token"])

	resp = s.doJSON(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane.doe@example.com", "password": "wrong horse battery staple",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.doJSON(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Jane Again", "email": "jane.doe@example.com", "password": "correct horse battery staple",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.doJSON(http.MethodPatch, "/api/auth/me", token, map[string]string{"name": "Jane Q. Doe"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Jane Q. Doe", decode[map[string]any](t, resp)["name"])

	resp = s.do(http.MethodGet, "/api/auth/me", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = s.do(http.MethodGet, "/api/claims", "garbage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateClaim_NoImages(t *testing.T) {
	s := withModel(t)
	token := s.register("Olivia Owner", "")

	resp, claim := s.createClaim(token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Regexp(t, `^CLM-\d{8}-[0-9A-F]{8}$`, claim["claim_number"])
	assert.Equal(t, "pending", claim["status"])
	assert.NotContains(t, claim, "damage_type")
	require.Contains(t, claim, "ai_analysis")
	assert.Nil(t, claim["ai_analysis"])
	assert.Equal(t, []any{}, claim["images"])
	assert.Equal(t, []any{}, claim["comments"])

	vehicle := claim["vehicle_info"].(map[string]any)
	assert.Equal(t, "Toyota", vehicle["make"])
	assert.Equal(t, float64(2019), vehicle["year"])
	assert.Equal(t, "JTDBR32E720123456", vehicle["vin"])
}

func TestCreateClaim_WithImage(t *testing.T) {
	s := withModel(t)
	token := s.register("Olivia Owner", "")

	resp, claim := s.createClaim(token,
		file{"images", "a.jpg", []byte("first")},
		file{"images", "b.png", []byte("second")},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	analysis := claim["ai_analysis"].(map[string]any)
	assert.Equal(t, "high", analysis["fraud_risk"])
	assert.Equal(t, float64(15000), analysis["estimated_cost"])
	assert.Equal(t, "severe", analysis["damage_severity"])
	assert.Equal(t, false, analysis["is_real_image"])
	assert.Equal(t, map[string]any{"gps_match": true, "time_match": true, "vin_match": true}, analysis["verification_checks"])
	assert.Equal(t, "severe", claim["damage_type"])

	images := claim["images"].([]any)
	require.Len(t, images, 2)
	assert.True(t, strings.HasSuffix(images[0].(string), ".jpg"))
	assert.True(t, strings.HasSuffix(images[1].(string), ".png"))

	// Stored images are served from /uploads
	resp = s.do(http.MethodGet, "/uploads/"+images[0].(string), "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	// Upload directories are never listed
	for _, dir := range []string{"/uploads/", "/uploads/claims/", "/uploads/claims"} {
		resp = s.do(http.MethodGet, dir, "", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, dir)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotContains(t, string(body), path.Base(images[0].(string)), dir)
	}
}

func TestCreateClaim_InferenceFailure(t *testing.T) {
	s := withModel(t)
	s.analyzer.err = inference.ErrDecode
	token := s.register("Olivia Owner", "")

	resp, claim := s.createClaim(token, file{"images", "a.jpg", []byte("not an image")})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Contains(t, claim, "ai_analysis")
	assert.Nil(t, claim["ai_analysis"])
	assert.NotContains(t, claim, "damage_type")
}

func TestCreateClaim_Rejections(t *testing.T) {
	s := withModel(t)
	token := s.register("Olivia Owner", "")

	resp, _ := s.createClaim(token, file{"images", "a.gif", []byte("x")})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], ".gif")

	fields := claimFields()
	fields["vehicle_year"] = "1800"
	ct, body := multipartBody(t, fields)
	resp = s.do(http.MethodPost, "/api/claims", token, ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	fields["vehicle_year"] = "soon"
	ct, body = multipartBody(t, fields)
	resp = s.do(http.MethodPost, "/api/claims", token, ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.createClaim(token, file{"images", "big.jpg", make([]byte, 1<<20+1)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/claims", token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]any](t, resp))

	resp, _ = s.createClaim("")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestClaimAccess(t *testing.T) {
	s := withModel(t)
	owner := s.register("Olivia Owner", "")
	other := s.register("Oscar Other", "")
	agent := s.register("Alex Agent", model.RoleAgent)
	admin := s.admin()

	_, claim := s.createClaim(owner)
	id := claim["id"].(string)
	path := "/api/claims/" + id

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, owner, "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, admin, "", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, other, "", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, agent, "", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/claims/missing", other, "", nil).StatusCode)

	// Listing is owner scoped for every role
	resp := s.do(http.MethodGet, "/api/claims", admin, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]any](t, resp))

	resp = s.do(http.MethodGet, "/api/claims?status=pending&limit=5", owner, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]any](t, resp), 1)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/claims?status=closed", owner, "", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/claims?limit=ten", owner, "", nil).StatusCode)

	// Updates are for agents and admins
	assert.Equal(t, http.StatusForbidden, s.doJSON(http.MethodPut, path, owner, map[string]string{"status": "approved"}).StatusCode)

	resp = s.doJSON(http.MethodPut, path, agent, map[string]string{"status": "approved", "damage_type": "minor"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[map[string]any](t, resp)
	assert.Equal(t, "approved", updated["status"])
	assert.Equal(t, "minor", updated["damage_type"])

	assert.Equal(t, http.StatusBadRequest, s.doJSON(http.MethodPut, path, agent, map[string]string{"status": "closed"}).StatusCode)
	assert.Equal(t, http.StatusBadRequest, s.doJSON(http.MethodPut, path, agent, map[string]any{"bogus": true}).StatusCode)
	assert.Equal(t, http.StatusNotFound, s.doJSON(http.MethodPut, "/api/claims/missing", agent, map[string]string{"status": "approved"}).StatusCode)

	// Comments
	resp = s.doJSON(http.MethodPost, path+"/comments", agent, map[string]string{"content": "Need the police report"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Alex Agent", decode[map[string]any](t, resp)["author"])
	assert.Equal(t, http.StatusForbidden, s.doJSON(http.MethodPost, path+"/comments", other, map[string]string{"content": "hi"}).StatusCode)

	resp = s.do(http.MethodGet, path, owner, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[map[string]any](t, resp)["comments"], 1)

	// Deletes are for the owner and admins
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, path, agent, "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, path, admin, "", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, owner, "", nil).StatusCode)
}

func TestAnalyzeEndpoints(t *testing.T) {
	s := withModel(t)

	ct, body := multipartBody(t, nil, file{"image", "car.jpg", []byte("img")})
	resp := s.do(http.MethodPost, "/api/analyze/fraud", "", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	a := decode[map[string]any](t, resp)
	assert.Equal(t, "high", a["fraud_risk"])
	assert.Contains(t, a, "verification_checks")

	ct, body = multipartBody(t, nil, file{"image", "car.png", []byte("img")})
	resp = s.do(http.MethodPost, "/api/analyze/damage", "", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ct, body = multipartBody(t, map[string]string{"image_base64": "data:image/jpeg;base64,aW1n"})
	resp = s.do(http.MethodPost, "/api/analyze/fraud/base64", "", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/analyze/fraud/base64", "", "application/x-www-form-urlencoded", strings.NewReader("image_base64=aW1n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ct, body = multipartBody(t, nil)
	resp = s.do(http.MethodPost, "/api/analyze/fraud", "", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	s.analyzer.err = inference.ErrDecode
	ct, body = multipartBody(t, nil, file{"image", "car.jpg", []byte("junk")})
	resp = s.do(http.MethodPost, "/api/analyze/fraud", "", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeBatch(t *testing.T) {
	s := withModel(t)

	files := []file{
		{"images", "1.jpg", []byte("a")},
		{"images", "2.txt", []byte("b")},
		{"images", "3.png", []byte("c")},
	}
	ct, body := multipartBody(t, nil, files...)
	resp := s.do(http.MethodPost, "/api/analyze/batch", "", ct, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]any](t, resp), 2)

	tooMany := make([]file, 11)
	for i := range tooMany {
		tooMany[i] = file{"images", fmt.Sprintf("%d.jpg", i), []byte("x")}
	}
	ct, body = multipartBody(t, nil, tooMany...)
	resp = s.do(http.MethodPost, "/api/analyze/batch", "", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNoModel(t *testing.T) {
	s := newTestServer(t, func(inference.Analyzer) *inference.Handle { return inference.NewHandle(nil) })

	resp := s.do(http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, false, decode[map[string]any](t, resp)["model_loaded"])

	ct, body := multipartBody(t, nil, file{"image", "car.jpg", []byte("img")})
	resp = s.do(http.MethodPost, "/api/analyze/fraud", "", ct, body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ct, body = multipartBody(t, nil, file{"images", "car.jpg", []byte("img")})
	resp = s.do(http.MethodPost, "/api/analyze/batch", "", ct, body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// Claims are still accepted without analysis
	token := s.register("Olivia Owner", "")
	resp, claim := s.createClaim(token, file{"images", "a.jpg", []byte("x")})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Contains(t, claim, "ai_analysis")
	assert.Nil(t, claim["ai_analysis"])
}
