package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"device-license.backend/internal/infrastructure/database"
	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/internal/infrastructure/repositories"
	"device-license.backend/internal/interfaces/http/handlers"
	"device-license.backend/internal/interfaces/http/middleware"
	"device-license.backend/internal/interfaces/http/routes"
	"device-license.backend/internal/usecases"
	"device-license.backend/pkg/crypto"
	"device-license.backend/pkg/jwt"
)

const (
	adminEmail    = "ops@example.com"
	adminPassword = "correct horse"
)

// server is the full HTTP stack, mounted by the production route table, over
// an in-memory sqlite database
type server struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	now    time.Time
	token  string
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s := &server{t: t, db: db, now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	clock := usecases.Clock(func() time.Time {
		s.now = s.now.Add(time.Second)
		return s.now
	})
	m := metrics.New()

	codeRepo := repositories.NewAuthorizationCodeRepository(db)
	authRepo := repositories.NewSoftwareAuthorizationRepository(db)
	logRepo := repositories.NewAccessLogRepository(db)

	codes := usecases.NewAuthorizationCodeUsecase(codeRepo, clock, m, 5)
	logs := usecases.NewAccessLogUsecase(logRepo, authRepo, clock, m, 100)
	auths := usecases.NewSoftwareAuthorizationUsecase(authRepo, repositories.NewUnitOfWork(db),
		usecases.NewFingerprintMatcher(authRepo), codes, logs, clock, m)
	software := usecases.NewSoftwareUsecase(repositories.NewSoftwareRepository(db), clock)

	hash, err := crypto.HashPassword(adminPassword)
	require.NoError(t, err)
	adminAuth := usecases.NewAdminAuthUsecase(adminEmail, hash, jwt.NewJWTService("handler-secret", 15*time.Minute, 24*time.Hour), nil)

	r := gin.New()
	routes.RegisterAPIV1(r, routes.Deps{
		AuthHandler:              handlers.NewAuthHandler(adminAuth),
		AuthorizationHandler:     handlers.NewSoftwareAuthorizationHandler(auths, logs),
		AuthorizationCodeHandler: handlers.NewAuthorizationCodeHandler(codes),
		SoftwareHandler:          handlers.NewSoftwareHandler(software),
		AdminAuthMiddleware:      middleware.AdminAuthMiddleware(adminAuth),
		CodeTokenMiddleware:      middleware.CodeTokenMiddleware(codes),
	})

	s.router = r
	return s
}

// do sends body as JSON; headers alternate name, value
func (s *server) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// admin sends an authenticated admin request, logging in on first use
func (s *server) admin(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	if s.token == "" {
		rec := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": adminEmail, "password": adminPassword})
		require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
		var out struct {
			Data struct {
				AccessToken string `json:"access_token"`
			} `json:"data"`
		}
		decode(s.t, rec, &out)
		s.token = out.Data.AccessToken
	}
	return s.do(method, path, body, "Authorization", "Bearer "+s.token)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type envelope struct {
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Fields  map[string]string `json:"fields"`
}

func device(bios, board, cpu string) gin.H {
	return gin.H{
		"software_name":      "Studio",
		"software_version":   "4.2.0",
		"os_version":         "Windows 11",
		"bios_uuid":          bios,
		"motherboard_serial": board,
		"cpu_id":             cpu,
	}
}

// issueCode creates a code through the admin API and returns its id and value
func (s *server) issueCode(name string, body gin.H) (uuid.UUID, string) {
	s.t.Helper()
	if body == nil {
		body = gin.H{}
	}
	body["name"] = name
	rec := s.admin(http.MethodPost, "/api/v1/admin/authorization-codes", body)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Data struct {
			ID   uuid.UUID `json:"id"`
			Code string    `json:"code"`
		} `json:"data"`
	}
	decode(s.t, rec, &out)
	return out.Data.ID, out.Data.Code
}

// onlyAuthorization returns the id of the single listed authorization
func (s *server) onlyAuthorization() uuid.UUID {
	s.t.Helper()
	rec := s.admin(http.MethodGet, "/api/v1/admin/software-authorizations", nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	var out struct {
		Data []struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	decode(s.t, rec, &out)
	require.Len(s.t, out.Data, 1)
	return out.Data[0].ID
}
