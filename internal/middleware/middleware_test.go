package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockProfileService
type MockProfileService struct {
	AuthenticateFunc func(ctx context.Context, externalID string) (*models.UserProfile, error)
}

func (m *MockProfileService) Authenticate(ctx context.Context, externalID string) (*models.UserProfile, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, externalID)
	}
	return nil, service.ErrUnauthorized
}

func (m *MockProfileService) UpsertProfile(context.Context, service.ProfileInput) (*models.UserProfile, error) {
	return nil, errors.New("not implemented")
}

func (m *MockProfileService) GetProfile(context.Context, uuid.UUID) (*models.UserProfile, error) {
	return nil, errors.New("not implemented")
}

func (m *MockProfileService) SetStatus(context.Context, uuid.UUID, models.UserStatus) error {
	return errors.New("not implemented")
}

func newTestRouter(profiles service.ProfileService) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.NewNop()))
	r.GET("/whoami", ActorRequired(profiles, zap.NewNop()), func(c *gin.Context) {
		uid, ok := service.UserIDFromContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		role, _ := service.RoleFromContext(c.Request.Context())
		p, _ := ProfileFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id": uid.String(),
			"role":    string(role),
			"ctx_id":  c.GetString(CtxUserID),
			"email":   p.Email,
		})
	})
	return r
}

func TestActorRequired(t *testing.T) {
	profile := &models.UserProfile{ID: uuid.New(), ExternalID: "ext-1", Email: "w@example.com", Role: models.UserRoleWarehouse}
	profiles := &MockProfileService{
		AuthenticateFunc: func(_ context.Context, externalID string) (*models.UserProfile, error) {
			switch externalID {
			case "ext-1":
				return profile, nil
			case "ext-blocked":
				return nil, service.ErrUserBlocked
			case "ext-broken":
				return nil, errors.New("db down")
			}
			return nil, service.ErrUnauthorized
		},
	}
	r := newTestRouter(profiles)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"unknown user", "ext-404", http.StatusUnauthorized},
		{"blocked user", "ext-blocked", http.StatusForbidden},
		{"lookup failure", "ext-broken", http.StatusInternalServerError},
		{"ok", "ext-1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), profile.ID.String())
				assert.Contains(t, w.Body.String(), `"role":"warehouse"`)
				assert.Contains(t, w.Body.String(), "w@example.com")
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(&MockProfileService{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderRequestID, "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "rid-123", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	assert.NoError(t, err, "generated request id is a uuid")
}
