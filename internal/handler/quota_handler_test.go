package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"producer-chat/internal/redisx"
	"producer-chat/internal/services"
	"producer-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotaStatus struct {
	result *redisx.QuotaResult
	err    error
}

func (f *fakeQuotaStatus) Status(_ context.Context, _ string) (*redisx.QuotaResult, error) {
	return f.result, f.err
}

func quotaRequest(identity *services.Identity) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(http.MethodGet, "/api/quota", nil)
	if identity != nil {
		req = req.WithContext(services.WithIdentity(req.Context(), *identity))
	}
	c.Request = req
	return w, c
}

func TestQuotaHandlerGetStatus(t *testing.T) {
	t.Run("reports the remaining window", func(t *testing.T) {
		h := NewQuotaHandler(&fakeQuotaStatus{result: &redisx.QuotaResult{
			Allowed:   true,
			Remaining: 42,
			ResetIn:   90 * time.Second,
			Limit:     100,
		}})
		w, c := quotaRequest(&services.Identity{ID: uuid.New()})

		h.GetStatus(c)
		require.Equal(t, http.StatusOK, w.Code)

		var resp httpdto.Response[httpdto.QuotaStatusResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.False(t, resp.Data.Unlimited)
		assert.Equal(t, 100, resp.Data.Limit)
		assert.Equal(t, 42, resp.Data.Remaining)
		assert.EqualValues(t, 90, resp.Data.ResetSeconds)
	})

	t.Run("no configured cap reads as unlimited", func(t *testing.T) {
		h := NewQuotaHandler(&fakeQuotaStatus{result: &redisx.QuotaResult{
			Allowed:   true,
			Remaining: -1,
		}})
		w, c := quotaRequest(&services.Identity{ID: uuid.New()})

		h.GetStatus(c)
		require.Equal(t, http.StatusOK, w.Code)

		var resp httpdto.Response[httpdto.QuotaStatusResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Unlimited)
	})

	t.Run("backend failure is a 503", func(t *testing.T) {
		h := NewQuotaHandler(&fakeQuotaStatus{err: errors.New("redis down")})
		w, c := quotaRequest(&services.Identity{ID: uuid.New()})

		h.GetStatus(c)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("missing identity is a 401", func(t *testing.T) {
		h := NewQuotaHandler(&fakeQuotaStatus{})
		w, c := quotaRequest(nil)

		h.GetStatus(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
