package decision

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidequest-campus/gatekeeper/internal/http/response"
	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// GateFake возвращает заранее заданное решение.
type GateFake struct {
	decision models.AccessDecision
}

func (g *GateFake) Current() models.AccessDecision {
	return g.decision
}

func TestDecisionHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name     string
		decision models.AccessDecision
	}{
		{
			name:     "loading",
			decision: models.AccessDecision{Mode: models.ModeLoading},
		},
		{
			name: "update required",
			decision: models.AccessDecision{
				Mode:      models.ModeUpdateRequired,
				UpdateURL: "https://campus.app/apk",
			},
		},
		{
			name:     "unauthenticated",
			decision: models.AccessDecision{Mode: models.ModeUnauthenticated},
		},
		{
			name: "authenticated standard with incomplete profile",
			decision: models.AccessDecision{
				Mode:            models.ModeAuthenticated,
				Role:            models.RoleStandard,
				ProfileComplete: false,
				UserUID:         "uid-1",
				UserEmail:       "student@campus.app",
			},
		},
		{
			name: "authenticated admin",
			decision: models.AccessDecision{
				Mode:            models.ModeAuthenticated,
				Role:            models.RoleAdmin,
				ProfileComplete: true,
				UserUID:         "uid-admin",
				UserEmail:       "9066282034@campus.app",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(logger, &GateFake{decision: tt.decision})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/access/decision", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)

			var resp struct {
				Status string                `json:"status"`
				Data   models.AccessDecision `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, response.StatusOK, resp.Status)
			assert.Equal(t, tt.decision, resp.Data)
		})
	}
}
