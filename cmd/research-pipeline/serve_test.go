// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/research-pipeline/internal/orchestrator"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

type fakeResearcher struct {
	got types.DepthProfile
	err error
}

func (f *fakeResearcher) Run(ctx context.Context, question string, profile types.DepthProfile) (types.ResearchReport, error) {
	f.got = profile
	state := types.StateDone
	if f.err != nil {
		state = types.StateAborted
	}
	return types.ResearchReport{ID: "r-1", Query: question, DepthProfile: profile, State: state}, f.err
}

func TestServeResearch(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantStatus  int
		wantProfile string
	}{
		{"default profile", `{"question":"robot market"}`, nil, http.StatusOK, types.ProfileStandard},
		{"named profile", `{"question":"robot market","profile":"Quick"}`, nil, http.StatusOK, types.ProfileQuick},
		{"budget exhausted", `{"question":"robot market"}`, orchestrator.ErrBudgetExhausted, http.StatusGatewayTimeout, types.ProfileStandard},
		{"missing question", `{"question":"  "}`, nil, http.StatusBadRequest, ""},
		{"unknown profile", `{"question":"x","profile":"huge"}`, nil, http.StatusBadRequest, ""},
		{"bad json", `{`, nil, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &fakeResearcher{err: tt.err}
			h := newHandler(fr, types.DefaultProfiles(), zaptest.NewLogger(t))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/research", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantProfile == "" {
				assert.Contains(t, rec.Body.String(), `"error"`)
				return
			}
			var rep types.ResearchReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
			assert.Equal(t, "robot market", rep.Query)
			assert.Equal(t, tt.wantProfile, fr.got.Name)
		})
	}
}

func TestServeHealthAndMetrics(t *testing.T) {
	h := newHandler(&fakeResearcher{}, types.DefaultProfiles(), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/research", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
