package opshttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	vcfg "vigil/internal/config"
	"vigil/internal/state"
	"vigil/internal/store/audit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct{ rec *state.Record }

func (f *fakeEngine) LastState() *state.Record { return f.rec }

type fakeAudit struct{ entries []audit.Entry }

func (f *fakeAudit) Recent(ctx context.Context, limit int) ([]audit.Entry, error) {
	return f.entries, nil
}

type fakeKill struct{ engaged bool }

func (f *fakeKill) Engaged() bool { return f.engaged }
func (f *fakeKill) Engage() error { f.engaged = true; return nil }
func (f *fakeKill) Clear() error  { f.engaged = false; return nil }

// stuckKill accepts Engage but never flips, like a broken backing store.
type stuckKill struct{}

func (stuckKill) Engaged() bool { return false }
func (stuckKill) Engage() error { return nil }
func (stuckKill) Clear() error  { return nil }

func newTestRouter(engine EngineReader, auditReader AuditReader, kill KillSwitch) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewRouter(engine, auditReader, kill).Register(r.Group("/api"))
	return r
}

func TestStateEndpoint(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := state.NewRecord(now)
	rec.NoteTradeExecuted(now)
	router := newTestRouter(&fakeEngine{rec: rec}, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(1), got["trades_executed_today"])
	assert.Equal(t, "2026-03-01", got["day_key"])
}

func TestStateEndpointBeforeFirstTick(t *testing.T) {
	router := newTestRouter(&fakeEngine{}, nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDecisionsEndpoint(t *testing.T) {
	sink := &fakeAudit{entries: []audit.Entry{{TraceID: "t-1", TradeAction: "buy"}}}
	router := newTestRouter(&fakeEngine{rec: state.NewRecord(time.Now())}, sink, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/decisions?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "t-1")
}

func TestKillSwitchEndpoints(t *testing.T) {
	kill := &fakeKill{}
	router := newTestRouter(&fakeEngine{rec: state.NewRecord(time.Now())}, nil, kill)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/killswitch", strings.NewReader(`{"engaged":true}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, kill.engaged)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/killswitch", nil))
	assert.Contains(t, w.Body.String(), "true")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/killswitch", strings.NewReader(`{"engaged":false}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, kill.engaged)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/killswitch", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKillSwitchSetWithoutSentinelPath(t *testing.T) {
	kill, err := vcfg.NewKillSwitch("")
	require.NoError(t, err)
	defer kill.Close()
	router := newTestRouter(&fakeEngine{rec: state.NewRecord(time.Now())}, nil, kill)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/killswitch", strings.NewReader(`{"engaged":true}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, kill.Engaged())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/killswitch", strings.NewReader(`{"engaged":false}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, kill.Engaged())
}

func TestKillSwitchSetReportsUnappliedState(t *testing.T) {
	router := newTestRouter(&fakeEngine{rec: state.NewRecord(time.Now())}, nil, stuckKill{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/killswitch", strings.NewReader(`{"engaged":true}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "did not apply")
}

func TestBreakerEndpoint(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := state.NewRecord(now)
	rec.ChannelFailures["telegram"] = 2
	rec.ChannelDisabledUntilMs["telegram"] = now.Add(time.Hour).UnixMilli()
	router := newTestRouter(&fakeEngine{rec: rec}, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/breaker", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "telegram")
}
