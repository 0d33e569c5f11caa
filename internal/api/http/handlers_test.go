package http

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salih12s/trucksbus-pwa/internal/coordinator"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/store"
	"github.com/salih12s/trucksbus-pwa/internal/worker"
)

func newTestRouter(t *testing.T, withStore bool) (*gin.Engine, *coordinator.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	runtime := worker.New("1.0.0", logging.Nop())

	caps := platform.Capabilities{platform.CapWorker: true}
	var st *store.Store
	if withStore {
		var err error
		st, err = store.Open(filepath.Join(t.TempDir(), "offline.db"), []string{"ads"})
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		caps[platform.CapDurableStorage] = true
	}

	host := platform.NewHost(caps, runtime, nil, nil, nil)
	coord := coordinator.New(coordinator.Options{Host: host, Store: st})

	h := NewHandlers(coord, runtime)
	r := gin.New()
	r.GET("/status", h.Status)
	r.GET("/health", h.Health)
	r.POST("/register", h.Register)
	r.POST("/install", h.Install)
	r.POST("/events/install-offer", h.CaptureInstallOffer)
	r.POST("/offline/:collection", h.Persist)
	r.POST("/sync/:tag", h.RegisterSync)
	r.POST("/worker/deploy", h.DeployWorker)
	return r, coord
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestStatusEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := perform(r, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap coordinator.Snapshot
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &snap))
	assert.False(t, snap.Installable)
	assert.False(t, snap.UpdateAvailable)
}

func TestInstallOfferFlow(t *testing.T) {
	r, coord := newTestRouter(t, false)

	w := perform(r, http.MethodPost, "/events/install-offer", `{"outcome":"accepted"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, coord.Status().Installable)

	w = perform(r, http.MethodPost, "/install", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Accepted bool `json:"accepted"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Accepted)
	assert.False(t, coord.Status().Installable)

	// Second install finds no pending offer.
	w = perform(r, http.MethodPost, "/install", "")
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Accepted)
}

func TestInstallOfferValidation(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := perform(r, http.MethodPost, "/events/install-offer", `{"outcome":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPersistWithoutStorage(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := perform(r, http.MethodPost, "/offline/ads", `{"title":"MAN TGX"}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestPersistStoresRecord(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w := perform(r, http.MethodPost, "/register", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodPost, "/offline/ads", `{"title":"Volvo FH16","price":120000}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Queued     bool   `json:"queued"`
		Collection string `json:"collection"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Queued)
	assert.Equal(t, "ads", resp.Collection)
}

func TestRegisterSyncTag(t *testing.T) {
	r, _ := newTestRouter(t, false)

	perform(r, http.MethodPost, "/register", "")
	w := perform(r, http.MethodPost, "/sync/sync-messages", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeployWorker(t *testing.T) {
	r, _ := newTestRouter(t, false)

	perform(r, http.MethodPost, "/register", "")
	w := perform(r, http.MethodPost, "/worker/deploy", `{"version":"2.0.0"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestDeployWorkerRequiresVersion(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := perform(r, http.MethodPost, "/worker/deploy", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
