package server_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/web"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/web/server"
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeMeshA is a Close body for mesh ID "mesh-A".
var closeMeshA = []byte{74, 1, 0, 114, 6, 'm', 'e', 's', 'h', '-', 'A'}

// setupServer helper creates a server handler backed by a mock store
func setupServer(t *testing.T, withStore bool) (http.Handler, *web.MockObservationStore) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := new(web.MockObservationStore)
	var srv *server.Server
	if withStore {
		srv = server.NewServer(":0", store)
	} else {
		srv = server.NewServer(":0", nil)
	}
	return srv.Handler(ctx), store
}

func do(h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Decode(t *testing.T) {
	h, _ := setupServer(t, false)

	t.Run("HexClose", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/v1/decode/close?format=hex", []byte(hex.EncodeToString(closeMeshA)+"\n"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp handlers.DecodeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "close", resp.Kind)
		assert.Equal(t, 11, resp.Consumed)
		assert.Equal(t, 0, resp.Trailing)
		assert.Equal(t, "mesh-A", resp.Fields.MeshID)
	})

	t.Run("RawWithTrailing", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/v1/decode/close", append(append([]byte{}, closeMeshA...), 0xdd, 0x00))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handlers.DecodeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Trailing)
	})

	t.Run("Truncated", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/v1/decode/close", closeMeshA[:6])
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp handlers.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "truncated", resp.Reason)
		assert.Equal(t, "mesh id", resp.Field)
		require.NotNil(t, resp.Offset)
		assert.Equal(t, 3, *resp.Offset)
	})

	t.Run("Malformed", func(t *testing.T) {
		bad := append([]byte{}, closeMeshA...)
		bad[0] = 0
		rec := do(h, http.MethodPost, "/api/v1/decode/close", bad)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"reason":"malformed"`)
	})

	t.Run("BadHex", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/v1/decode/close?format=hex", []byte("zz"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/v1/decode/beacon", closeMeshA)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("WrongMethod", func(t *testing.T) {
		for _, target := range []string{"/api/v1/decode/close", "/api/v1/encode/open"} {
			rec := do(h, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, target)
		}
		rec := do(h, http.MethodPost, "/api/v1/stream", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServer_Encode(t *testing.T) {
	h, _ := setupServer(t, false)

	t.Run("CloseHex", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/v1/encode/close?format=hex", []byte(`{"mesh_id":"mesh-A"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, hex.EncodeToString(closeMeshA), rec.Body.String())
	})

	t.Run("OpenRoundTrip", func(t *testing.T) {
		payload := `{"capability":1,"rates":[140,18,152,36,176,72,96,108,2,4],"mesh_id":"mesh-A","config":{"path_selection":1,"metric":1,"peerings":2,"capability":9}}`
		rec := do(h, http.MethodPost, "/api/v1/encode/open", []byte(payload))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))

		body, n, err := mpm.Decode(mpm.KindOpen, rec.Body.Bytes())
		require.NoError(t, err)
		assert.Equal(t, rec.Body.Len(), n)

		f := body.(*mpm.OpenBody).Fields()
		assert.Len(t, f.AllRates(), 10)
		require.NotNil(t, f.ExtendedRates)
		assert.Equal(t, uint8(2), f.Config.Formation.NumPeerings)
		assert.Equal(t, "mesh-A", string(f.MeshID.ID))
	})

	t.Run("ConfirmDefaultsConfig", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/v1/encode/confirm", []byte(`{"aid":7,"rates":[140]}`))
		require.Equal(t, http.StatusOK, rec.Code)

		body, _, err := mpm.Decode(mpm.KindConfirm, rec.Body.Bytes())
		require.NoError(t, err)
		f := body.(*mpm.ConfirmBody).Fields()
		assert.Equal(t, uint16(7), f.AID)
		assert.True(t, f.Config.AcceptsPeerings())
	})

	t.Run("Rejected", func(t *testing.T) {
		for _, payload := range []string{
			`{"mesh_id":"` + strings.Repeat("x", 33) + `"}`,
			`{"config":{"peerings":64}}`,
			`not json`,
		} {
			rec := do(h, http.MethodPost, "/api/v1/encode/open", []byte(payload))
			assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
		}
	})
}

func TestServer_Observations(t *testing.T) {
	h, store := setupServer(t, true)

	obs := []domain.PeeringObservation{{
		ID:          "1",
		Kind:        domain.KindOpen,
		Transmitter: "02:00:00:00:00:01",
		MeshID:      "mesh-A",
		Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	store.On("ListObservations", domain.PeeringFilter{MeshID: "mesh-A", Kind: "open", Limit: 500}).Return(obs, nil)
	store.On("ListPeers", "mesh-A").Return([]string{"02:00:00:00:00:01"}, nil)
	store.On("ListObservations", domain.PeeringFilter{Transmitter: "02:0a:00:00:00:01", Limit: 500}).
		Return([]domain.PeeringObservation{}, nil)

	rec := do(h, http.MethodGet, "/api/v1/observations?mesh_id=mesh-A&kind=open", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got []domain.PeeringObservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "02:00:00:00:00:01", got[0].Transmitter)

	// Transmitters are matched in the stored lowercase colon form.
	rec = do(h, http.MethodGet, "/api/v1/observations?transmitter=02-0A-00-00-00-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(h, http.MethodGet, "/api/v1/meshes/mesh-A/peers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "02:00:00:00:00:01")

	for _, target := range []string{
		"/api/v1/observations?kind=beacon",
		"/api/v1/observations?limit=x",
		"/api/v1/observations?since=yesterday",
		"/api/v1/observations?transmitter=nope",
	} {
		rec = do(h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	store.AssertExpectations(t)
}

func TestServer_NoStore(t *testing.T) {
	h, _ := setupServer(t, false)

	rec := do(h, http.MethodGet, "/api/v1/observations", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_MetricsAndHealth(t *testing.T) {
	h, _ := setupServer(t, false)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", nil).Code)
}

func TestServer_Stream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.NewServer(":0", nil)
	ts := httptest.NewServer(srv.Handler(ctx))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream?mesh_id=mesh-A"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Stream.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	srv.Stream.Publish(domain.PeeringObservation{Kind: domain.KindOpen, MeshID: "mesh-B"})
	srv.Stream.Publish(domain.PeeringObservation{Kind: domain.KindClose, MeshID: "mesh-A"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mesh_id":"mesh-A"`)
	assert.Contains(t, string(data), `"kind":"close"`)
}
