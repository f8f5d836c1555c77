package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/meshpeer/internal/config"
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DBPath:      filepath.Join(dir, "mpm.db"),
		PcapPath:    filepath.Join(dir, "handshake.pcap"),
		MeshID:      "mesh-A",
		Transmitter: "02:00:00:00:00:01",
		Peer:        "02:00:00:00:00:02",
	}
}

func TestGenerateThenDecode(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.OpenStore())

	n, err := a.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	summary, err := a.Decode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecodeSummary{Packets: 3, Observations: 3, Saved: 3}, summary)

	obs, err := a.Store.ListObservations(domain.PeeringFilter{})
	require.NoError(t, err)
	require.Len(t, obs, 3)

	kinds := map[string]domain.PeeringObservation{}
	for _, o := range obs {
		kinds[o.Kind] = o
		assert.Equal(t, cfg.Transmitter, o.Transmitter)
		assert.Equal(t, cfg.Peer, o.Receiver)
	}
	assert.Equal(t, "mesh-A", kinds["open"].MeshID)
	assert.True(t, kinds["open"].HasExtRates)
	assert.Len(t, kinds["open"].Rates, 10)
	assert.Equal(t, uint16(1), kinds["confirm"].AID)
	assert.Equal(t, "mesh-A", kinds["close"].MeshID)

	peers, err := a.Store.ListPeers("mesh-A")
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.Transmitter}, peers)
}

func TestDecode_WithoutStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = ""
	cfg.Interval = time.Millisecond

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.OpenStore())
	assert.Nil(t, a.Store)

	_, err = a.Generate(context.Background())
	require.NoError(t, err)

	summary, err := a.Decode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Observations)
	assert.NoError(t, a.Close())
}

func TestNoSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.PcapPath = ""
	cfg.DBPath = ""

	a, err := New(cfg)
	require.NoError(t, err)

	_, err = a.Generate(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
	_, err = a.Decode(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestHandshakeBodies(t *testing.T) {
	bodies, err := HandshakeBodies("mesh-A", 9)
	require.NoError(t, err)
	require.Len(t, bodies, 3)

	for _, b := range bodies {
		data, err := b.Serialize()
		require.NoError(t, err)
		assert.Equal(t, b.SerializedSize(), len(data))
	}

	_, err = HandshakeBodies("this mesh id is far too long to fit", 1)
	assert.Error(t, err)
}

func TestNew_DoesNotOpenStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "mpm.db")

	a, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, a.Store)

	_, err = a.Generate(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Dir(cfg.DBPath))
	assert.True(t, os.IsNotExist(err), "gen must not create the database")

	require.NoError(t, a.OpenStore())
	assert.NotNil(t, a.Store)
	assert.NoError(t, a.Close())
}

func TestDecode_Filter(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = ""

	a, err := New(cfg)
	require.NoError(t, err)
	_, err = a.Generate(context.Background())
	require.NoError(t, err)

	cfg.FilterKind = domain.KindConfirm
	summary, err := a.Decode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecodeSummary{Packets: 3, Observations: 1, Filtered: 2}, summary)

	cfg.FilterKind = ""
	cfg.FilterMeshID = "other-mesh"
	summary, err = a.Decode(context.Background())
	require.NoError(t, err)
	// Confirm frames carry no mesh ID, so every frame is filtered out.
	assert.Equal(t, 0, summary.Observations)
	assert.Equal(t, 3, summary.Filtered)
}
