package injection

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	localMAC, _ = net.ParseMAC("02:00:00:00:00:01")
	peerMAC, _  = net.ParseMAC("02:00:00:00:00:02")
)

func testOpen(t *testing.T) *mpm.OpenBody {
	t.Helper()
	meshID, err := ie.NewMeshID("mesh-A")
	require.NoError(t, err)

	f := mpm.OpenFields{
		Protocol:   ie.NewPeeringProtocol(),
		Capability: mpm.CapESS,
		MeshID:     meshID,
		Config:     ie.DefaultConfiguration(),
	}
	f.SetRates(ie.RateSet{ie.NewRate(6000, true), ie.NewRate(12000, false)})

	body := mpm.NewOpenBody()
	body.SetFields(f)
	return body
}

func testClose(t *testing.T) *mpm.CloseBody {
	t.Helper()
	meshID, err := ie.NewMeshID("mesh-A")
	require.NoError(t, err)

	body := mpm.NewCloseBody()
	body.SetFields(mpm.CloseFields{Protocol: ie.NewPeeringProtocol(), MeshID: meshID})
	return body
}

func decodeFrame(t *testing.T, data []byte) (*layers.RadioTap, *layers.Dot11, []byte) {
	t.Helper()
	packet := gopacket.NewPacket(data, layers.LayerTypeRadioTap, gopacket.Default)

	rt, ok := packet.Layer(layers.LayerTypeRadioTap).(*layers.RadioTap)
	require.True(t, ok, "radiotap layer not found")
	d11, ok := packet.Layer(layers.LayerTypeDot11).(*layers.Dot11)
	require.True(t, ok, "dot11 layer not found")
	action := packet.Layer(layers.LayerTypeDot11MgmtAction)
	require.NotNil(t, action, "action layer not found")

	return rt, d11, action.LayerContents()
}

func TestSerializePeeringFrame(t *testing.T) {
	body := testOpen(t)

	frame, err := SerializePeeringFrame(body, peerMAC, localMAC, localMAC, 42, DefaultRate)
	require.NoError(t, err)

	rt, d11, action := decodeFrame(t, frame)

	t.Run("Radiotap", func(t *testing.T) {
		assert.True(t, rt.Flags.FCS())
		assert.Equal(t, layers.RadioTapRate(DefaultRate), rt.Rate)
	})

	t.Run("Header", func(t *testing.T) {
		assert.Equal(t, layers.Dot11TypeMgmtAction, d11.Type)
		assert.Equal(t, peerMAC.String(), d11.Address1.String())
		assert.Equal(t, localMAC.String(), d11.Address2.String())
		assert.Equal(t, localMAC.String(), d11.Address3.String())
		assert.Equal(t, uint16(42), d11.SequenceNumber)
		assert.True(t, d11.ChecksumValid())
	})

	t.Run("Body", func(t *testing.T) {
		require.GreaterOrEqual(t, len(action), 2)
		assert.Equal(t, mpm.CategorySelfProtected, action[0])
		assert.Equal(t, byte(mpm.KindOpen), action[1])

		decoded, n, err := mpm.Decode(mpm.KindOpen, action[2:])
		require.NoError(t, err)
		assert.Equal(t, len(action)-2, n)
		assert.True(t, body.Equal(decoded.(*mpm.OpenBody)))
	})
}

type bogusBody struct {
	*mpm.CloseBody
}

func (bogusBody) Kind() mpm.Kind { return mpm.Kind(9) }

func TestSerializePeeringFrame_UnknownKind(t *testing.T) {
	_, err := SerializePeeringFrame(bogusBody{testClose(t)}, peerMAC, localMAC, localMAC, 0, DefaultRate)
	assert.ErrorIs(t, err, mpm.ErrUnknownKind)
}

func TestFrameBuilder_SequenceWraps(t *testing.T) {
	b := NewFrameBuilder(localMAC)
	b.seq = maxSequence

	first, err := b.Build(peerMAC, testClose(t))
	require.NoError(t, err)
	second, err := b.Build(peerMAC, testClose(t))
	require.NoError(t, err)

	_, d1, _ := decodeFrame(t, first)
	_, d2, _ := decodeFrame(t, second)
	assert.Equal(t, uint16(maxSequence), d1.SequenceNumber)
	assert.Equal(t, uint16(0), d2.SequenceNumber)
}

func TestInjector_SendSequence(t *testing.T) {
	mock := NewMockInjector()
	inj := NewInjector(mock, localMAC)

	confirm := mpm.NewConfirmBody()
	open := testOpen(t)
	of := open.Fields()
	confirm.SetFields(mpm.ConfirmFields{
		Protocol:   of.Protocol,
		Capability: of.Capability,
		AID:        1,
		Rates:      of.Rates,
		Config:     of.Config,
	})

	n, err := inj.SendSequence(context.Background(), peerMAC, open, confirm, testClose(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	packets := mock.GetPackets()
	require.Len(t, packets, 3)
	for i, want := range []mpm.Kind{mpm.KindOpen, mpm.KindConfirm, mpm.KindClose} {
		_, d11, action := decodeFrame(t, packets[i])
		assert.Equal(t, byte(want), action[1])
		assert.Equal(t, uint16(i), d11.SequenceNumber)
	}

	require.NoError(t, inj.Close())
	assert.True(t, mock.Closed)
}

func TestInjector_CloseError(t *testing.T) {
	mock := NewMockInjector()
	mock.CloseErr = errors.New("flush failed")
	inj := NewInjector(mock, nil)

	assert.ErrorIs(t, inj.Close(), mock.CloseErr)
}

func TestInjector_SendError(t *testing.T) {
	mock := NewMockInjector()
	mock.Err = errors.New("interface down")
	inj := NewInjector(mock, nil)

	assert.NotNil(t, inj.Transmitter())
	n, err := inj.SendSequence(context.Background(), peerMAC, testClose(t))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, mock.Err)
}

func TestInjector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := NewMockInjector()
	n, err := NewInjector(mock, localMAC).SendSequence(ctx, peerMAC, testClose(t))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.GetPackets())
}

func TestRandomMAC(t *testing.T) {
	mac := RandomMAC()
	require.Len(t, mac, 6)
	assert.Equal(t, byte(0x02), mac[0]&0x03)
}
