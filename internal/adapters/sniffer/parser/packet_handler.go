package parser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/lcalzada-xor/meshpeer/internal/telemetry"
)

// PacketHandler turns captured Action frames into peering observations.
type PacketHandler struct {
	Debug bool

	// Throttle suppresses repeats of the same transmitter, receiver and kind inside
	// the window. Zero disables throttling.
	Throttle time.Duration

	throttleCache *ShardedCache
	handled       int
}

// pruneEvery is how many packets pass between throttle cache sweeps.
const pruneEvery = 4096

// NewPacketHandler creates a new PacketHandler.
func NewPacketHandler(throttle time.Duration, debug bool) *PacketHandler {
	return &PacketHandler{
		Debug:         debug,
		Throttle:      throttle,
		throttleCache: newShardedCache(),
	}
}

// HandlePacket decodes packet when it carries a mesh peering frame. Frames that are not
// self-protected Open, Confirm or Close actions return nil, nil. A peering frame whose
// body does not decode returns the decode error.
// It is not safe for concurrent use.
func (h *PacketHandler) HandlePacket(packet gopacket.Packet) (obs *domain.PeeringObservation, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered from panic in PacketHandler", "panic", r)
			obs, err = nil, fmt.Errorf("packet handler panic: %v", r)
		}
	}()

	telemetry.PacketsScanned.Inc()
	h.maybePrune()

	dot11, ok := packet.Layer(layers.LayerTypeDot11).(*layers.Dot11)
	if !ok || dot11.Type != layers.Dot11TypeMgmtAction {
		return nil, nil
	}
	actionLayer := packet.Layer(layers.LayerTypeDot11MgmtAction)
	if actionLayer == nil {
		return nil, nil
	}

	action := actionLayer.LayerContents()
	if len(action) < 2 || action[0] != mpm.CategorySelfProtected {
		return nil, nil
	}
	kind := mpm.Kind(action[1])
	if !kind.Valid() {
		return nil, nil
	}

	tx, rx := dot11.Address2.String(), dot11.Address1.String()

	body, n, err := mpm.Decode(kind, action[2:])
	if err != nil {
		telemetry.DecodeErrors.WithLabelValues(kind.String(), mpm.ErrorReason(err)).Inc()
		if h.Debug {
			slog.Debug("peering frame rejected", "kind", kind.String(), "from", tx, "error", err)
		}
		return nil, fmt.Errorf("%s from %s: %w", kind, tx, err)
	}
	telemetry.FramesDecoded.WithLabelValues(kind.String()).Inc()

	if h.Throttle > 0 && h.throttleCache.shouldThrottle(tx+rx+kind.String(), h.Throttle) {
		return nil, nil
	}

	ts := packet.Metadata().Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	o := ToObservation(body, tx, rx, len(packet.Data()), ts)
	trailing := action[2+n:]
	if id, ok := localLinkID(trailing); ok {
		o.HasPeeringMgmt = true
		o.LocalLinkID = id
	}
	if h.Debug {
		slog.Debug("peering frame", "kind", o.Kind, "from", tx, "to", rx, "mesh_id", o.MeshID,
			"body", body.String(), "trailing", elementNames(trailing))
	}
	return &o, nil
}

func (h *PacketHandler) maybePrune() {
	h.handled++
	if h.Throttle > 0 && h.handled%pruneEvery == 0 {
		h.throttleCache.prune(h.Throttle)
	}
}

// elementNames lists the elements found after a decoded body, such as vendor extensions.
func elementNames(data []byte) []string {
	var names []string
	for _, el := range ie.ListIEs(data) {
		names = append(names, ie.TagName(layers.Dot11InformationElementID(el.ID)))
	}
	return names
}
