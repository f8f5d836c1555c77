package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/google/gopacket"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/capture"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/injection"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/parser"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/meshpeer/internal/adapters/web/server"
	"github.com/lcalzada-xor/meshpeer/internal/config"
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/lcalzada-xor/meshpeer/internal/core/ports"
	"github.com/lcalzada-xor/meshpeer/internal/core/services/persistence"
	"github.com/lcalzada-xor/meshpeer/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// persistQueue is the observation queue length ahead of the store writer.
	persistQueue = 1024
	// streamQueue buffers live observations ahead of websocket clients.
	streamQueue = 256
)

// ErrNoSource is returned when neither a pcap file nor an interface is configured.
var ErrNoSource = errors.New("no pcap file or interface configured")

// Application wires the codec, capture, storage and web adapters for one command.
type Application struct {
	Config *config.Config
	Store  ports.ObservationStore // nil until OpenStore, or when persistence is disabled
}

// DecodeSummary counts what a decode run saw.
type DecodeSummary struct {
	Packets      int
	Observations int
	Filtered     int
	Errors       int
	Saved        int
}

// New creates a new Application instance. The store is opened separately by the
// commands that use it.
func New(cfg *config.Config) (*Application, error) {
	telemetry.InitMetrics()
	return &Application{Config: cfg}, nil
}

// OpenStore opens the configured database. An empty DBPath disables persistence.
func (a *Application) OpenStore() error {
	if a.Store != nil || a.Config.DBPath == "" {
		return nil
	}
	store, err := storage.NewSQLiteAdapter(a.Config.DBPath)
	if err != nil {
		return fmt.Errorf("open store %s: %w", a.Config.DBPath, err)
	}
	a.Store = store
	return nil
}

// Close releases the store.
func (a *Application) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// DefaultRates is the 802.11g rate set, basic rates flagged, advertised by generated frames.
func DefaultRates() ie.RateSet {
	return ie.RateSet{
		ie.NewRate(6000, true), ie.NewRate(9000, false),
		ie.NewRate(12000, true), ie.NewRate(18000, false),
		ie.NewRate(24000, true), ie.NewRate(36000, false),
		ie.NewRate(48000, false), ie.NewRate(54000, false),
		ie.NewRate(1000, false), ie.NewRate(2000, false),
	}
}

// HandshakeBodies returns the Open, Confirm and Close bodies of one peering for meshID.
func HandshakeBodies(meshID string, aid uint16) ([]mpm.Body, error) {
	id, err := ie.NewMeshID(meshID)
	if err != nil {
		return nil, err
	}
	rates := DefaultRates()
	capability := mpm.CapESS | mpm.CapShortSlotTime

	of := mpm.OpenFields{
		Protocol:   ie.NewPeeringProtocol(),
		Capability: capability,
		MeshID:     id,
		Config:     ie.DefaultConfiguration(),
	}
	of.SetRates(rates)
	open := mpm.NewOpenBody()
	open.SetFields(of)

	cf := mpm.ConfirmFields{
		Protocol:   ie.NewPeeringProtocol(),
		Capability: capability,
		AID:        aid,
		Config:     ie.DefaultConfiguration(),
	}
	cf.SetRates(rates)
	confirm := mpm.NewConfirmBody()
	confirm.SetFields(cf)

	closeBody := mpm.NewCloseBody()
	closeBody.SetFields(mpm.CloseFields{Protocol: ie.NewPeeringProtocol(), MeshID: id})

	return []mpm.Body{open, confirm, closeBody}, nil
}

func (a *Application) openInjector() (injection.PacketInjector, error) {
	switch {
	case a.Config.PcapPath != "":
		return capture.CreateFile(a.Config.PcapPath)
	case a.Config.Interface != "":
		return injection.NewPcapInjector(a.Config.Interface)
	default:
		return nil, ErrNoSource
	}
}

// Generate sends an Open, Confirm, Close sequence to the configured peer, into the
// pcap file when one is set, otherwise on the interface.
func (a *Application) Generate(ctx context.Context) (int, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "mpm.generate")
	defer span.End()

	peer, err := net.ParseMAC(a.Config.Peer)
	if err != nil {
		return 0, err
	}
	var tx net.HardwareAddr
	if a.Config.Transmitter != "" {
		if tx, err = net.ParseMAC(a.Config.Transmitter); err != nil {
			return 0, err
		}
	}

	bodies, err := HandshakeBodies(a.Config.MeshID, 1)
	if err != nil {
		return 0, err
	}

	mech, err := a.openInjector()
	if err != nil {
		return 0, err
	}
	inj := injection.NewInjector(mech, tx)
	inj.Interval = a.Config.Interval

	span.SetAttributes(
		attribute.String("mpm.mesh_id", a.Config.MeshID),
		attribute.String("mpm.transmitter", inj.Transmitter().String()),
	)

	n, err := inj.SendSequence(ctx, peer, bodies...)
	if cerr := inj.Close(); err == nil {
		err = cerr
	}
	slog.Info("peering frames generated", "count", n, "mesh_id", a.Config.MeshID,
		"from", inj.Transmitter().String(), "to", peer.String())
	return n, err
}

func (a *Application) startPersistence(ctx context.Context) *persistence.PersistenceManager {
	if a.Store == nil {
		return nil
	}
	pm := persistence.NewPersistenceManager(a.Store, persistQueue)
	pm.Start(context.WithoutCancel(ctx))
	return pm
}

// scan reads the configured pcap file, or captures live on the interface, and passes
// every peering observation accepted by the configured filter to emit.
func (a *Application) scan(ctx context.Context, emit func(domain.PeeringObservation) error) (DecodeSummary, error) {
	handler := parser.NewPacketHandler(a.Config.Throttle, a.Config.Debug)
	filter := a.Config.Filter()
	var summary DecodeSummary

	handle := func(p gopacket.Packet) error {
		summary.Packets++
		obs, err := handler.HandlePacket(p)
		if err != nil {
			summary.Errors++
			slog.Warn("peering frame rejected", "error", err)
			return nil
		}
		if obs == nil {
			return nil
		}
		if !filter.Matches(obs) {
			summary.Filtered++
			return nil
		}

		summary.Observations++
		slog.Info("peering frame", "kind", obs.Kind, "from", obs.Transmitter, "to", obs.Receiver,
			"mesh_id", obs.MeshID, "aid", obs.AID, "rates", len(obs.Rates))
		return emit(*obs)
	}

	var err error
	switch {
	case a.Config.PcapPath != "":
		err = capture.ReadFile(ctx, a.Config.PcapPath, handle)
	case a.Config.Interface != "":
		err = capture.Live(ctx, a.Config.Interface, handle)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	default:
		err = ErrNoSource
	}
	return summary, err
}

// Decode logs and stores every mesh peering frame of the configured source.
func (a *Application) Decode(ctx context.Context) (DecodeSummary, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "mpm.decode_capture")
	defer span.End()

	pm := a.startPersistence(ctx)
	summary, err := a.scan(ctx, func(obs domain.PeeringObservation) error {
		if pm != nil {
			return pm.Persist(ctx, obs)
		}
		return nil
	})

	if pm != nil {
		pm.Close()
		var failed int
		summary.Saved, failed = pm.Stats()
		if failed > 0 && err == nil {
			err = fmt.Errorf("%d observations could not be saved", failed)
		}
	}

	span.SetAttributes(
		attribute.Int("mpm.packets", summary.Packets),
		attribute.Int("mpm.observations", summary.Observations),
		attribute.Int("mpm.filtered", summary.Filtered),
		attribute.Int("mpm.errors", summary.Errors),
	)
	return summary, err
}

// Serve runs the HTTP API until ctx is cancelled. With an interface configured it also
// captures live, persisting observations and pushing them to /api/v1/stream clients.
func (a *Application) Serve(ctx context.Context) error {
	srv := webserver.NewServer(a.Config.Addr, a.Store)
	if a.Config.Interface == "" {
		return srv.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	feed := make(chan domain.PeeringObservation, streamQueue)
	pm := a.startPersistence(gctx)

	g.Go(func() error {
		srv.Stream.Run(gctx, feed)
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		summary, err := a.scan(gctx, a.liveSink(gctx, feed, pm))
		slog.Info("live capture stopped", "interface", a.Config.Interface,
			"packets", summary.Packets, "observations", summary.Observations, "error", err)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("live capture on %s: %w", a.Config.Interface, err)
		}
		return nil
	})

	err := g.Wait()
	if pm != nil {
		pm.Close()
	}
	return err
}

// liveSink forwards observations to the stream without blocking capture, then persists them.
func (a *Application) liveSink(ctx context.Context, feed chan<- domain.PeeringObservation, pm *persistence.PersistenceManager) func(domain.PeeringObservation) error {
	return func(obs domain.PeeringObservation) error {
		select {
		case feed <- obs:
		default:
			slog.Warn("stream queue full, observation not pushed", "kind", obs.Kind, "from", obs.Transmitter)
		}
		if pm != nil {
			return pm.Persist(ctx, obs)
		}
		return nil
	}
}
