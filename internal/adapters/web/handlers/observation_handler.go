package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/lcalzada-xor/meshpeer/internal/core/ports"
)

// defaultListLimit caps list responses when the client sets no limit.
const defaultListLimit = 500

// ObservationHandler serves stored peering observations.
type ObservationHandler struct {
	Store ports.ObservationStore
}

// NewObservationHandler creates a new ObservationHandler
func NewObservationHandler(store ports.ObservationStore) *ObservationHandler {
	return &ObservationHandler{Store: store}
}

// HandleList returns observations filtered by mesh_id, transmitter, kind, since (RFC 3339) and limit.
func (h *ObservationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.PeeringFilter{
		MeshID:      q.Get("mesh_id"),
		Transmitter: q.Get("transmitter"),
		Kind:        q.Get("kind"),
		Limit:       defaultListLimit,
	}

	if s := q.Get("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid since: " + err.Error()})
			return
		}
		filter.Since = since
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		filter.Limit = limit
	}
	if err := filter.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	obs, err := h.Store.ListObservations(filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list observations: " + err.Error()})
		return
	}
	if obs == nil {
		obs = []domain.PeeringObservation{}
	}
	writeJSON(w, http.StatusOK, obs)
}

// HandlePeers returns the transmitters seen advertising {mesh_id}.
func (h *ObservationHandler) HandlePeers(w http.ResponseWriter, r *http.Request) {
	meshID := mux.Vars(r)["mesh_id"]
	if !domain.IsValidMeshID(meshID) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid mesh id"})
		return
	}

	peers, err := h.Store.ListPeers(meshID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list peers: " + err.Error()})
		return
	}
	if peers == nil {
		peers = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"mesh_id": meshID, "peers": peers})
}
