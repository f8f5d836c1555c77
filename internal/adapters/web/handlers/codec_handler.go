package handlers

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
	"github.com/lcalzada-xor/meshpeer/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// maxBodySize bounds request bodies; a peering body is well under 1KB.
const maxBodySize = 64 << 10

// DecodeResponse is returned by the decode endpoint.
type DecodeResponse struct {
	Kind     string    `json:"kind"`
	Consumed int       `json:"consumed"`
	Trailing int       `json:"trailing"`
	Fields   FieldsDTO `json:"fields"`
	Summary  string    `json:"summary"`
}

// ErrorResponse describes a rejected body.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Field  string `json:"field,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

// CodecHandler exposes the peering body codec over HTTP.
type CodecHandler struct{}

// NewCodecHandler creates a new CodecHandler
func NewCodecHandler() *CodecHandler {
	return &CodecHandler{}
}

func kindVar(r *http.Request) (mpm.Kind, error) {
	return mpm.ParseKind(mux.Vars(r)["kind"])
}

func hexFormat(r *http.Request) bool {
	return r.URL.Query().Get("format") == "hex"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleDecode decodes the request body (raw bytes, or hex with ?format=hex) as a {kind} body.
func (h *CodecHandler) HandleDecode(w http.ResponseWriter, r *http.Request) {
	kind, err := kindVar(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	_, span := otel.Tracer(telemetry.TracerName).Start(r.Context(), "mpm.decode")
	defer span.End()
	span.SetAttributes(attribute.String("mpm.kind", kind.String()))

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
		return
	}
	if hexFormat(r) {
		raw, err = hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid hex: " + err.Error()})
			return
		}
	}
	span.SetAttributes(attribute.Int("mpm.length", len(raw)))

	body, n, err := mpm.Decode(kind, raw)
	if err != nil {
		reason := mpm.ErrorReason(err)
		telemetry.DecodeErrors.WithLabelValues(kind.String(), reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)

		resp := ErrorResponse{Error: err.Error(), Reason: reason}
		var de *mpm.DecodeError
		if errors.As(err, &de) {
			resp.Field = de.Field
			resp.Offset = &de.Offset
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	telemetry.FramesDecoded.WithLabelValues(kind.String()).Inc()

	writeJSON(w, http.StatusOK, DecodeResponse{
		Kind:     kind.String(),
		Consumed: n,
		Trailing: len(raw) - n,
		Fields:   bodyToDTO(body),
		Summary:  body.String(),
	})
}

// HandleEncode serializes a JSON FieldsDTO as a {kind} body. The response is raw bytes,
// or hex text with ?format=hex.
func (h *CodecHandler) HandleEncode(w http.ResponseWriter, r *http.Request) {
	kind, err := kindVar(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	_, span := otel.Tracer(telemetry.TracerName).Start(r.Context(), "mpm.encode")
	defer span.End()
	span.SetAttributes(attribute.String("mpm.kind", kind.String()))

	var fields FieldsDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	body, err := dtoToBody(kind, fields)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	data, err := body.Serialize()
	if err != nil {
		span.RecordError(err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	telemetry.FramesEncoded.WithLabelValues(kind.String()).Inc()
	span.SetAttributes(attribute.Int("mpm.length", len(data)))

	if hexFormat(r) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, hex.EncodeToString(data))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}
