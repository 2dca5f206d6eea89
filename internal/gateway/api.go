package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/funcforge/internal/funcspec"
	"github.com/forge-ai/funcforge/shared/events"
)

const maxSpecBytes = 1 << 20

// Handler returns the gateway's routes wrapped in CORS.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", g.handleGenerate)
	mux.HandleFunc("GET /api/status", g.handleStatus)
	mux.HandleFunc("/ws", g.hub.ServeWS)
	return cors(mux)
}

// handleGenerate accepts a spec as JSON and queues a generation job.
// ?skip_validate=true returns the code without running it.
func (g *Gateway) handleGenerate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSpecBytes))
	if err != nil {
		jsonErr(w, "invalid body", http.StatusBadRequest)
		return
	}
	spec, err := funcspec.ParseJSON(body)
	if err == nil {
		err = funcspec.Validate(spec)
	}
	if err != nil {
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	}
	skip, _ := strconv.ParseBool(r.URL.Query().Get("skip_validate"))

	p := events.FuncgenRequestedPayload{
		JobID:        uuid.New().String(),
		Spec:         spec,
		SkipValidate: skip,
	}
	b, err := events.Wrap(events.FuncgenRequested, p)
	if err != nil {
		jsonErr(w, "encode error", http.StatusInternalServerError)
		return
	}
	if err := g.pub.Publish(r.Context(), events.FuncgenRequested, b); err != nil {
		log.Error().Err(err).Msg("publish request")
		jsonErr(w, "queue publish failed", http.StatusInternalServerError)
		return
	}

	log.Info().Str("job", p.JobID).Int("examples", len(spec.Examples)).Msg("job queued")
	jsonOK(w, map[string]any{"job_id": p.JobID, "status": "queued"}, http.StatusAccepted)
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]any{
		"status":  "online",
		"clients": g.hub.ClientCount(),
	}, http.StatusOK)
}

func jsonOK(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
