package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/sojenai/jenai-dashboard/backend"
	"github.com/sojenai/jenai-dashboard/logstore"
	"github.com/sojenai/jenai-dashboard/render"
	"github.com/sojenai/jenai-dashboard/session"
	"github.com/sojenai/jenai-dashboard/voice"
)

const emptyInputWarning = "Please enter at least one text."

// acceleratedDevice is the backend device string indicating GPU compute.
const acceleratedDevice = "cuda"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleBackendHealth probes the inference backend. A failure is reported
// as a JSON error so the UI can show a degraded indicator; the rest of the
// dashboard stays usable.
func (s *Server) handleBackendHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status, err := s.client.CheckHealth(r.Context())
	if err != nil {
		log.Printf("[Health] Backend health check failed: %v", err)
		writeError(w, http.StatusBadGateway, "Health check failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"device":      status.Device,
		"accelerated": status.Device == acceleratedDevice,
	})
}

type analyzeRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// handleAnalyze submits the input text to /v1/infer and installs a fresh
// snapshot for the session. A failed call leaves the previous snapshot
// untouched.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	if s.config.Logging.LogRequests {
		log.Printf("[Analyze] session=%s text=%q", sessionID, req.Text)
	}

	resp, err := s.client.Infer(r.Context(), []string{req.Text})
	if err != nil {
		if backend.IsMissingInput(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"warning": emptyInputWarning})
			return
		}
		log.Printf("[Analyze] Error calling /v1/infer: %v", err)
		s.reportError(err)
		s.logInteraction(sessionID, logstore.KindAnalyze, req.Text, "", "", false)
		writeError(w, http.StatusBadGateway, "Error calling /v1/infer: "+err.Error())
		return
	}

	device := resp.Device
	if device == "" {
		device = "unknown"
	}

	results := make([]render.ResultView, 0, len(resp.Results))
	for i, item := range resp.Results {
		results = append(results, render.Result(session.NewResultID(), i, item, resp.TypeOrder))
	}

	snap := &session.Snapshot{
		SessionID: sessionID,
		Device:    device,
		TypeOrder: resp.TypeOrder,
		Results:   results,
		CreatedAt: time.Now(),
	}
	s.sessions.Replace(snap)

	topLabel, severity := "", ""
	if len(results) > 0 {
		topLabel, severity = results[0].TopLabel, results[0].Severity
	}
	s.logInteraction(sessionID, logstore.KindAnalyze, req.Text, topLabel, severity, true)

	if s.config.Logging.LogResponses {
		log.Printf("[Analyze] session=%s device=%s results=%d top_label=%q severity=%q",
			sessionID, device, len(results), topLabel, severity)
	}
	if s.config.Logging.LogVerbose {
		if data, err := json.Marshal(snap); err == nil {
			log.Printf("[Analyze] snapshot: %s", data)
		}
	}

	writeJSON(w, http.StatusOK, snap)
}

type mitigateRequest struct {
	SessionID string `json:"session_id"`
	ResultID  string `json:"result_id"`
}

type mitigateResponse struct {
	ResultID string                  `json:"result_id"`
	Phase    session.MitigationPhase `json:"phase"`
	View     *render.MitigationView  `json:"view,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// handleMitigate runs the mitigation flow for one displayed result,
// identified by its stable result ID. The flow is re-entrant and nothing
// is cached between attempts.
func (s *Server) handleMitigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req mitigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown session")
		return
	}
	result, ok := snap.FindResult(req.ResultID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown result")
		return
	}

	if s.config.Logging.LogRequests {
		log.Printf("[Mitigate] session=%s result=%s", req.SessionID, req.ResultID)
	}

	s.sessions.BeginMitigation(req.SessionID, req.ResultID)

	mit, err := s.client.Mitigate(r.Context(), result.Text)
	if err != nil {
		s.sessions.FinishMitigation(req.SessionID, req.ResultID, false)
		log.Printf("[Mitigate] Error calling /v1/mitigate: %v", err)
		s.reportError(err)
		s.logInteraction(req.SessionID, logstore.KindMitigate, result.Text, result.TopLabel, result.Severity, false)
		writeJSON(w, http.StatusBadGateway, mitigateResponse{
			ResultID: req.ResultID,
			Phase:    session.PhaseFailed,
			Error:    "Error calling /v1/mitigate: " + err.Error(),
		})
		return
	}

	s.sessions.FinishMitigation(req.SessionID, req.ResultID, true)
	view := render.Mitigation(*mit, result.Severity, result.TopLabel)
	s.logInteraction(req.SessionID, logstore.KindMitigate, result.Text, view.PrimaryCategory, view.Severity, true)

	if s.config.Logging.LogResponses {
		log.Printf("[Mitigate] session=%s result=%s mode=%q severity=%q",
			req.SessionID, req.ResultID, view.Mode, view.Severity)
	}

	writeJSON(w, http.StatusOK, mitigateResponse{
		ResultID: req.ResultID,
		Phase:    session.PhaseRendered,
		View:     &view,
	})
}

type voiceRequest struct {
	Rewritten string `json:"rewritten"`
	Advisory  string `json:"advisory"`
}

// handleVoice synthesizes speech for a mitigation response. When neither
// rewritten nor advisory text is present, no synthesis call is made at
// all. Failures are isolated: the text result already shown is unaffected.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.synth == nil {
		writeError(w, http.StatusServiceUnavailable, "Voice synthesis is disabled")
		return
	}

	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text, ok := voice.SpokenText(req.Rewritten, req.Advisory)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	audio, err := s.synth.Synthesize(r.Context(), text)
	if err != nil {
		log.Printf("[Voice] Unable to generate voice: %v", err)
		writeError(w, http.StatusBadGateway, "Unable to generate voice right now: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", s.synth.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		log.Printf("[Voice] Failed to write audio response: %v", err)
	}
}

// handleSession returns the current snapshot for a session, letting a
// reloaded page restore its view state.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessionID := r.URL.Query().Get("id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Missing session id")
		return
	}

	snap, ok := s.sessions.Get(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown session")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleLogs serves the interaction log: GET returns recent entries,
// DELETE clears them.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	s.corsHandler(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		limit := queryInt(r, "limit", 50)
		offset := queryInt(r, "offset", 0)

		entries, err := s.logDB.Recent(r.Context(), limit, offset)
		if err != nil {
			log.Printf("[Logs] Failed to fetch interaction log: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
			return
		}
		total, err := s.logDB.Count(r.Context())
		if err != nil {
			log.Printf("[Logs] Failed to count interaction log: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"logs":  entries,
			"total": total,
		})
	case http.MethodDelete:
		if err := s.logDB.Clear(r.Context()); err != nil {
			log.Printf("[Logs] Failed to clear interaction log: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to clear logs")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// logInteraction records one interaction; log failures never affect the
// user-facing response.
func (s *Server) logInteraction(sessionID, kind, text, topLabel, severity string, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.logDB.Insert(ctx, logstore.Entry{
		SessionID: sessionID,
		Kind:      kind,
		Text:      text,
		TopLabel:  topLabel,
		Severity:  severity,
		OK:        ok,
	})
	if err != nil {
		log.Printf("[Logs] Failed to record interaction: %v", err)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
