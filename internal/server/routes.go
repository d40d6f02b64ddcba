package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lazypower/entropyd/internal/decay"
	"github.com/lazypower/entropyd/internal/store"
)

func (s *Server) handleCreateValue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content         string `json:"content"`
		ForceSimulation *bool  `json:"force_simulation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	cfg := s.decayCfg
	if req.ForceSimulation != nil {
		cfg.ForceSimulation = *req.ForceSimulation
	}

	str, err := decay.New(req.Content, cfg)
	if err != nil {
		// The only construction error is invalid content — a caller
		// problem, not a device problem.
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	mode := "sim"
	devicePath := ""
	if str.IsBoundToResource() {
		mode = "device"
		devicePath = cfg.DevicePath
		if devicePath == "" {
			devicePath = decay.DefaultDevicePath
		}
	}

	original := []rune(req.Content)
	s.reg.add(id, &liveValue{
		str:      str,
		original: original,
		created:  time.Now(),
	})

	if err := s.db.CreateValue(&store.DecayValue{
		ID:         id,
		Mode:       mode,
		ContentLen: len(original),
		DevicePath: devicePath,
	}); err != nil {
		log.Printf("ledger: create %s: %v", id, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"id":     id,
		"mode":   mode,
		"length": len(original),
	})
}

func (s *Server) handleListValues(w http.ResponseWriter, r *http.Request) {
	values, err := s.db.ListValues()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(values))
	for _, v := range values {
		row := map[string]any{
			"id":         v.ID,
			"mode":       v.Mode,
			"length":     v.ContentLen,
			"created_at": v.CreatedAt,
			"closed":     v.ClosedAt != nil,
		}
		if v.DevicePath != "" {
			row["device_path"] = v.DevicePath
		}
		out = append(out, row)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"values": out})
}

func (s *Server) handleReadValue(w http.ResponseWriter, r *http.Request) {
	valueID := chi.URLParam(r, "valueID")

	value, bound, elapsedSec, corrupted, closed, ok := s.reg.snapshot(valueID)
	if !ok {
		http.Error(w, `{"error":"unknown value"}`, http.StatusNotFound)
		return
	}
	if closed {
		http.Error(w, `{"error":"value closed"}`, http.StatusGone)
		return
	}

	mode := "sim"
	if bound {
		mode = "device"
	}

	if err := s.db.RecordRead(valueID, elapsedSec, corrupted); err != nil {
		log.Printf("ledger: record read %s: %v", valueID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":          valueID,
		"value":       value,
		"mode":        mode,
		"elapsed_sec": elapsedSec,
		"corrupted":   corrupted,
	})
}

func (s *Server) handleCloseValue(w http.ResponseWriter, r *http.Request) {
	valueID := chi.URLParam(r, "valueID")

	if !s.reg.close(valueID) {
		http.Error(w, `{"error":"unknown value"}`, http.StatusNotFound)
		return
	}
	if err := s.db.MarkClosed(valueID); err != nil {
		log.Printf("ledger: mark closed %s: %v", valueID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "closed"})
}
