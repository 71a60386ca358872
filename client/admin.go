package client

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"icebattle/game"
)

// NewDebugRouter exposes session state and headless controls over HTTP.
//
//	GET  /healthz
//	GET  /metrics
//	GET  /state
//	GET  /admin/header          current music/sound toggles
//	POST /admin/header          partial update of the toggles
//	POST /input/{key}/{action}  action is down or up
func NewDebugRouter(s *Session) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", healthz)
	r.Get("/metrics", handleMetrics(s))
	r.Get("/state", handleState(s))
	r.Get("/admin/header", getHeaderToggles(s))
	r.Post("/admin/header", postHeaderToggles(s))
	r.Post("/input/{key}/{action}", handleInput(s))
	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func handleMetrics(s *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"conn":     s.Conn.Status().String(),
			"attempts": s.Conn.Attempts(),
			"metrics":  s.Metrics.Snapshot(),
		})
	}
}

func handleState(s *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

type headerToggles struct {
	Music        *bool `json:"music,omitempty"`
	SoundEffects *bool `json:"soundEffects,omitempty"`
}

func currentToggles(h game.HeaderState) headerToggles {
	return headerToggles{Music: &h.MusicOn, SoundEffects: &h.SoundEffectsOn}
}

func getHeaderToggles(s *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentToggles(s.Stores.Header.State()))
	}
}

func postHeaderToggles(s *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body headerToggles
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Music != nil {
			s.Stores.Header.Dispatch(game.SetMusic{On: *body.Music})
		}
		if body.SoundEffects != nil {
			s.Stores.Header.Dispatch(game.SetSoundEffects{On: *body.SoundEffects})
		}
		h := s.Stores.Header.State()
		s.log.Infof("header toggles updated: music=%t sound=%t", h.MusicOn, h.SoundEffectsOn)
		writeJSON(w, http.StatusOK, currentToggles(h))
	}
}

func handleInput(s *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if key == "space" {
			key = "Space"
		}
		if _, ok := DirectionForKey(key); !ok && !IsActionKey(key) {
			http.Error(w, "unknown key", http.StatusBadRequest)
			return
		}
		switch chi.URLParam(r, "action") {
		case "down":
			s.Input.KeyDown(key)
		case "up":
			s.Input.KeyUp(key)
		default:
			http.Error(w, "action must be down or up", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
