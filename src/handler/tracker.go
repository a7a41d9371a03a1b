package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/kataras/go-events"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/rsa-tracker/src/eventmodels"
	pubsub "github.com/jiaming2012/rsa-tracker/src/eventpubsub"
	"github.com/jiaming2012/rsa-tracker/src/models"
)

// TrackerHandler serves the HTTP surface. Status endpoints read the
// trackers directly; everything else goes through the event pipeline.
type TrackerHandler struct {
	Sessions  *models.SessionTracker
	Watchlist *models.WatchlistTracker
}

// ChatEvent ingests a chat message from a webhook. The upstream always gets
// a 200 back: classification failures are our problem, not the sender's.
func (h *TrackerHandler) ChatEvent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)

	var msg eventmodels.ChatMessage

	contentType := r.Header.Get("Content-Type")
	switch contentType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			log.Errorf("TrackerHandler.ChatEvent: failed to parse form: %v", err)
			return
		}

		decoder := schema.NewDecoder()
		decoder.IgnoreUnknownKeys(true)

		if err := decoder.Decode(&msg, r.Form); err != nil {
			log.Errorf("TrackerHandler.ChatEvent: failed to decode form: %v", err)
			return
		}
	default:
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&msg); err != nil {
			log.Errorf("TrackerHandler.ChatEvent: failed to decode json: %v", err)
			return
		}
	}

	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}

	events.Emit(models.InboundChatMessage, msg)
}

func (h *TrackerHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	status, err := h.Sessions.GetStatus(vars["userID"])
	if err != nil {
		log.Errorf("TrackerHandler.SessionStatus: %v", err)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.ErrorDTO{Msg: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *TrackerHandler) WatchlistStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	status, err := h.Watchlist.GetStatus(vars["ticker"])
	if err != nil {
		log.Errorf("TrackerHandler.WatchlistStatus: %v", err)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.ErrorDTO{Msg: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(status))
}

func (h *TrackerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	pubsub.Publish("TrackerHandler", pubsub.StatusQueryEvent, &eventmodels.StatusQueryEvent{
		Meta: eventmodels.NewMetaData("TrackerHandler"),
		Kind: eventmodels.StatusQuerySummary,
	})

	w.WriteHeader(http.StatusAccepted)
}

func Setup(h *TrackerHandler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/chat/events", h.ChatEvent).Methods("POST")
	router.HandleFunc("/sessions/{userID}", h.SessionStatus).Methods("GET")
	router.HandleFunc("/watchlist/{ticker}", h.WatchlistStatus).Methods("GET")
	router.HandleFunc("/summary", h.Summary).Methods("POST")

	return router
}
