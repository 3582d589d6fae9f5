package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/dispatch"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientPhone string `json:"clientPhone"`
		Message     string `json:"message"`
	}
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.ClientPhone) == "" || strings.TrimSpace(req.Message) == "" {
		writeMessage(w, http.StatusBadRequest, "clientPhone and message are required")
		return
	}

	reply, err := s.deps.Concierge.HandleMessage(r.Context(), req.ClientPhone, req.Message)
	if err != nil {
		writeError(w, r, err, "Client not found", "Failed to process chat message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"response": reply.Text,
		"clientId": reply.Client.ID,
	})
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.deps.Clients.ListClients(r.Context())
	if err != nil {
		writeError(w, r, err, "", "Failed to fetch clients")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": nonNil(clients)})
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.deps.Clients.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Client not found", "Failed to fetch client")
		return
	}

	resp := map[string]any{"client": client, "ragProfile": nil}
	profile, err := s.deps.Profiles.GetProfile(r.Context(), client.ID)
	switch {
	case err == nil:
		resp["ragProfile"] = profile
	case !isNotFound(err):
		writeError(w, r, err, "", "Failed to fetch client")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c core.Client
	if err := decode(r, &c); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid client data")
		return
	}
	created, err := s.deps.Dispatch.CreateClient(r.Context(), c)
	if err != nil {
		writeError(w, r, err, "", "Failed to create client")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"client": created})
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Dispatch.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Client not found", "Failed to delete client")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.deps.Drivers.ListDrivers(r.Context())
	if err != nil {
		writeError(w, r, err, "", "Failed to fetch drivers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drivers": nonNil(drivers)})
}

func (s *Server) handleCreateDriver(w http.ResponseWriter, r *http.Request) {
	var d core.Driver
	if err := decode(r, &d); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid driver data")
		return
	}
	created, err := s.deps.Dispatch.CreateDriver(r.Context(), d)
	if err != nil {
		writeError(w, r, err, "", "Failed to create driver")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"driver": created})
}

func (s *Server) handleDriverStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status core.DriverStatus `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "status is required")
		return
	}
	driver, err := s.deps.Dispatch.UpdateDriverStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err, "Driver not found", "Failed to update driver status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"driver": driver})
}

func (s *Server) handleDeleteDriver(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Dispatch.DeleteDriver(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Driver not found", "Failed to delete driver")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleListTrips supports clientId, driverId, status and
// assigned=assigned|unassigned filters.
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		trips []core.Trip
		err   error
	)
	if id := q.Get("clientId"); id != "" {
		trips, err = s.deps.Trips.ListTripsByClient(r.Context(), id)
	} else {
		trips, err = s.deps.Trips.ListTrips(r.Context())
	}
	if err != nil {
		writeError(w, r, err, "", "Failed to fetch trips")
		return
	}

	out := make([]core.Trip, 0, len(trips))
	for _, t := range trips {
		if d := q.Get("driverId"); d != "" && t.DriverID != d {
			continue
		}
		if st := q.Get("status"); st != "" && string(t.Status) != st {
			continue
		}
		switch q.Get("assigned") {
		case "assigned":
			if t.DriverID == "" {
				continue
			}
		case "unassigned":
			if t.DriverID != "" {
				continue
			}
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"trips": out})
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var t core.Trip
	if err := decode(r, &t); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid trip data")
		return
	}
	trip, err := s.deps.Dispatch.CreateTrip(r.Context(), t)
	if err != nil {
		writeError(w, r, err, "Client or driver not found", "Failed to create trip")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trip": trip})
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	var patch dispatch.TripPatch
	if err := decode(r, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid trip data")
		return
	}
	trip, err := s.deps.Dispatch.UpdateTrip(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err, "Trip not found", "Failed to update trip")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trip": trip})
}

func (s *Server) handleAssignDriver(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID string `json:"driverId"`
	}
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "driverId is required")
		return
	}
	trip, err := s.deps.Dispatch.AssignDriver(r.Context(), chi.URLParam(r, "id"), req.DriverID)
	if err != nil {
		writeError(w, r, err, "Trip or driver not found", "Failed to assign driver")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trip": trip})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Messages.ListMessages(r.Context(), chi.URLParam(r, "participantId"), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err, "", "Failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": nonNil(msgs)})
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var msg core.ChatMessage
	if err := decode(r, &msg); err != nil || msg.SenderID == "" || msg.ReceiverID == "" || msg.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid message data")
		return
	}
	saved, err := s.deps.Messages.AddMessage(r.Context(), msg)
	if err != nil {
		writeError(w, r, err, "", "Failed to create message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": saved})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
