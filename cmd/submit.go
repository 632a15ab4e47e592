package cmd

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/judgenot0/judge-checker/utils"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	req, ok := decodeCheckRequest(r)
	if !ok {
		utils.SendResponse(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	body, err := json.Marshal(req)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "Failed to encode check request")
		return
	}

	if err := s.manager.QueueMessage(body); err != nil {
		log.Error().Err(err).Str("id", req.ID).Msg("failed to queue check")
		utils.SendResponse(w, http.StatusServiceUnavailable, "Failed to queue check")
		return
	}
	utils.SendResponse(w, http.StatusAccepted, struct {
		ID string `json:"id"`
	}{
		ID: req.ID,
	})
}
