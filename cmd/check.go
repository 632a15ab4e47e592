package cmd

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/judgenot0/judge-checker/structs"
	"github.com/judgenot0/judge-checker/utils"
)

func decodeCheckRequest(r *http.Request) (structs.CheckRequest, bool) {
	var req structs.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	return req, req.AnswerPath != "" && req.OutputPath != ""
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	req, ok := decodeCheckRequest(r)
	if !ok {
		utils.SendResponse(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	verdict, err := s.scheduler.Run(r.Context(), &req)
	if err != nil {
		log.Warn().Err(err).Str("id", req.ID).Msg("check abandoned")
		utils.SendResponse(w, http.StatusServiceUnavailable, "No free worker")
		return
	}
	utils.SendResponse(w, http.StatusOK, struct {
		Result  string `json:"result"`
		Checker string `json:"checker,omitempty"`
	}{
		Result:  verdict.Result,
		Checker: verdict.Checker,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}
