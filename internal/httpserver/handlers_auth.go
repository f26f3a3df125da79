package httpserver

import (
	"encoding/json"
	"net/http"
)

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, newProblem(r, http.StatusBadRequest, "Bad request", "Malformed JSON request"))
		return
	}

	fields := make(map[string]string)
	if req.Username == "" {
		fields["username"] = "must not be blank"
	}
	if req.Password == "" {
		fields["password"] = "must not be blank"
	}
	if len(fields) > 0 {
		p := newProblem(r, http.StatusBadRequest, "Validation failed", "")
		p.Fields = fields
		writeProblem(w, p)
		return
	}

	if !s.credentials.Authenticate(req.Username, req.Password) {
		writeProblem(w, newProblem(r, http.StatusUnauthorized, "Bad credentials", ""))
		return
	}

	token, _, err := s.tokens.Generate(req.Username, s.credentials.Roles())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, signInResponse{Token: token})
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Welcome to the car registry."))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
