package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/CarVault/CarVault/internal/car"
)

// pageResponse mirrors the page envelope the previous API exposed, so
// existing clients keep parsing responses unchanged.
type pageResponse struct {
	Content       []car.Car `json:"content"`
	Number        int       `json:"number"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

func (s *Server) handleListCars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var makeF, modelF *string
	if q.Has("make") {
		v := q.Get("make")
		makeF = &v
	}
	if q.Has("model") {
		v := q.Get("model")
		modelF = &v
	}

	page := car.Page{Sort: q.Get("sort")}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, newProblem(r, http.StatusBadRequest, "Bad request", "Parameter 'page' must be of type int"))
			return
		}
		page.Number = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, newProblem(r, http.StatusBadRequest, "Bad request", "Parameter 'size' must be of type int"))
			return
		}
		page.Size = n
	}

	result, err := s.cars.List(r.Context(), page, makeF, modelF)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	content := result.Content
	if content == nil {
		content = []car.Car{}
	}
	respondJSON(w, http.StatusOK, pageResponse{
		Content:       content,
		Number:        result.Number,
		Size:          result.Size,
		TotalElements: result.TotalElements,
		TotalPages:    result.TotalPages(),
	})
}

func (s *Server) handleGetCar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	found, err := s.cars.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) handleGetCarByVIN(w http.ResponseWriter, r *http.Request) {
	vin := car.NormalizeVIN(chi.URLParam(r, "vin"))
	if !car.ValidVIN(vin) {
		writeProblem(w, newProblem(r, http.StatusBadRequest, "Bad request", "VIN invalid (17 chars, no I/O/Q)"))
		return
	}

	found, err := s.cars.GetByVIN(r.Context(), vin)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (s *Server) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	created, err := s.cars.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+strconv.FormatUint(created.ID, 10))
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleReplaceCar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	updated, err := s.cars.Replace(r.Context(), id, req)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handlePatchCar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	updated, err := s.cars.Patch(r.Context(), id, req)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	if err := s.cars.Delete(r.Context(), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeProblem(w, newProblem(r, http.StatusBadRequest, "Bad request", "Parameter 'id' must be of type int64"))
		return 0, false
	}
	return id, true
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (car.Request, bool) {
	var req car.Request
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, newProblem(r, http.StatusBadRequest, "Bad request", "Malformed JSON request"))
		return car.Request{}, false
	}
	return req, true
}
