package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/kartcup/internal/domain/model"
)

// maxBodyBytes caps request bodies; the largest is a seed list.
const maxBodyBytes = 1 << 16

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// scope reads the tournament and mode path parameters.
func scope(r *http.Request) (string, model.Mode, error) {
	tid := strings.TrimSpace(chi.URLParam(r, "tid"))
	if tid == "" {
		return "", "", model.Invalid("tournamentId", "must not be empty")
	}
	raw := chi.URLParam(r, "mode")
	if raw == "" {
		return tid, "", nil
	}
	mode, err := model.ParseMode(strings.ToLower(raw))
	if err != nil {
		return "", "", err
	}
	return tid, mode, nil
}
