package api

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"telemed/internal/auth"
	apperr "telemed/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var httpErr *apperr.HTTPError
	if !stderrors.As(err, &httpErr) {
		httpErr = apperr.FromDomain(err)
	}
	if httpErr.Code == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, httpErr.Code, map[string]string{"error": httpErr.Message})
}

// requireRole fetches the request identity and enforces the caller's
// role. Identity is always present behind the auth middleware.
func requireRole(w http.ResponseWriter, r *http.Request, role string) (auth.Identity, bool) {
	ident, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return auth.Identity{}, false
	}
	if role != "" && ident.Role != role {
		writeError(w, apperr.ErrNotOwner)
		return auth.Identity{}, false
	}
	return ident, true
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil && id > 0
}
