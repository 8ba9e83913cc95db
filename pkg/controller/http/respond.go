package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/utils/errutil"
	"github.com/caseops/workbasket/pkg/utils/safe"
)

const timeFormat = time.RFC3339

// handleError maps domain sentinel errors to HTTP status codes and logs
// through errutil. Unrecognized errors become 500.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
	case errors.Is(err, types.ErrConflict):
		errutil.HandleHTTP(ctx, w, err, http.StatusConflict)
	case errors.Is(err, types.ErrInvalidState):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
	case errors.Is(err, types.ErrDuplicateCode), errors.Is(err, types.ErrDuplicateName):
		errutil.HandleHTTP(ctx, w, err, http.StatusConflict)
	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
	}
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode request body")
	}
	return nil
}
