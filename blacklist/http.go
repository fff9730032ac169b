package blacklist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/shipyard/observe"
)

// hostBody is the JSON body accepted by the admin endpoints.
type hostBody struct {
	Host string `json:"host"`
}

// Handler returns the admin HTTP surface for the blacklist:
//
//	POST|PUT /docker-executor/blacklist  adds a host
//	DELETE   /docker-executor/blacklist  removes a host
//
// Both accept {"host": "host:port"} and answer 200 with an empty body on
// success, or 400 with a plain-text reason when the body is missing,
// unparseable, or lacks "host".
func Handler(store Store, logger observe.Logger) http.Handler {
	if logger == nil {
		logger = observe.NopLogger()
	}

	r := chi.NewRouter()
	r.Post("/docker-executor/blacklist", mutate(logger, "add host to blacklist", store.Add))
	r.Put("/docker-executor/blacklist", mutate(logger, "add host to blacklist", store.Add))
	r.Delete("/docker-executor/blacklist", mutate(logger, "remove host from blacklist", store.Remove))
	return r
}

func mutate(logger observe.Logger, verb string, op func(ctx context.Context, addr string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		body, err := io.ReadAll(req.Body)
		if err != nil || len(body) == 0 {
			msg := "Failed to " + verb + " because JSON body could not be parsed."
			logger.Warn(ctx, msg)
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		var data hostBody
		if err := json.Unmarshal(body, &data); err != nil {
			msg := "Failed to " + verb + " because JSON body could not be parsed."
			logger.Warn(ctx, msg, observe.F("error", err.Error()))
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		if data.Host == "" {
			msg := "Failed to " + verb + " because 'host' attribute was not found in JSON body."
			logger.Warn(ctx, msg)
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		if err := op(ctx, data.Host); err != nil {
			logger.Error(ctx, "Blacklist store mutation failed.",
				observe.F("operation", verb), observe.F("host", data.Host), observe.F("error", err.Error()))
			http.Error(w, "blacklist store unavailable", http.StatusInternalServerError)
			return
		}

		logger.Info(ctx, "Blacklist updated.", observe.F("operation", verb), observe.F("host", data.Host))
		w.WriteHeader(http.StatusOK)
	}
}
