package main

import (
	"net/http"

	"ereea.space/internal/metrics"
	"ereea.space/internal/transport/observer"
)

func newMux(w metrics.WorldSource, h metrics.HubSource, obs *observer.Server, idx metrics.IndexSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler(metrics.NewCollector(w, h, idx)))

	mux.HandleFunc("/v1/observer", obs.WSHandler())
	mux.HandleFunc("/admin/v1/observer/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/admin/v1/observer/knowledge", obs.KnowledgeHandler())
	return mux
}
