package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wpbrowse/wp-listing-client/pkg/client"
)

// serve: run a caching proxy in front of the site's REST API, with health
// and metrics endpoints.
func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a caching proxy for the site's REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCfg := client.DefaultConfig(baseCfg.SiteURL)
			clientCfg.UserAgent = baseCfg.UserAgent
			clientCfg.Redis = baseCfg.Redis
			backend, err := client.New(clientCfg)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, "OK")
			})
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/wp/", proxyHandler(backend, baseCfg.SiteURL))

			addr := fmt.Sprintf(":%d", port)
			log.Info().Str("addr", addr).Str("site", baseCfg.SiteURL).Msg("Starting listing proxy")

			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return server.ListenAndServe()
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port")
	return cmd
}

// proxyHandler forwards /wp/<route> to <site>/wp-json/wp/v2/<route>,
// serving repeats from the response cache when one is configured.
func proxyHandler(backend *client.Client, siteURL string) http.HandlerFunc {
	base := strings.TrimRight(siteURL, "/") + client.BasePath
	return func(w http.ResponseWriter, r *http.Request) {
		route := strings.TrimPrefix(r.URL.Path, "/wp")
		target := base + route
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := backend.Do(req)
		if err != nil {
			var fetchErr *client.FetchError
			status := http.StatusBadGateway
			if errors.As(err, &fetchErr) && fetchErr.StatusCode >= 400 {
				status = fetchErr.StatusCode
			}
			http.Error(w, err.Error(), status)
			return
		}
		defer resp.Body.Close()

		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			log.Warn().Err(err).Msg("Failed to stream proxied response")
		}
	}
}
