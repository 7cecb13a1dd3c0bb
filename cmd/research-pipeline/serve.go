// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/research-pipeline/internal/orchestrator"
	"github.com/pdiddy/research-pipeline/pkg/types"
)

const maxRequestBody = 1 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve research over HTTP with Prometheus metrics",
	Long: `Serve runs an HTTP server with:

  POST /research   {"question": "...", "profile": "standard"} -> JSON report
  GET  /metrics    Prometheus metrics
  GET  /healthz    liveness

Each request runs independently; the search cache is shared.`,
	RunE: runServe,
}

// researcher is the part of the orchestrator the HTTP handler needs.
type researcher interface {
	Run(ctx context.Context, question string, profile types.DepthProfile) (types.ResearchReport, error)
}

type researchRequest struct {
	Question string `json:"question"`
	Profile  string `json:"profile"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// newHandler routes the server endpoints.
func newHandler(r researcher, profiles map[string]types.DepthProfile, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("POST /research", func(w http.ResponseWriter, req *http.Request) {
		var body researchRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBody))
		if err := dec.Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
			return
		}
		body.Question = strings.TrimSpace(body.Question)
		if body.Question == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
			return
		}
		if body.Profile == "" {
			body.Profile = types.ProfileStandard
		}
		profile, err := types.LookupProfile(profiles, body.Profile)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		rep, err := r.Run(req.Context(), body.Question, profile)
		if err != nil {
			logger.Info("research request aborted", zap.String("id", rep.ID), zap.Error(err))
		}
		status := http.StatusOK
		if errors.Is(err, orchestrator.ErrBudgetExhausted) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, rep)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	withKnowledge, _ := cmd.Flags().GetBool("knowledge")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, pipelineCfg, withKnowledge, nil, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(p.orch, effectiveProfiles(pipelineCfg), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Bool("knowledge", false, "use the knowledge base for context hints even if not enabled in config")

	rootCmd.AddCommand(serveCmd)
}
