package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/internal/models"
	"github.com/proctrack/proctrack/internal/reporter"
	"github.com/proctrack/proctrack/pkg/utils"
)

// Store is the read side of the database the API serves from.
type Store interface {
	GetTotalsSince(ctx context.Context, since time.Time) ([]models.ProcessTotal, error)
	GetLatest(ctx context.Context) (*models.ProcessTotal, error)
	GetRecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error)
}

type Handler struct {
	config   *config.Config
	store    Store
	reporter *reporter.Reporter
	started  time.Time
}

func NewHandler(cfg *config.Config, store Store) *Handler {
	return &Handler{
		config:   cfg,
		store:    store,
		reporter: reporter.New(cfg, store),
		started:  time.Now(),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/processes", h.handleProcesses)
	mux.HandleFunc("/api/processes/latest", h.handleLatestProcess)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/errors", h.handleErrors)
	mux.HandleFunc("/api/status", h.handleStatus)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleProcesses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "all"
	}

	report, err := h.reporter.GenerateReport(r.Context(), periodType)
	if err != nil {
		if errors.Is(err, reporter.ErrInvalidPeriod) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to fetch processes: %v", err), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.respondProcessesHTML(w, report)
		return
	}

	respondJSON(w, report.Processes)
}

func (h *Handler) handleLatestProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latest, err := h.store.GetLatest(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch latest process: %v", err), http.StatusInternalServerError)
		return
	}

	if latest == nil {
		http.Error(w, "No processes found", http.StatusNotFound)
		return
	}

	respondJSON(w, latest)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	report, err := h.reporter.GenerateReport(r.Context(), periodType)
	if err != nil {
		if errors.Is(err, reporter.ErrInvalidPeriod) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, report)
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}

	logs, err := h.store.GetRecentErrors(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch errors: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, logs)
}

func (h *Handler) respondProcessesHTML(w http.ResponseWriter, report *models.Report) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(report.Processes) == 0 {
		w.Write([]byte(`<div class="loading">No data available</div>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="listing">`)
	for _, p := range report.Processes {
		fmt.Fprintf(&b, `
		<div class="proc-item" style="--bar-width: %.1f%%">
			<span class="proc-name">%s</span>
			<span class="proc-count">x%d</span>
			<span class="proc-time">%s</span>
		</div>`, p.Percentage, html.EscapeString(p.DisplayName), p.InstanceCount, utils.FormatDuration(uint64(p.CumulativeSeconds)))
	}
	b.WriteString(`</div>`)
	fmt.Fprintf(&b, `<div class="total">Total: %s</div>`, utils.FormatRoundedUnit(report.TotalSeconds))

	w.Write([]byte(b.String()))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latest, _ := h.store.GetLatest(r.Context())

	status := map[string]interface{}{
		"running":       true,
		"poll_interval": h.config.Tracker.PollInterval.String(),
		"poll_seconds":  h.config.GetPollIntervalSeconds(),
		"provider":      h.config.Tracker.Provider,
		"database_path": h.config.Database.Path,
		"uptime":        utils.FormatInterval(time.Since(h.started)),
	}

	if latest != nil {
		status["latest_process"] = map[string]interface{}{
			"name":               latest.Name,
			"display_name":       latest.DisplayName,
			"cumulative_seconds": latest.CumulativeSeconds,
			"last_seen_at":       latest.LastSeenAt,
		}
	}

	respondJSON(w, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>proctrack</title>
<script src="https://unpkg.com/htmx.org@1.9.10"></script>
<style>
  :root { --fg: #d8dee9; --dim: #7b8394; --accent: #88c0d0; --bg: #1e222a; --panel: #272c36; }
  html { background: var(--bg); color: var(--fg); font: 14px/1.4 ui-monospace, Menlo, Consolas, monospace; }
  main { max-width: 1100px; margin: 2rem auto; padding: 0 1rem; }
  header { display: flex; justify-content: space-between; align-items: baseline; }
  header small { color: var(--dim); }
  section { background: var(--panel); border-radius: 6px; padding: 1rem 1.25rem; margin-top: 1rem; }
  section > h2 { margin: 0 0 .75rem; font-size: 1rem; color: var(--accent); text-transform: uppercase; letter-spacing: .08em; }
  .proc-item { display: grid; grid-template-columns: 1fr 5em 9em; padding: .35rem .5rem;
    background: linear-gradient(90deg, rgba(136,192,208,.18) var(--bar-width, 0%), transparent 0); }
  .proc-item + .proc-item { border-top: 1px solid #323845; }
  .proc-count { color: var(--dim); }
  .proc-time { text-align: right; }
  .total { margin-top: .75rem; text-align: right; color: var(--accent); }
  .loading { color: var(--dim); }
</style>
</head>
<body>
<main>
  <header>
    <h1>proctrack</h1>
    <small hx-get="/health" hx-trigger="load, every 60s" hx-swap="none">cumulative running time per application</small>
  </header>
  <section>
    <h2>Today</h2>
    <div hx-get="/api/processes?period=day" hx-trigger="load, every 30s"><p class="loading">waiting for data</p></div>
  </section>
  <section>
    <h2>Last 7 days</h2>
    <div hx-get="/api/processes?period=week" hx-trigger="load, every 30s"><p class="loading">waiting for data</p></div>
  </section>
  <section>
    <h2>Last 30 days</h2>
    <div hx-get="/api/processes?period=month" hx-trigger="load, every 60s"><p class="loading">waiting for data</p></div>
  </section>
  <section>
    <h2>All time</h2>
    <div hx-get="/api/processes?period=all" hx-trigger="load, every 60s"><p class="loading">waiting for data</p></div>
  </section>
</main>
</body>
</html>`

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
