// Package main implements the wirebom API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/harnesslab/wirebom/engine/analysis"
	"github.com/harnesslab/wirebom/engine/bom"
	"github.com/harnesslab/wirebom/engine/harness"
	"github.com/harnesslab/wirebom/engine/schematic"
	"github.com/harnesslab/wirebom/pkg/metrics"
	"github.com/harnesslab/wirebom/pkg/mid"
	"github.com/harnesslab/wirebom/pkg/repo"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
	Neo4jEnabled  bool
	CORSOrigin    string
	Strict        bool
	OrphanUnits   float64
	MaxDropPct    float64
	SystemVoltage float64
	RatePerSecond float64
	RateBurst     int
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		Neo4jURL:      envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:     envOr("NEO4J_PASS", "password"),
		Neo4jEnabled:  envBool("NEO4J_ENABLED", false),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
		Strict:        envBool("STRICT_VALIDATION", true),
		OrphanUnits:   envFloat("ORPHAN_THRESHOLD_UNITS", 10),
		MaxDropPct:    envFloat("MAX_VOLTAGE_DROP_PERCENT", 5),
		SystemVoltage: envFloat("SYSTEM_VOLTAGE", 12),
		RatePerSecond: envFloat("RATE_LIMIT_PER_SECOND", 20),
		RateBurst:     envInt("RATE_LIMIT_BURST", 40),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, err := analysis.LoadTables()
	if err != nil {
		return fmt.Errorf("load gauge tables: %w", err)
	}

	engine := bom.New(tables, analysis.Config{
		Strict:                cfg.Strict,
		OrphanThresholdUnits:  cfg.OrphanUnits,
		MaxVoltageDropPercent: cfg.MaxDropPct,
		SystemVoltage:         cfg.SystemVoltage,
	}, logger)

	// --- Connect to Neo4j (optional persistence) ---
	var store *harness.Store
	var components repo.Repository[schematic.Component, string]
	if cfg.Neo4jEnabled {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(ctx)
		store = harness.New(driver)
		components = repo.NewNeo4jRepo[schematic.Component, string](
			driver, "Component", componentProps, componentFromRecord,
		).WithIDKey("ref")
	}

	m := metrics.New("wirebom")

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/tables", handleTables(tables))
	mux.Handle("POST /api/analyze", handleAnalyze(engine, store, m, logger))
	mux.Handle("GET /metrics", m.Handler())
	if store != nil {
		mux.HandleFunc("GET /api/circuits/{key}", handleCircuit(store, logger))
		mux.HandleFunc("GET /api/path", handlePath(store, logger))
		mux.HandleFunc("GET /api/stats", handleStats(store, logger))
		mux.HandleFunc("GET /api/components", handleListComponents(components, logger))
		mux.HandleFunc("GET /api/components/{ref}", handleGetComponent(components))
		mux.HandleFunc("DELETE /api/components/{ref}", handleDeleteComponent(components, logger))
	}

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.RateLimit(cfg.RatePerSecond, cfg.RateBurst),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("wirebom-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "strict", cfg.Strict)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleTables(tables *analysis.Tables) http.HandlerFunc {
	type row struct {
		AWG               int     `json:"awg"`
		ResistancePerFoot float64 `json:"resistance_per_foot"`
		AmpacityAmps      float64 `json:"ampacity_amps"`
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		var rows []row
		for _, awg := range tables.Gauges() {
			res, _ := tables.ResistancePerFoot(awg)
			amp, _ := tables.Ampacity(awg)
			rows = append(rows, row{AWG: awg, ResistancePerFoot: res, AmpacityAmps: amp})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}
}

// AnalyzeRequest is the JSON body for POST /api/analyze.
type AnalyzeRequest struct {
	SchematicID string                  `json:"schematic_id"`
	Segments    []schematic.WireSegment `json:"segments"`
	Components  []schematic.Component   `json:"components"`
	Persist     bool                    `json:"persist,omitempty"`
}

func handleAnalyze(engine *bom.Engine, store *harness.Store, m *metrics.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if len(req.Segments) == 0 {
			http.Error(w, `{"error":"segments are required"}`, http.StatusBadRequest)
			return
		}

		start := time.Now()
		report, err := engine.Run(r.Context(), req.Segments, req.Components)
		if err != nil {
			logger.Warn("rejected schematic", "err", err)
			m.ObserveRun("rejected", len(req.Segments), 0, nil, time.Since(start))
			http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusUnprocessableEntity)
			return
		}

		outcome := "ok"
		if report.Aborted {
			outcome = "aborted"
		}
		severities := make(map[string]int)
		for _, f := range report.Findings {
			severities[string(f.Severity)]++
		}
		m.ObserveRun(outcome, len(req.Segments), len(report.Analyses), severities, time.Since(start))

		if req.Persist && !report.Aborted && store != nil {
			if err := store.SaveReport(r.Context(), req.SchematicID, report, req.Components); err != nil {
				logger.Error("persist report failed", "schematic", req.SchematicID, "err", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

func handleCircuit(store *harness.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wires, err := store.FindCircuit(r.Context(), r.PathValue("key"))
		if err != nil {
			logger.Error("find circuit failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"wires": wires})
	}
}

func handlePath(store *harness.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
		if from == "" || to == "" {
			http.Error(w, `{"error":"from and to are required"}`, http.StatusBadRequest)
			return
		}
		refs, err := store.TracePath(r.Context(), from, to)
		if err != nil {
			http.Error(w, `{"error":"no path found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"path": refs})
	}
}

func handleListComponents(components repo.Repository[schematic.Component, string], logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := components.List(r.Context(), repo.ListOpts{Offset: offset, Limit: limit})
		if err != nil {
			logger.Error("list components failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		total, _ := components.Count(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"components": list, "total": total})
	}
}

func handleGetComponent(components repo.Repository[schematic.Component, string]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := components.Get(r.Context(), r.PathValue("ref"))
		if err != nil {
			http.Error(w, `{"error":"component not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

func handleDeleteComponent(components repo.Repository[schematic.Component, string], logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := components.Delete(r.Context(), r.PathValue("ref")); err != nil {
			logger.Error("delete component failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleStats(store *harness.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := store.NodeCounts(r.Context())
		if err != nil {
			logger.Error("node counts failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"nodes": counts})
	}
}

// --- Component node mapping ---

func componentProps(c schematic.Component) map[string]any {
	return map[string]any{
		"ref":          c.Ref,
		"value":        c.Value,
		"description":  c.Description,
		"datasheet":    c.Datasheet,
		"terminal":     string(c.Terminal),
		"current_amps": c.CurrentAmps,
		"x":            c.Position.X,
		"y":            c.Position.Y,
		"z":            c.Position.Z,
	}
}

func componentFromRecord(rec *neo4j.Record) (schematic.Component, error) {
	var c schematic.Component
	val, ok := rec.Get("n")
	if !ok {
		return c, fmt.Errorf("record has no node column")
	}
	node, ok := val.(dbtype.Node)
	if !ok {
		return c, fmt.Errorf("unexpected node type %T", val)
	}
	p := node.Props
	c.Ref, _ = p["ref"].(string)
	c.Value, _ = p["value"].(string)
	c.Description, _ = p["description"].(string)
	c.Datasheet, _ = p["datasheet"].(string)
	if t, ok := p["terminal"].(string); ok {
		c.Terminal = schematic.TerminalType(t)
	}
	c.CurrentAmps, _ = p["current_amps"].(float64)
	c.Position.X, _ = p["x"].(float64)
	c.Position.Y, _ = p["y"].(float64)
	c.Position.Z, _ = p["z"].(float64)
	return c, nil
}
