// Command worker consumes analyze jobs from NATS, runs them through the
// bill-of-materials engine, and publishes the resulting reports.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/harnesslab/wirebom/engine/analysis"
	"github.com/harnesslab/wirebom/engine/bom"
	"github.com/harnesslab/wirebom/engine/harness"
	"github.com/harnesslab/wirebom/engine/schematic"
	"github.com/harnesslab/wirebom/pkg/metrics"
	"github.com/harnesslab/wirebom/pkg/natsutil"
)

// AnalyzeJob is one schematic conversion request from the queue.
type AnalyzeJob struct {
	SchematicID string                  `json:"schematic_id"`
	Segments    []schematic.WireSegment `json:"segments"`
	Components  []schematic.Component   `json:"components"`
	Persist     bool                    `json:"persist,omitempty"`
}

// AnalyzeResult is the published outcome of one job.
type AnalyzeResult struct {
	SchematicID string     `json:"schematic_id"`
	Report      bom.Report `json:"report"`
	Error       string     `json:"error,omitempty"`
}

func main() {
	var (
		natsURL     = flag.String("nats", nats.DefaultURL, "NATS server URL")
		neo4jURL    = flag.String("neo4j", "", "Neo4j bolt URL (empty disables persistence)")
		neo4jUser   = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPass   = flag.String("neo4j-pass", "password", "Neo4j password")
		metricsPort = flag.String("metrics-port", "9091", "Prometheus metrics port")
		strict      = flag.Bool("strict", true, "abort conversions with validation errors")
		voltage     = flag.Float64("voltage", 12, "system voltage")
		maxDrop     = flag.Float64("max-drop", 5, "voltage drop warning threshold, percent")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tables, err := analysis.LoadTables()
	if err != nil {
		log.Error("load gauge tables failed", "err", err)
		os.Exit(1)
	}
	cfg := analysis.DefaultConfig()
	cfg.Strict = *strict
	cfg.SystemVoltage = *voltage
	cfg.MaxVoltageDropPercent = *maxDrop
	engine := bom.New(tables, cfg, log)

	var store *harness.Store
	if *neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
		if err != nil {
			log.Error("neo4j connect failed", "err", err)
			os.Exit(1)
		}
		defer driver.Close(ctx)
		if err := driver.VerifyConnectivity(ctx); err != nil {
			log.Error("neo4j verify failed", "err", err)
			os.Exit(1)
		}
		store = harness.New(driver)
		log.Info("connected to Neo4j")
	}

	m := metrics.New("wirebom_worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		if err := http.ListenAndServe(":"+*metricsPort, mux); err != nil {
			log.Error("metrics server failed", "err", err)
		}
	}()

	nc, err := nats.Connect(*natsURL, nats.Name("wirebom-worker"))
	if err != nil {
		log.Error("nats connect failed", "err", err)
		os.Exit(1)
	}
	defer nc.Drain()

	sub, err := natsutil.Subscribe(nc, natsutil.SubjectAnalyzeJobs, func(jobCtx context.Context, job AnalyzeJob) {
		handleJob(jobCtx, job, engine, store, nc, m, log)
	})
	if err != nil {
		log.Error("subscribe failed", "err", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	log.Info("worker started", "subject", natsutil.SubjectAnalyzeJobs, "strict", *strict)
	<-ctx.Done()
	log.Info("shutdown signal received")
}

func handleJob(ctx context.Context, job AnalyzeJob, engine *bom.Engine, store *harness.Store, nc *nats.Conn, m *metrics.Metrics, log *slog.Logger) {
	start := time.Now()
	report, err := engine.Run(ctx, job.Segments, job.Components)
	if err != nil {
		log.Warn("rejected job", "schematic", job.SchematicID, "err", err)
		m.ObserveRun("rejected", len(job.Segments), 0, nil, time.Since(start))
		publishResult(ctx, nc, AnalyzeResult{SchematicID: job.SchematicID, Error: err.Error()}, log)
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
	m.ObserveRun(outcome, len(job.Segments), len(report.Analyses), severities, time.Since(start))

	if job.Persist && !report.Aborted && store != nil {
		if err := store.SaveReport(ctx, job.SchematicID, report, job.Components); err != nil {
			log.Error("persist report failed", "schematic", job.SchematicID, "err", err)
		}
	}

	publishResult(ctx, nc, AnalyzeResult{SchematicID: job.SchematicID, Report: report}, log)
	log.Info("job done", "schematic", job.SchematicID, "outcome", outcome,
		"wires", len(report.Connections), "dur", time.Since(start))
}

func publishResult(ctx context.Context, nc *nats.Conn, res AnalyzeResult, log *slog.Logger) {
	if err := natsutil.Publish(ctx, nc, natsutil.SubjectResults, res); err != nil {
		log.Error("publish result failed", "schematic", res.SchematicID, "err", err)
	}
}
