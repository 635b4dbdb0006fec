// Package bom orchestrates the validate, aggregate, analyze pipeline that
// turns a parsed schematic into a wire bill of materials.
package bom

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harnesslab/wirebom/engine/analysis"
	"github.com/harnesslab/wirebom/engine/circuit"
	"github.com/harnesslab/wirebom/engine/schematic"
	"github.com/harnesslab/wirebom/engine/validate"
)

const tracerName = "engine/bom"

// Report is the full outcome of one schematic conversion. When Aborted is
// true (strict mode with errors) Connections and Analyses are empty and
// Findings carries every collected message.
type Report struct {
	RunID       string                     `json:"run_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Aborted     bool                       `json:"aborted"`
	Connections []schematic.WireConnection `json:"connections,omitempty"`
	Analyses    []schematic.WireAnalysis   `json:"analyses,omitempty"`
	Summary     analysis.Summary           `json:"summary"`
	Findings    []validate.Finding         `json:"findings,omitempty"`
}

// Engine runs the pipeline. The tables and config are read-only and shared;
// each Run builds its own validator, so one Engine may serve concurrent
// conversions.
type Engine struct {
	tables *analysis.Tables
	cfg    analysis.Config
	log    *slog.Logger
}

// New creates an Engine. A nil logger falls back to slog.Default().
func New(tables *analysis.Tables, cfg analysis.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{tables: tables, cfg: cfg, log: logger}
}

// Run converts one schematic. Input records are gated first; a gate failure
// is an error about the caller's data, not a finding. Everything after the
// gate is collected into the report, never thrown.
func (e *Engine) Run(ctx context.Context, segments []schematic.WireSegment, components []schematic.Component) (Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "bom.run")
	defer span.End()

	if err := e.gate(segments, components); err != nil {
		return Report{}, err
	}

	report := Report{RunID: uuid.NewString(), GeneratedAt: time.Now().UTC()}

	_, vspan := otel.Tracer(tracerName).Start(ctx, "bom.validate")
	validator := validate.New(validate.Config{
		Strict:               e.cfg.Strict,
		OrphanThresholdUnits: e.cfg.OrphanThresholdUnits,
	})
	vres := validator.ValidateAll(segments, components)
	vspan.SetAttributes(attribute.Int("wires", len(segments)), attribute.Bool("abort", vres.ShouldAbort))
	vspan.End()

	report.Findings = vres.Findings
	if vres.ShouldAbort {
		report.Aborted = true
		e.log.Warn("validation aborted run",
			"run_id", report.RunID,
			"errors", len(validate.Errors(vres.Findings)),
			"warnings", len(validate.Warnings(vres.Findings)),
		)
		return report, nil
	}
	report.Connections = vres.Connections

	_, aspan := otel.Tracer(tracerName).Start(ctx, "bom.aggregate")
	resolution := circuit.Aggregate(vres.Connections, components)
	aspan.SetAttributes(attribute.Int("circuits", len(resolution.Currents)))
	aspan.End()
	report.Findings = append(report.Findings, resolution.Findings...)

	_, espan := otel.Tracer(tracerName).Start(ctx, "bom.analyze")
	analyzer := analysis.New(e.tables, e.cfg)
	report.Analyses, report.Summary = analyzer.Analyze(vres.Connections, resolution)
	espan.End()

	e.log.Info("schematic converted",
		"run_id", report.RunID,
		"wires", len(report.Connections),
		"circuits", len(resolution.Currents),
		"analyzed", len(report.Analyses),
		"findings", len(report.Findings),
	)
	return report, nil
}

// gate rejects malformed parser output before any check runs.
func (e *Engine) gate(segments []schematic.WireSegment, components []schematic.Component) error {
	for _, s := range segments {
		if err := schematic.ValidateSegment(s, e.tables.Knows); err != nil {
			return fmt.Errorf("bom: segment %s: %w", s.ID, err)
		}
	}
	for _, c := range components {
		if err := schematic.ValidateComponent(c); err != nil {
			return fmt.Errorf("bom: component %s: %w", c.Ref, err)
		}
	}
	return nil
}
