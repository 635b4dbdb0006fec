package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/harnesslab/wirebom/engine/analysis"
	"github.com/harnesslab/wirebom/engine/bom"
	"github.com/harnesslab/wirebom/engine/schematic"
	"github.com/harnesslab/wirebom/pkg/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testEngine(strict bool) *bom.Engine {
	cfg := analysis.DefaultConfig()
	cfg.Strict = strict
	return bom.New(analysis.MustLoadTables(), cfg, discardLogger())
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/health", nil)
	handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", resp["status"])
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	handler := handleAnalyze(testEngine(true), nil, metrics.New("test_api"), discardLogger())
	body := `{
		"schematic_id": "sch-1",
		"segments": [{
			"id": "w1",
			"start": {"x": 0, "y": 0},
			"end": {"x": 48, "y": 0},
			"gauge": 12,
			"color": "red",
			"labels": [{"text": "L1A", "position": {"x": 24, "y": 0}}]
		}],
		"components": [
			{"ref": "BAT1", "terminal": "source", "current_amps": 100, "position": {"x": 0, "y": 0}},
			{"ref": "LAMP1", "terminal": "load", "current_amps": 7.5, "position": {"x": 48, "y": 0}}
		]
	}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/analyze", bytes.NewBufferString(body))
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report bom.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Aborted {
		t.Fatalf("clean schematic aborted: %+v", report.Findings)
	}
	if len(report.Connections) != 1 || report.Connections[0].CircuitID != "L1A" {
		t.Fatalf("unexpected connections: %+v", report.Connections)
	}
	if len(report.Analyses) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(report.Analyses))
	}
}

func TestAnalyzeEndpoint_NoSegments(t *testing.T) {
	handler := handleAnalyze(testEngine(true), nil, metrics.New("test_api2"), discardLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/analyze", bytes.NewBufferString(`{"segments":[]}`))
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeEndpoint_InvalidJSON(t *testing.T) {
	handler := handleAnalyze(testEngine(true), nil, metrics.New("test_api3"), discardLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/analyze", bytes.NewBufferString("not json"))
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeEndpoint_BadGaugeRejected(t *testing.T) {
	handler := handleAnalyze(testEngine(true), nil, metrics.New("test_api4"), discardLogger())
	body := `{"segments": [{
		"id": "w1",
		"start": {"x": 0, "y": 0},
		"end": {"x": 10, "y": 0},
		"gauge": 13,
		"labels": [{"text": "L1A", "position": {"x": 5, "y": 0}}]
	}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/analyze", bytes.NewBufferString(body))
	handler(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTablesEndpoint(t *testing.T) {
	handler := handleTables(analysis.MustLoadTables())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/tables", nil)
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rows []struct {
		AWG               int     `json:"awg"`
		ResistancePerFoot float64 `json:"resistance_per_foot"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected at least one gauge row")
	}
	found := false
	for _, r := range rows {
		if r.AWG == 12 && r.ResistancePerFoot == 0.001588 {
			found = true
		}
	}
	if !found {
		t.Fatalf("12 AWG row missing or wrong: %+v", rows)
	}
}

func TestComponentRecordRoundTrip(t *testing.T) {
	in := schematic.Component{
		Ref:         "LAMP1",
		Value:       "H4",
		Terminal:    schematic.TerminalLoad,
		CurrentAmps: 7.5,
		Position:    schematic.Position3{X: 48, Y: 0, Z: 1},
	}
	rec := &neo4j.Record{
		Keys:   []string{"n"},
		Values: []any{dbtype.Node{Props: componentProps(in)}},
	}
	out, err := componentFromRecord(rec)
	if err != nil {
		t.Fatalf("componentFromRecord: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.CORSOrigin != "*" {
		t.Fatalf("expected default CORS *, got %s", cfg.CORSOrigin)
	}
	if !cfg.Strict {
		t.Fatal("expected strict validation by default")
	}
	if cfg.SystemVoltage != 12 {
		t.Fatalf("expected default 12V, got %v", cfg.SystemVoltage)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_ENV_VAR_XYZ", "custom")
	if v := envOr("TEST_ENV_VAR_XYZ", "default"); v != "custom" {
		t.Fatalf("expected custom, got %s", v)
	}
	if v := envOr("NONEXISTENT_VAR_ABC", "fallback"); v != "fallback" {
		t.Fatalf("expected fallback, got %s", v)
	}
	t.Setenv("TEST_BOOL_VAR", "false")
	if envBool("TEST_BOOL_VAR", true) {
		t.Fatal("expected false")
	}
	t.Setenv("TEST_FLOAT_VAR", "2.5")
	if v := envFloat("TEST_FLOAT_VAR", 1); v != 2.5 {
		t.Fatalf("expected 2.5, got %v", v)
	}
	t.Setenv("TEST_FLOAT_VAR", "junk")
	if v := envFloat("TEST_FLOAT_VAR", 1); v != 1 {
		t.Fatalf("expected fallback 1, got %v", v)
	}
	t.Setenv("TEST_INT_VAR", "7")
	if v := envInt("TEST_INT_VAR", 3); v != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}
