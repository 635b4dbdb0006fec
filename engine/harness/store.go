// Package harness persists validated wire bills of materials as a Neo4j
// graph: components become nodes, wire connections become CONNECTS_TO
// relationships carrying the circuit id and the analysis figures.
package harness

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/harnesslab/wirebom/engine/bom"
	"github.com/harnesslab/wirebom/engine/label"
	"github.com/harnesslab/wirebom/engine/schematic"
)

// CypherResult is the minimal read surface of a query result.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// CypherRunner runs one Cypher statement.
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
}

// CypherSession is an open session; writes go through ExecuteWrite so a
// whole report lands in one transaction.
type CypherSession interface {
	CypherRunner
	ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error)
	Close(ctx context.Context) error
}

// SessionOpener opens sessions. The driver implements it in production;
// tests substitute fakes.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

// Store provides harness graph operations.
type Store struct {
	opener SessionOpener
}

// New creates a Store backed by a Neo4j driver.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{opener: driverOpener{driver: driver}}
}

// NewWithOpener creates a Store with a custom session opener.
func NewWithOpener(opener SessionOpener) *Store {
	return &Store{opener: opener}
}

// SaveReport writes one conversion into the graph in a single transaction:
// the schematic node, every component, and one CONNECTS_TO relationship per
// wire connection. Analysis figures are attached to the relationships that
// have them. Aborted reports save nothing and return an error.
func (s *Store) SaveReport(ctx context.Context, schematicID string, report bom.Report, components []schematic.Component) error {
	if report.Aborted {
		return fmt.Errorf("harness: refusing to persist aborted run %s", report.RunID)
	}
	analyses := make(map[string]schematic.WireAnalysis, len(report.Analyses))
	for _, a := range report.Analyses {
		analyses[a.CircuitID] = a
	}

	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
		cypher := `MERGE (s:Schematic {id: $id})
		           SET s.run_id = $runID, s.generated_at = $generatedAt`
		if _, err := tx.Run(ctx, cypher, map[string]any{
			"id": schematicID, "runID": report.RunID, "generatedAt": report.GeneratedAt.Format("2006-01-02T15:04:05Z"),
		}); err != nil {
			return nil, err
		}

		for _, c := range components {
			cypher = `MERGE (n:Component {ref: $ref})
			          SET n += $props
			          WITH n
			          MATCH (s:Schematic {id: $schematic})
			          MERGE (s)-[:HAS_COMPONENT]->(n)`
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"ref": c.Ref, "schematic": schematicID, "props": componentToMap(c),
			}); err != nil {
				return nil, err
			}
		}

		for _, w := range report.Connections {
			props := connectionToMap(w)
			if a, ok := analyses[w.CircuitID]; ok {
				for k, v := range analysisToMap(a) {
					props[k] = v
				}
			}
			cypher = `MATCH (a:Component {ref: $from}), (b:Component {ref: $to})
			          MERGE (a)-[w:CONNECTS_TO {circuit_id: $circuitID}]->(b)
			          SET w += $props`
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"from": w.From.Component, "to": w.To.Component,
				"circuitID": w.CircuitID, "props": props,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// FindCircuit returns the persisted wire records sharing a circuit key.
func (s *Store) FindCircuit(ctx context.Context, circuitKey string) ([]WireRecord, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (a:Component)-[w:CONNECTS_TO]->(b:Component)
	           WHERE w.circuit_key = $key
	           RETURN a.ref AS from, b.ref AS to, w
	           ORDER BY w.circuit_id`
	result, err := sess.Run(ctx, cypher, map[string]any{"key": circuitKey})
	if err != nil {
		return nil, err
	}
	return collectWires(ctx, result)
}

// TracePath finds the shortest electrical path between two components and
// returns the component refs along it.
func (s *Store) TracePath(ctx context.Context, fromRef, toRef string) ([]string, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH p = shortestPath((a:Component {ref: $from})-[:CONNECTS_TO*]-(b:Component {ref: $to}))
	           RETURN nodes(p) AS nodes`
	result, err := sess.Run(ctx, cypher, map[string]any{"from": fromRef, "to": toRef})
	if err != nil {
		return nil, err
	}
	if !result.Next(ctx) {
		return nil, fmt.Errorf("harness: no path from %s to %s", fromRef, toRef)
	}
	nodesVal, ok := result.Record().Get("nodes")
	if !ok {
		return nil, fmt.Errorf("harness: no nodes in path result")
	}
	nodeList, ok := nodesVal.([]any)
	if !ok {
		return nil, fmt.Errorf("harness: unexpected nodes type %T", nodesVal)
	}

	var refs []string
	for _, raw := range nodeList {
		node, ok := raw.(dbtype.Node)
		if !ok {
			continue
		}
		refs = append(refs, strProp(node.Props, "ref"))
	}
	return refs, nil
}

// NodeCounts returns node counts grouped by label.
func (s *Store) NodeCounts(ctx context.Context) (map[string]int64, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (n) RETURN labels(n)[0] AS type, count(*) AS count`
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for result.Next(ctx) {
		rec := result.Record()
		typ, _ := rec.Get("type")
		cnt, _ := rec.Get("count")
		if t, ok := typ.(string); ok {
			if c, ok := cnt.(int64); ok {
				counts[t] = c
			}
		}
	}
	return counts, nil
}

// componentToMap flattens a component into node properties.
func componentToMap(c schematic.Component) map[string]any {
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

// connectionToMap flattens a wire connection into relationship properties.
func connectionToMap(w schematic.WireConnection) map[string]any {
	return map[string]any{
		"circuit_id":    w.CircuitID,
		"circuit_key":   label.CircuitKey(w.CircuitID),
		"from_pin":      w.From.Pin,
		"to_pin":        w.To.Pin,
		"gauge":         int64(w.Gauge),
		"color":         w.Color,
		"length_inches": w.LengthInches,
		"wire_type":     w.WireType,
	}
}

// analysisToMap flattens the analysis figures onto the relationship.
func analysisToMap(a schematic.WireAnalysis) map[string]any {
	return map[string]any{
		"current_amps":         a.CurrentAmps,
		"resistance_ohms":      a.ResistanceOhms,
		"voltage_drop_volts":   a.VoltageDropVolts,
		"voltage_drop_percent": a.VoltageDropPercent,
		"ampacity_amps":        a.AmpacityAmps,
		"utilization_percent":  a.UtilizationPercent,
		"power_loss_watts":     a.PowerLossWatts,
	}
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
