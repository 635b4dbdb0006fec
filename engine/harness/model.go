package harness

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// WireRecord is a wire connection as read back from the graph.
type WireRecord struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	CircuitID  string  `json:"circuit_id"`
	CircuitKey string  `json:"circuit_key"`
	FromPin    string  `json:"from_pin"`
	ToPin      string  `json:"to_pin"`
	Gauge      int     `json:"gauge"`
	Color      string  `json:"color"`
	Length     float64 `json:"length_inches"`
}

// collectWires drains a (from, to, w) result into wire records.
func collectWires(ctx context.Context, result CypherResult) ([]WireRecord, error) {
	var wires []WireRecord
	for result.Next(ctx) {
		rec := result.Record()
		var w WireRecord
		if v, ok := rec.Get("from"); ok {
			w.From, _ = v.(string)
		}
		if v, ok := rec.Get("to"); ok {
			w.To, _ = v.(string)
		}
		rel, ok := rec.Get("w")
		if !ok {
			continue
		}
		r, ok := rel.(dbtype.Relationship)
		if !ok {
			continue
		}
		w.CircuitID = strProp(r.Props, "circuit_id")
		w.CircuitKey = strProp(r.Props, "circuit_key")
		w.FromPin = strProp(r.Props, "from_pin")
		w.ToPin = strProp(r.Props, "to_pin")
		w.Color = strProp(r.Props, "color")
		if g, ok := r.Props["gauge"].(int64); ok {
			w.Gauge = int(g)
		}
		if l, ok := r.Props["length_inches"].(float64); ok {
			w.Length = l
		}
		wires = append(wires, w)
	}
	return wires, nil
}
