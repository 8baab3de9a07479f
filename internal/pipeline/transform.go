package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
)

const (
	skipShortRow    = "short_row"
	skipUnplaceable = "unplaceable"
)

// ParseStats summarizes one parse of a source file.
type ParseStats struct {
	Rows        int
	ShortRows   int
	Unplaceable int
	Pending     int
	Methods     map[domain.CoordinateMethod]int
}

// ParseResult is the assembled records of a file in row order.
type ParseResult struct {
	Header  []string
	Records []domain.Record
	Stats   ParseStats
}

// Transformer labels, normalizes, and assembles tokenized rows.
type Transformer struct {
	region  domain.Region
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTransformer creates a Transformer for region.
func NewTransformer(region domain.Region, metrics *observability.Metrics, logger *slog.Logger) *Transformer {
	return &Transformer{region: region, metrics: metrics, logger: logger}
}

// Transform assembles every usable data row. rows[0] is the header. Row
// numbers in IDs and logs count the header as row 0.
func (t *Transformer) Transform(rows [][]string) ParseResult {
	res := ParseResult{Stats: ParseStats{Methods: make(map[domain.CoordinateMethod]int)}}
	if len(rows) == 0 {
		return res
	}
	header := domain.NewHeader(rows[0])
	res.Header = header.Names()

	for i := 1; i < len(rows); i++ {
		res.Stats.Rows++
		raw, ok := header.Row(rows[i])
		if !ok {
			res.Stats.ShortRows++
			t.skip(skipShortRow, i, len(rows[i]))
			continue
		}
		rec, ok := domain.AssembleRecord(i, raw, t.region)
		if !ok {
			res.Stats.Unplaceable++
			t.skip(skipUnplaceable, i, len(rows[i]))
			continue
		}
		if rec.Placement.Kind() == domain.PendingGeocode {
			res.Stats.Pending++
		}
		res.Stats.Methods[rec.Method]++
		t.metrics.CoordinateMethods.WithLabelValues(string(rec.Method)).Inc()
		res.Records = append(res.Records, rec)
	}
	t.metrics.RowsProcessed.Add(float64(res.Stats.Rows))
	return res
}

func (t *Transformer) skip(reason string, row, columns int) {
	t.metrics.RowsSkipped.WithLabelValues(reason).Inc()
	t.logger.Debug("row skipped", "reason", reason, "row", row, "columns", columns)
}
