// Command inspect runs the ingestion pipeline over a local CSV or XLSX file
// and prints what it made of each row: how coordinates were parsed, which rows
// were dropped, and which addresses would be sent to the geocoder.
//
// Usage:
//
//	go run ./cmd/inspect -file data/metadata-1759267238657.csv
//	go run ./cmd/inspect -file sites.xlsx -center 38.627,-90.1994 -viewport -top 20
//	go run ./cmd/inspect -file sites.csv -json > locations.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/crossroads-etl-service/internal/adapter/geocache"
	"github.com/couchcryptid/crossroads-etl-service/internal/adapter/googlemaps"
	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/geocode"
	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
	"github.com/couchcryptid/crossroads-etl-service/internal/pipeline"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	file      string
	center    *domain.Point
	viewport  bool
	top       int
	asJSON    bool
	geocode   bool
	cacheFile string
}

func parseFlags(args []string) (options, error) {
	var (
		opts   options
		center string
	)
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.StringVar(&opts.file, "file", "", "path to a CSV or XLSX source file")
	fs.StringVar(&center, "center", "", "reference point as lat,lng")
	fs.BoolVar(&opts.viewport, "viewport", false, "rank as a viewport request")
	fs.IntVar(&opts.top, "top", 10, "number of ranked records to print")
	fs.BoolVar(&opts.asJSON, "json", false, "print the flattened records as JSON instead of a summary")
	fs.BoolVar(&opts.geocode, "geocode", false, "geocode pending addresses (needs GOOGLE_MAPS_API_KEY)")
	fs.StringVar(&opts.cacheFile, "cache-file", "geocoding-cache.json", "geocode cache file used with -geocode")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.file == "" {
		fs.Usage()
		return opts, errors.New("-file is required")
	}
	if center != "" {
		p, err := parseCenter(center)
		if err != nil {
			return opts, err
		}
		opts.center = &p
	}
	return opts, nil
}

func parseCenter(s string) (domain.Point, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Point{}, fmt.Errorf("center %q: want lat,lng", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("center latitude: %w", err)
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("center longitude: %w", err)
	}
	return domain.Point{Lat: la, Lng: ln}, nil
}

func run(args []string, out io.Writer) error {
	_ = godotenv.Load(".env")

	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	rows, err := pipeline.Decode(filepath.Base(opts.file), data)
	if err != nil {
		return fmt.Errorf("decode source: %w", err)
	}

	logger := observability.NewLogger("warn", "text")
	// Unregistered: nothing scrapes a one-shot command.
	metrics := observability.NewMetricsForTesting()
	region := domain.MissouriRegion()
	parsed := pipeline.NewTransformer(region, metrics, logger).Transform(rows)
	records := parsed.Records

	if opts.geocode {
		records, err = geocodeRecords(records, opts.cacheFile, region, metrics)
		if err != nil {
			return err
		}
	}

	ranked, mode := domain.Rank(records, opts.center, opts.viewport, domain.DefaultRankPolicy())

	if opts.asJSON {
		flat := make([]domain.LocationRecord, len(ranked))
		for i := range ranked {
			flat[i] = ranked[i].Flatten()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(flat)
	}
	return printSummary(out, opts, parsed, records, ranked, mode)
}

func geocodeRecords(records []domain.Record, cacheFile string, region domain.Region, metrics *observability.Metrics) ([]domain.Record, error) {
	key := os.Getenv("GOOGLE_MAPS_API_KEY")
	if key == "" {
		return nil, errors.New("-geocode needs GOOGLE_MAPS_API_KEY")
	}
	logger := observability.NewLogger("info", "text")
	ctx := context.Background()

	cache := geocode.NewCache(geocache.NewFileStore(cacheFile), clockwork.NewRealClock(), metrics, logger)
	if err := cache.Load(ctx); err != nil {
		logger.Warn("geocode cache load failed, starting empty", "error", err)
	}
	client := googlemaps.NewClient(key, 5*time.Second, logger)
	resolver := geocode.NewResolver(client, cache, region, metrics, logger, geocode.WithRateLimit(40, geocode.DefaultBatchSize))
	batcher := geocode.NewBatcher(resolver, geocode.DefaultBatchSize, logger)

	var (
		idx   []int
		addrs []string
	)
	for i, r := range records {
		if r.Placement.Kind() == domain.PendingGeocode {
			idx = append(idx, i)
			addrs = append(addrs, r.Placement.FullAddress())
		}
	}
	results, stats := batcher.ResolveAll(ctx, addrs)
	for j, res := range results {
		if res.Err == nil {
			records[idx[j]] = records[idx[j]].Resolve(res.Point)
		}
	}
	logger.Info("geocoding finished", "resolved", stats.Resolved, "failed", stats.Failed)
	return records, cache.Close(ctx)
}

func printSummary(out io.Writer, opts options, parsed pipeline.ParseResult, records []domain.Record, ranked []domain.Ranked, mode domain.RankMode) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", opts.file)
	fmt.Fprintf(tw, "columns\t%d\n", len(parsed.Header))
	fmt.Fprintf(tw, "data rows\t%d\n", parsed.Stats.Rows)
	fmt.Fprintf(tw, "short rows dropped\t%d\n", parsed.Stats.ShortRows)
	fmt.Fprintf(tw, "unplaceable rows dropped\t%d\n", parsed.Stats.Unplaceable)
	fmt.Fprintf(tw, "records\t%d\n", len(records))

	methods := make([]string, 0, len(parsed.Stats.Methods))
	for m := range parsed.Stats.Methods {
		methods = append(methods, string(m))
	}
	sort.Strings(methods)
	for _, m := range methods {
		fmt.Fprintf(tw, "  method %s\t%d\n", m, parsed.Stats.Methods[domain.CoordinateMethod(m)])
	}

	pending := 0
	for _, r := range records {
		if r.Placement.Kind() == domain.PendingGeocode {
			pending++
		}
	}
	fmt.Fprintf(tw, "pending geocode\t%d\n", pending)
	fmt.Fprintf(tw, "rank mode\t%s\n", mode)
	if err := tw.Flush(); err != nil {
		return err
	}

	if opts.top <= 0 || len(ranked) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLAT\tLNG\tMILES\tSTATUS")
	for _, r := range ranked[:min(opts.top, len(ranked))] {
		loc := r.Flatten()
		miles := "-"
		if loc.Distance != nil {
			miles = strconv.FormatFloat(*loc.Distance, 'f', 1, 64)
		}
		status := r.Record.Placement.Kind().String()
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%s\t%s\n", loc.ID, loc.OrganizationName, loc.Lat, loc.Lng, miles, status)
	}
	return tw.Flush()
}
