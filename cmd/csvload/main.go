// Command csvload streams a delimited file through the ingestion
// library into a Postgres table using COPY. Header names become column
// names (lowercased, spaces to underscores); every value is loaded as
// text, with empty fields as NULL. Memory stays bounded: one batch of
// rows at a time.
//
// Example:
//
//	csvload -path=skus.csv.gz -dsn=postgres://localhost/db \
//	        -table=public.skus -required=sku -create-table
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"csvingest"
	"csvingest/internal/metrics"
	"csvingest/internal/metrics/prompush"
	"csvingest/internal/storage/postgres"
)

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

var (
	flagPath      = flag.String("path", "", "Local file to load (may be .gz or .zst)")
	flagDSN       = flag.String("dsn", "", "Postgres connection string")
	flagTable     = flag.String("table", "", "Fully qualified target table, e.g. public.skus")
	flagRequired  stringList
	flagDelimiter = flag.String("delimiter", ",", "Field delimiter (single byte)")
	flagBatch     = flag.Int("batch", 5000, "Rows per COPY batch")
	flagCreate    = flag.Bool("create-table", false, "Create the table (all text columns) when absent")
	flagGateway   = flag.String("pushgateway", "", "Prometheus Pushgateway URL; load metrics are pushed when set")
	flagJob       = flag.String("job", "csvload", "Metrics job name")
)

func init() {
	flag.Var(&flagRequired, "required", "Required column name (repeatable)")
}

func main() {
	flag.Parse()

	if *flagPath == "" || *flagDSN == "" || *flagTable == "" {
		log.Fatal("-path, -dsn and -table are required")
	}
	if *flagDelimiter == "" {
		log.Fatal("-delimiter must not be empty")
	}

	if *flagGateway != "" {
		backend, err := prompush.NewBackend(*flagJob, *flagGateway)
		if err != nil {
			log.Fatalf("pushgateway: %v", err)
		}
		metrics.SetBackend(backend)
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics flush: %v", err)
			}
		}()
	}

	ctx := context.Background()

	rc, resolved, err := csvingest.ReaderFromPath(ctx, *flagPath)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer rc.Close()
	log.Printf("source classified: compression=%s charset=%s", resolved.Compression, resolved.Charset)

	rr := csvingest.NewRecordReader(rc, (*flagDelimiter)[0])
	head, err := rr.Read()
	if err == io.EOF {
		log.Fatal("input is empty")
	}
	if err != nil {
		log.Fatalf("read header: %v", err)
	}
	headers := make([]string, head.Len())
	for i := range headers {
		headers[i] = head.Text(i)
	}
	headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")

	if _, err := csvingest.ResolveFields(headers, flagRequired); err != nil {
		log.Fatalf("validate: %v", err)
	}

	columns := make([]string, len(headers))
	for i, h := range headers {
		columns[i] = normalizeColumn(h)
	}

	repo, closeRepo, err := postgres.NewRepository(ctx, postgres.Config{
		DSN:     *flagDSN,
		Table:   *flagTable,
		Columns: columns,
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer closeRepo()

	if *flagCreate {
		if err := repo.EnsureTable(ctx); err != nil {
			log.Fatalf("ensure table: %v", err)
		}
	}

	total, err := load(ctx, rr, columns, repo)
	metrics.RecordRows(*flagJob, "loaded", total)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	log.Printf("loaded %d rows into %s", total, *flagTable)
}

// load streams records into COPY batches. The producer and the loader
// run concurrently; either failing cancels the other.
func load(ctx context.Context, rr *csvingest.RecordReader, columns []string, repo *postgres.Repository) (int64, error) {
	rows := make(chan []any, 1024)

	var total int64
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := postgres.LoadBatches(gctx, rows, *flagBatch, repo.CopyRows)
		total = n
		return err
	})

	g.Go(func() error {
		defer close(rows)
		for {
			rec, err := rr.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			row := make([]any, len(columns))
			for i := range columns {
				if i >= rec.Len() {
					continue
				}
				if v := rec.Text(i); v != "" {
					row[i] = v
				}
			}

			select {
			case rows <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	err := g.Wait()
	return total, err
}

// normalizeColumn turns a header cell into a safe column name the same
// way the header mapping does elsewhere: trim, lowercase, spaces to
// underscores.
func normalizeColumn(h string) string {
	h = strings.TrimSpace(h)
	h = strings.ToLower(h)
	return strings.ReplaceAll(h, " ", "_")
}
