// Command csvgen writes deterministic synthetic CSV for benchmarking
// and verification runs. The content is a function of the flags alone,
// so two runs with the same flags produce byte-identical files.
//
// Example:
//
//	csvgen -rows=1000000 -cols=5 -with-header > big.csv
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
)

var (
	flagRows       = flag.Uint64("rows", 0, "Number of data rows to generate")
	flagCols       = flag.Int("cols", 3, "Number of columns per row")
	flagDelim      = flag.String("delim", ",", "Field delimiter")
	flagWithHeader = flag.Bool("with-header", false, "Emit a header row (sku, col1, col2, ...)")
	flagOut        = flag.String("out", "", "Output file (default: stdout)")
)

func main() {
	flag.Parse()

	if *flagRows == 0 {
		log.Fatal("-rows must be > 0")
	}
	if *flagCols < 1 {
		log.Fatal("-cols must be >= 1")
	}

	w := os.Stdout
	if *flagOut != "" {
		f, err := os.Create(*flagOut)
		if err != nil {
			log.Fatalf("create %s: %v", *flagOut, err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatalf("close %s: %v", *flagOut, err)
			}
		}()
		w = f
	}

	out := bufio.NewWriterSize(w, 1<<20)
	if err := generate(out, *flagRows, *flagCols, *flagDelim, *flagWithHeader); err != nil {
		log.Fatalf("generate: %v", err)
	}
	if err := out.Flush(); err != nil {
		log.Fatalf("flush: %v", err)
	}
}

func generate(out *bufio.Writer, rows uint64, cols int, delim string, withHeader bool) error {
	if withHeader {
		if _, err := out.WriteString("sku"); err != nil {
			return err
		}
		for c := 1; c < cols; c++ {
			if _, err := fmt.Fprintf(out, "%scol%d", delim, c); err != nil {
				return err
			}
		}
		if err := out.WriteByte('\n'); err != nil {
			return err
		}
	}

	for i := uint64(0); i < rows; i++ {
		if _, err := fmt.Fprintf(out, "SKU%010d", i); err != nil {
			return err
		}
		for c := 1; c < cols; c++ {
			if _, err := fmt.Fprintf(out, "%sv%d_%d", delim, c, i); err != nil {
				return err
			}
		}
		if err := out.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}
