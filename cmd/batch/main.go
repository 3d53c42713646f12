package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/dietplan/internal/batch"
	"github.com/fdg312/dietplan/internal/blob"
	"github.com/fdg312/dietplan/internal/config"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/metrics"
	"github.com/fdg312/dietplan/internal/planner"
)

const usage = "usage: batch <survey.csv> [-all] [-rows 0,4,7]"

func main() {
	path, all, rows := parseArgs(os.Args[1:])

	cfg := config.Load()
	lg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL logger: %v", err)
	}
	defer lg.Sync()

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open survey: %v", err)
	}
	survey, err := batch.ReadSurvey(f)
	f.Close()
	if err != nil {
		log.Fatalf("read survey: %v", err)
	}
	if len(survey.Rows) == 0 {
		log.Fatalf("%s has no respondents to process", path)
	}

	var indices []int
	switch {
	case all:
	case rows != "":
		if indices, err = batch.ParseSelection([]string{rows}); err != nil {
			log.Fatalf("-rows: %v", err)
		}
	default:
		indices = chooseRows(survey)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	pl, err := planner.FromConfig(ctx, cfg, nil, lg, m)
	if err != nil {
		log.Fatalf("planner setup: %v", err)
	}
	store, mode, err := blob.NewBlobStore(ctx, cfg.Blob, lg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	runner := batch.NewRunner(pl, store, batch.Options{
		Log:     lg,
		Metrics: m,
		Progress: func(r batch.RowResult) {
			fmt.Printf("  [%d] %s: %s\n", r.Index, r.Name, r.Status)
		},
	})
	rep, err := runner.Run(ctx, survey, indices)
	if rep != nil {
		fmt.Println()
		_ = rep.WriteSummary(os.Stdout)
		if rep.BundleKey != "" {
			fmt.Printf("\nBundle: %s (%s store)\n", rep.BundleKey, mode)
		}
	}
	if err != nil {
		log.Fatalf("batch run: %v", err)
	}
}

// parseArgs accepts the survey path before or after the flags.
func parseArgs(args []string) (path string, all bool, rows string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	fs.BoolVar(&all, "all", false, "process every row")
	fs.StringVar(&rows, "rows", "", "comma-separated row indices")
	fs.Usage = func() { fmt.Fprintln(os.Stderr, usage); fs.PrintDefaults() }

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path, args = args[0], args[1:]
	}
	_ = fs.Parse(args)
	if path == "" {
		path = fs.Arg(0)
	}
	if path == "" {
		fs.Usage()
		os.Exit(2)
	}
	return path, all, rows
}

// chooseRows lists respondents and asks which to process.
func chooseRows(survey *batch.Survey) []int {
	fmt.Println("Respondents:")
	for _, r := range survey.Rows {
		name := r.Name()
		if name == "" {
			name = "(no name)"
		}
		fmt.Printf("  [%d] %s\n", r.Index, name)
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Rows to process (e.g. 0,4,7 or ALL): ")
		if !in.Scan() {
			log.Fatal("no selection given")
		}
		indices, err := batch.ParseSelection([]string{in.Text()})
		if err != nil {
			fmt.Println(" ", err)
			continue
		}
		return indices
	}
}
