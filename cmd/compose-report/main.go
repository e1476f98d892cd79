package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joelkehle/report-composer/internal/claimtext"
	"github.com/joelkehle/report-composer/internal/compose"
	"github.com/joelkehle/report-composer/internal/config"
	"github.com/joelkehle/report-composer/internal/docmodel"
	"github.com/joelkehle/report-composer/internal/observability"
	"github.com/joelkehle/report-composer/internal/render"
	"github.com/joelkehle/report-composer/internal/runlog"
)

func main() {
	requestPath := flag.String("request", "", "Path to composition request JSON")
	templatePath := flag.String("template", "", "Path to blank template document JSON (optional)")
	editedPath := flag.String("edited", "", "Path to hand-edited report document JSON (required for merge mode)")
	outputPath := flag.String("output", "report.json", "Path to write the composed document JSON")
	markdownPath := flag.String("markdown", "", "Optional path to write the Markdown export")
	configPath := flag.String("config", "composer.yaml", "Path to composer config YAML")
	flag.Parse()

	if *requestPath == "" {
		log.Fatal("missing required -request")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	patterns, err := cfg.Patterns()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	if stop := observability.Init(ctx, "compose-report", "1.0"); stop != nil {
		defer stop(ctx)
	}

	var req compose.Request
	raw, err := os.ReadFile(*requestPath)
	if err != nil {
		log.Fatalf("read request: %v", err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Fatalf("decode request: %v", err)
	}

	template := loadDocument(*templatePath)
	var edited *docmodel.Document
	if *editedPath != "" {
		edited = loadDocument(*editedPath)
	}
	if req.Mode == compose.ModeMerge && edited == nil {
		log.Fatal("merge mode requires -edited")
	}

	fetchClaims(ctx, cfg, &req)

	logSink, finish := openRunLog(cfg, req)

	c := compose.New(logSink)
	c.Patterns = patterns
	out, report, err := c.Run(ctx, req, template, edited)
	if err != nil {
		finish("error", nil)
		log.Fatalf("compose: %v", err)
	}
	finish("ok", report)

	if err := out.SaveFile(*outputPath); err != nil {
		log.Fatalf("write output: %v", err)
	}
	if *markdownPath != "" {
		if err := os.WriteFile(*markdownPath, []byte(render.Markdown(out)), 0o644); err != nil {
			log.Fatalf("write markdown: %v", err)
		}
	}

	summary, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(summary))
}

func loadDocument(path string) *docmodel.Document {
	if path == "" {
		return docmodel.New()
	}
	doc, err := docmodel.LoadFile(path)
	if err != nil {
		log.Fatalf("load document %s: %v", path, err)
	}
	return doc
}

// fetchClaims fills in claim fragments from Google Patents when the request
// does not carry them. Best-effort: a failed fetch leaves the map empty and
// composition proceeds.
func fetchClaims(ctx context.Context, cfg config.Config, req *compose.Request) {
	if cfg.ClaimFetch.Disabled || len(req.ClaimFragments) > 0 || req.PatentNumber == "" {
		return
	}
	client := claimtext.NewClient(
		claimtext.WithTimeout(cfg.ClaimFetchTimeout()),
		claimtext.WithLog(func(m string) { log.Print(m) }),
	)
	res := <-client.FetchAsync(ctx, req.PatentNumber)
	if res.Err != nil {
		log.Printf("claim fetch failed, composing without claim text: %v", res.Err)
	}
	req.ClaimFragments = res.Fragments
}

// openRunLog opens the audit store when configured. The returned sink tees
// every composition message to both the store and the process log.
func openRunLog(cfg config.Config, req compose.Request) (compose.LogFn, func(status string, summary any)) {
	tee := func(m string) { log.Print(m) }
	if cfg.RunLogPath == "" {
		return tee, func(string, any) {}
	}
	store, err := runlog.Open(cfg.RunLogPath)
	if err != nil {
		log.Printf("open run log: %v (continuing without audit trail)", err)
		return tee, func(string, any) {}
	}
	runID, err := store.StartRun(string(req.Mode), req.PatentNumber)
	if err != nil {
		log.Printf("start run: %v (continuing without audit trail)", err)
		store.Close()
		return tee, func(string, any) {}
	}
	log.Printf("run %s started mode=%s patent=%s", runID, req.Mode, req.PatentNumber)

	done := false
	finish := func(status string, summary any) {
		if done {
			return
		}
		done = true
		if err := store.FinishRun(runID, status, summary); err != nil {
			log.Printf("finish run: %v", err)
		}
		store.Close()
	}
	return compose.LogFn(store.Sink(runID, tee)), finish
}
