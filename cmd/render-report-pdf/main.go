package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joelkehle/report-composer/internal/config"
	"github.com/joelkehle/report-composer/internal/docmodel"
	"github.com/joelkehle/report-composer/internal/observability"
	"github.com/joelkehle/report-composer/internal/render"
)

func main() {
	inputPath := flag.String("input", "", "Path to composed document JSON")
	outputPath := flag.String("output", "report.pdf", "Path to write the PDF")
	htmlPath := flag.String("html", "", "Optional path to write the intermediate HTML")
	title := flag.String("title", "Publication Search Report", "Document title")
	configPath := flag.String("config", "composer.yaml", "Path to composer config YAML")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	if stop := observability.Init(ctx, "render-report-pdf", "1.0"); stop != nil {
		defer stop(ctx)
	}

	doc, err := docmodel.LoadFile(*inputPath)
	if err != nil {
		log.Fatalf("load document: %v", err)
	}

	if *htmlPath != "" {
		html, err := render.BuildHTML(doc, *title)
		if err != nil {
			log.Fatalf("build html: %v", err)
		}
		if err := os.WriteFile(*htmlPath, []byte(html), 0o644); err != nil {
			log.Fatalf("write html: %v", err)
		}
	}

	opts := []render.PDFOption{render.WithRenderTimeout(cfg.RenderTimeout())}
	if cfg.Render.ChromePath != "" {
		opts = append(opts, render.WithChromePath(cfg.Render.ChromePath))
	}
	renderer := render.NewPDFRenderer(opts...)

	pdf, err := renderer.Render(ctx, doc, *title)
	if err != nil {
		log.Fatalf("render pdf: %v", err)
	}
	if err := os.WriteFile(*outputPath, pdf, 0o644); err != nil {
		log.Fatalf("write pdf: %v", err)
	}
	log.Printf("wrote %s (%d bytes)", *outputPath, len(pdf))
}
