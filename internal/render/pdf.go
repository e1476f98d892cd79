package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joelkehle/report-composer/internal/docmodel"
)

// PDFRenderer renders a composed document to PDF via headless Chromium.
type PDFRenderer struct {
	chromePath string
	timeout    time.Duration
}

type PDFOption func(*PDFRenderer)

// WithChromePath pins the browser binary instead of probing well-known
// locations.
func WithChromePath(path string) PDFOption {
	return func(r *PDFRenderer) { r.chromePath = path }
}

func WithRenderTimeout(d time.Duration) PDFOption {
	return func(r *PDFRenderer) { r.timeout = d }
}

func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{
		chromePath: detectChromePath(),
		timeout:    30 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render flattens the document to HTML and prints it through Chromium's PDF
// engine with the report page geometry.
func (r *PDFRenderer) Render(ctx context.Context, doc *docmodel.Document, title string) ([]byte, error) {
	htmlDoc, err := BuildHTML(doc, title)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				WithMarginTop(0.6).
				WithMarginBottom(0.75).
				WithMarginLeft(0.6).
				WithMarginRight(0.6).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return pdf, nil
}

const reportCSS = `
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
body{font-family:"Inter","Helvetica Neue",Arial,sans-serif;font-size:10.5pt;color:#1c1917;margin:0;padding:0.5rem;}
.report{max-width:900px;margin:0 auto;}
h2{font-size:13pt;font-weight:700;color:#404040;letter-spacing:0.01em;margin:1.1em 0 0.5em;}
table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:9pt;margin:0.6em 0;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
div.page-break{break-after:page;page-break-after:always;height:0;}
@media print{ @page{size:letter;margin:14mm;} body{padding:0;} .report{max-width:none;} }
`

// BuildHTML converts the document to the self-contained HTML page the PDF
// printer loads. Exposed for tests; the markup never touches the network.
func BuildHTML(doc *docmodel.Document, title string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(Markdown(doc)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	body := applyPrintHooks(content.String())

	var sb strings.Builder
	sb.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>")
	sb.WriteString(htmlEscape(title))
	sb.WriteString("</title><style>")
	sb.WriteString(reportCSS)
	sb.WriteString("</style></head><body><div class='report'>")
	sb.WriteString(body)
	sb.WriteString("</div></body></html>")
	return sb.String(), nil
}

var hrRe = regexp.MustCompile(`<hr\s*/?>`)

// applyPrintHooks turns the thematic breaks the Markdown export emits for
// page breaks into elements the print engine honors as page boundaries.
func applyPrintHooks(contentHTML string) string {
	return hrRe.ReplaceAllString(contentHTML, `<div class="page-break"></div>`)
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
