package httpclient

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const summaryMaxLen = 160

// Summary returns a short single-line description of a response body for logs.
// HTML pages, typically from proxies or misrouted grids, are reduced to their
// title or visible text.
func Summary(res *Result) string {
	if res == nil || res.Body == "" {
		return ""
	}
	if isHTML(res) {
		if s := htmlSummary(res.Body); s != "" {
			return truncate(s)
		}
	}
	return truncate(collapseSpace(res.Body))
}

func isHTML(res *Result) bool {
	if strings.Contains(strings.ToLower(res.Info.ContentType), "html") {
		return true
	}
	head := strings.ToLower(res.Body[:min(len(res.Body), 64)])
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func htmlSummary(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	if title := collapseSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	doc.Find("script, style").Remove()
	return collapseSpace(doc.Find("body").Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= summaryMaxLen {
		return s
	}
	return string(r[:summaryMaxLen]) + "..."
}
