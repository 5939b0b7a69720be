// Package corpus finds and reads the source documents of a training run.
package corpus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/cognicore/docsim/pkg/docsim/ingest"
)

// Discover lists the regular files in dir whose names match pattern, sorted
// by path. A missing dir is an error; an empty match is not.
func Discover(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus dir %s: not a directory", dir)
	}
	if pattern == "" {
		pattern = "*"
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("corpus pattern %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// Load reads every path into a document labeled with its base name. Files
// that cannot be read are logged and skipped. HTML and PDF files are reduced
// to their text.
func Load(paths []string, log *logrus.Entry) []ingest.Doc {
	docs := make([]ingest.Doc, 0, len(paths))
	for _, p := range paths {
		text, err := readText(p)
		if err != nil {
			log.WithError(err).WithField("path", p).Warn("skipping unreadable file")
			continue
		}
		docs = append(docs, ingest.Doc{Label: filepath.Base(p), Text: text})
	}
	log.WithField("docs", len(docs)).Debug("corpus loaded")
	return docs
}

func readText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return extractPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if ext == ".html" || ext == ".htm" {
		return StripHTML(string(data)), nil
	}
	return string(data), nil
}

// extractPDF returns the plain text layer of a PDF file.
func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// StripHTML returns the text content of an HTML document. Script and style
// contents are dropped.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}
