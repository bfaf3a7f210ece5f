package transcript

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SnapshotPage is a static HTML document, typically a watch page saved from a
// browser. Clicks have no effect.
type SnapshotPage struct {
	doc    *goquery.Document
	markup string
}

// NewSnapshotPage parses markup into a SnapshotPage.
func NewSnapshotPage(markup string) (*SnapshotPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing page snapshot: %w", err)
	}
	return &SnapshotPage{doc: doc, markup: markup}, nil
}

// LoadSnapshotPage reads an HTML file from disk.
func LoadSnapshotPage(path string) (*SnapshotPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page snapshot: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading page snapshot: %w", err)
	}
	return NewSnapshotPage(string(data))
}

func (p *SnapshotPage) QueryAll(_ context.Context, selector string) ([]Element, error) {
	return snapshotElements(p.doc.Find(selector)), nil
}

func (p *SnapshotPage) Markup(context.Context) (string, error) {
	return p.markup, nil
}

type snapshotElement struct {
	sel *goquery.Selection
}

func snapshotElements(sel *goquery.Selection) []Element {
	elems := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elems = append(elems, snapshotElement{sel: s})
	})
	return elems
}

func (e snapshotElement) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e snapshotElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e snapshotElement) Query(_ context.Context, selector string) (Element, bool, error) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false, nil
	}
	return snapshotElement{sel: found}, true, nil
}

func (e snapshotElement) Click(context.Context) error { return nil }
