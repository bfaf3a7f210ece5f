package transcript

import (
	"context"
	"io"
)

// Element is a node of a host page.
type Element interface {
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// Query returns the first descendant matching selector.
	Query(ctx context.Context, selector string) (Element, bool, error)
	Click(ctx context.Context) error
}

// HostPage is a document the transcript can be read from: a live browser tab, a
// saved snapshot, or nothing at all.
type HostPage interface {
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// Markup returns the page's raw HTML, or "" when the host has none.
	Markup(ctx context.Context) (string, error)
}

// PageOpener yields the host page for a video. Pages that hold resources
// implement io.Closer.
type PageOpener interface {
	OpenPage(ctx context.Context, videoID string) (HostPage, error)
}

// NoPage is a host without a DOM or markup; acquisition falls through to the network.
type NoPage struct{}

func (NoPage) QueryAll(context.Context, string) ([]Element, error) { return nil, nil }

func (NoPage) Markup(context.Context) (string, error) { return "", nil }

// StaticOpener hands out the same page for every video.
type StaticOpener struct {
	Page HostPage
}

func (o StaticOpener) OpenPage(context.Context, string) (HostPage, error) {
	if o.Page == nil {
		return NoPage{}, nil
	}
	return o.Page, nil
}

func closePage(page HostPage) error {
	if c, ok := page.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
