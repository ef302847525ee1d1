// Package remote wraps the VNDB client: one session per call, records mapped
// to models, and every failure classified into a models.QueryError.
package remote

import (
	"context"
	"fmt"

	"github.com/pario-ai/vndb-mcp/pkg/models"
	"github.com/pario-ai/vndb-mcp/pkg/vndb"
)

// Conn is a connection-scoped VNDB session.
type Conn interface {
	VN(ctx context.Context, q vndb.Query) (*vndb.Response, error)
	Close() error
}

// Opener opens a Conn for a single call.
type Opener interface {
	Open(ctx context.Context) (Conn, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Conn, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context) (Conn, error) { return f(ctx) }

// ClientOpener opens sessions on a vndb.Client.
func ClientOpener(c *vndb.Client) Opener {
	return OpenerFunc(func(ctx context.Context) (Conn, error) {
		s, err := c.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Facade issues VNDB queries. All returned errors are *models.QueryError.
type Facade struct {
	opener Opener
}

// New creates a Facade.
func New(o Opener) *Facade {
	return &Facade{opener: o}
}

// Search returns up to limit summaries matching query, in VNDB rank order.
func (f *Facade) Search(ctx context.Context, query string, limit int) ([]models.VnSummary, error) {
	resp, err := f.query(ctx, vndb.SearchQuery(query, limit))
	if err != nil {
		return nil, err
	}

	results := resp.Results
	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}
	out := make([]models.VnSummary, 0, len(results))
	for _, vn := range results {
		out = append(out, toSummary(vn))
	}
	return out, nil
}

// Detail returns the full record for id, or a NotFound error.
func (f *Facade) Detail(ctx context.Context, id string) (*models.VnDetail, error) {
	resp, err := f.query(ctx, vndb.DetailQuery(id))
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &models.QueryError{
			Kind:    models.KindNotFound,
			Message: fmt.Sprintf("Visual novel with ID %s not found", id),
		}
	}
	d := toDetail(resp.Results[0])
	return &d, nil
}

// query runs q on a fresh session that is closed on every return path.
func (f *Facade) query(ctx context.Context, q vndb.Query) (resp *vndb.Response, err error) {
	conn, err := f.opener.Open(ctx)
	if err != nil {
		return nil, Classify(err)
	}
	defer func() {
		_ = conn.Close()
	}()

	resp, err = conn.VN(ctx, q)
	if err != nil {
		return nil, Classify(err)
	}
	if resp == nil {
		resp = &vndb.Response{}
	}
	return resp, nil
}

func toSummary(vn vndb.VN) models.VnSummary {
	return models.VnSummary{
		ID:       vn.ID,
		Title:    vn.Title,
		Released: vn.Released,
		ImageURL: imageURL(vn.Image),
	}
}

func toDetail(vn vndb.VN) models.VnDetail {
	tags := make([]string, 0, len(vn.Tags))
	for _, t := range vn.Tags {
		tags = append(tags, t.Name)
	}
	return models.VnDetail{
		ID:          vn.ID,
		Title:       vn.Title,
		Aliases:     orEmpty(vn.Aliases),
		ImageURL:    imageURL(vn.Image),
		Length:      vn.Length,
		Description: vn.Description,
		Rating:      vn.Rating,
		Languages:   orEmpty(vn.Languages),
		Platforms:   orEmpty(vn.Platforms),
		Tags:        tags,
	}
}

func imageURL(img *vndb.Image) *string {
	if img == nil {
		return nil
	}
	return img.URL
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
