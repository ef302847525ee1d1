package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/vndb-mcp/pkg/models"
	"github.com/pario-ai/vndb-mcp/pkg/vndb"
)

type fakeConn struct {
	resp    *vndb.Response
	err     error
	queries []vndb.Query
	closed  int
}

func (c *fakeConn) VN(_ context.Context, q vndb.Query) (*vndb.Response, error) {
	c.queries = append(c.queries, q)
	return c.resp, c.err
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

func facadeFor(conn *fakeConn) *Facade {
	return New(OpenerFunc(func(context.Context) (Conn, error) { return conn, nil }))
}

func decodeVN(t *testing.T, s string) vndb.VN {
	t.Helper()
	var vn vndb.VN
	require.NoError(t, json.Unmarshal([]byte(s), &vn))
	return vn
}

func TestSearchMapsAndTruncates(t *testing.T) {
	conn := &fakeConn{resp: &vndb.Response{Results: []vndb.VN{
		decodeVN(t, `{"id":"v4","title":"Clannad","released":"2004-04-28","image":{"url":"https://img/v4.jpg"}}`),
		decodeVN(t, `{"id":"v1","title":"Other"}`),
		decodeVN(t, `{"id":"v2","title":"Third"}`),
	}}}

	got, err := facadeFor(conn).Search(context.Background(), "Clannad", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "v4", got[0].ID)
	require.NotNil(t, got[0].ImageURL)
	assert.Equal(t, "https://img/v4.jpg", *got[0].ImageURL)
	assert.Nil(t, got[1].Released)
	assert.Nil(t, got[1].ImageURL)

	require.Len(t, conn.queries, 1)
	assert.Equal(t, 2, conn.queries[0].Results)
	assert.Equal(t, 1, conn.closed)
}

func TestDetailRoundTripAllFields(t *testing.T) {
	conn := &fakeConn{resp: &vndb.Response{Results: []vndb.VN{decodeVN(t, `{
		"id":"v17","title":"Ever17","aliases":["E17","Ever 17"],
		"image":{"url":"https://img/v17.jpg"},"length":4,"description":"Underwater park.",
		"rating":87.5,"languages":["ja","en"],"platforms":["win","ps2"],
		"tags":[{"id":"g1","name":"Mystery"},{"id":"g2","name":"Sci-fi"}]}`)}}}

	got, err := facadeFor(conn).Detail(context.Background(), "v17")
	require.NoError(t, err)

	length, rating := 4, 87.5
	desc, img := "Underwater park.", "https://img/v17.jpg"
	assert.Equal(t, &models.VnDetail{
		ID:          "v17",
		Title:       "Ever17",
		Aliases:     []string{"E17", "Ever 17"},
		ImageURL:    &img,
		Length:      &length,
		Description: &desc,
		Rating:      &rating,
		Languages:   []string{"ja", "en"},
		Platforms:   []string{"win", "ps2"},
		Tags:        []string{"Mystery", "Sci-fi"},
	}, got)
	assert.Equal(t, 1, conn.closed)
}

func TestDetailNoOptionalFields(t *testing.T) {
	conn := &fakeConn{resp: &vndb.Response{Results: []vndb.VN{decodeVN(t, `{"id":"v9","title":"Bare"}`)}}}

	got, err := facadeFor(conn).Detail(context.Background(), "v9")
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"v9","title":"Bare","aliases":[],"image_url":null,"length":null,
		"description":null,"rating":null,"languages":[],"platforms":[],"tags":[]}`, string(data))
}

func TestDetailNotFound(t *testing.T) {
	conn := &fakeConn{resp: &vndb.Response{}}

	_, err := facadeFor(conn).Detail(context.Background(), "v999999")
	var qe *models.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, models.KindNotFound, qe.Kind)
	assert.Equal(t, "Visual novel with ID v999999 not found", qe.Message)
	assert.Equal(t, 1, conn.closed)
}

func TestSessionClosedOnFailure(t *testing.T) {
	conn := &fakeConn{err: &vndb.APIError{StatusCode: 500, Message: "boom"}}

	_, err := facadeFor(conn).Search(context.Background(), "q", 5)
	var qe *models.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, models.KindUnexpected, qe.Kind)
	assert.Contains(t, qe.Details, "vndb.APIError")
	assert.Contains(t, qe.Details, "boom")
	assert.Equal(t, 1, conn.closed)
}

func TestOpenFailureIsClassified(t *testing.T) {
	f := New(OpenerFunc(func(context.Context) (Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}))
	_, err := f.Detail(context.Background(), "v1")
	var qe *models.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, models.KindConnection, qe.Kind)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, models.KindTimeout},
		{"wrapped deadline", errors.Wrap(context.DeadlineExceeded, "query"), models.KindTimeout},
		{"net timeout", timeoutErr{}, models.KindTimeout},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, models.KindConnection},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.vndb.org"}, models.KindConnection},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), models.KindConnection},
		{"api", &vndb.APIError{StatusCode: 429, Message: "throttled"}, models.KindUnexpected},
		{"plain", errors.New("something odd"), models.KindUnexpected},
		{"canceled", context.Canceled, models.KindUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err).Kind)
		})
	}
	assert.Nil(t, Classify(nil))
}

func TestClassifyKindComesFromTypeNotMessage(t *testing.T) {
	// A message that mentions a timeout must not be treated as one.
	qe := Classify(errors.New("connection timed out"))
	assert.Equal(t, models.KindUnexpected, qe.Kind)
}

func TestFacadeAgainstClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := vndb.New(vndb.Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := New(ClientOpener(client)).Search(context.Background(), "q", 1)

	var qe *models.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, models.KindTimeout, qe.Kind)
}
