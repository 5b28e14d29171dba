// Package datasource fetches one page of rows for a table state.
//
// A Source is a pure request/response boundary: it never retries, never
// caches and knows nothing about which response is current. Deciding whether
// a result is stale belongs to the caller.
package datasource

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicdesk/console/pkg/apiclient"
	"github.com/clinicdesk/console/pkg/tablestate"
)

const tracerName = "github.com/clinicdesk/console/pkg/datasource"

// Page is one page of rows plus the total number of matching rows.
type Page[R any] struct {
	Rows  []R
	Total int
}

// Source fetches the page described by a table state.
type Source[R any] interface {
	FetchPage(ctx context.Context, st tablestate.TableState) (Page[R], error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[R any] func(ctx context.Context, st tablestate.TableState) (Page[R], error)

// FetchPage calls f(ctx, st).
func (f SourceFunc[R]) FetchPage(ctx context.Context, st tablestate.TableState) (Page[R], error) {
	return f(ctx, st)
}

// listResponse is the backend's paginated envelope.
type listResponse[R any] struct {
	Data       []R `json:"data"`
	Pagination struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

// HTTPSource fetches pages from a paginated backend resource such as
// /user-access. The request query uses the same parameter names as the
// browser URL.
type HTTPSource[R any] struct {
	client   *apiclient.Client
	resource string
	codec    *tablestate.Codec
	tracer   trace.Tracer
}

// NewHTTPSource creates a source for resource. A nil codec uses the defaults.
func NewHTTPSource[R any](client *apiclient.Client, resource string, codec *tablestate.Codec) *HTTPSource[R] {
	if codec == nil {
		codec = tablestate.NewCodec()
	}
	return &HTTPSource[R]{
		client:   client,
		resource: resource,
		codec:    codec,
		tracer:   otel.Tracer(tracerName),
	}
}

// Resource returns the backend path this source reads.
func (s *HTTPSource[R]) Resource() string {
	return s.resource
}

// Query returns the backend query for st.
func (s *HTTPSource[R]) Query(st tablestate.TableState) url.Values {
	return s.codec.Encode(st, nil)
}

// FetchPage implements Source.
func (s *HTTPSource[R]) FetchPage(ctx context.Context, st tablestate.TableState) (Page[R], error) {
	ctx, span := s.tracer.Start(ctx, "datasource.fetch", trace.WithAttributes(
		attribute.String("datasource.resource", s.resource),
		attribute.Int("table.page", st.PageIndex+1),
		attribute.Int("table.limit", st.PageSize),
		attribute.String("table.sort_by", st.SortColumn),
		attribute.Bool("table.search", st.Search != ""),
	))
	defer span.End()

	var resp listResponse[R]
	if err := s.client.Get(ctx, s.resource, s.Query(st), &resp); err != nil {
		if !IsCancelled(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
		}
		return Page[R]{}, err
	}

	if resp.Pagination.Total < 0 {
		err := &apiclient.Error{
			Kind:   apiclient.KindServer,
			Method: "GET",
			Path:   s.resource,
			Err:    fmt.Errorf("negative total %d", resp.Pagination.Total),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid response")
		return Page[R]{}, err
	}

	rows := resp.Data
	if rows == nil {
		rows = []R{}
	}
	span.SetAttributes(
		attribute.Int("datasource.rows", len(rows)),
		attribute.Int("datasource.total", resp.Pagination.Total),
	)
	return Page[R]{Rows: rows, Total: resp.Pagination.Total}, nil
}
