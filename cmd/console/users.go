package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	cerrors "github.com/clinicdesk/console/internal/errors"
	"github.com/clinicdesk/console/pkg/apiclient"
	"github.com/clinicdesk/console/pkg/datasource"
	"github.com/clinicdesk/console/pkg/eventloop"
	"github.com/clinicdesk/console/pkg/i18n"
	"github.com/clinicdesk/console/pkg/tablectl"
	"github.com/clinicdesk/console/pkg/tablestate"
	"github.com/clinicdesk/console/pkg/users"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type usersOptions struct {
	token   string
	page    int
	limit   int
	sortBy  string
	desc    bool
	search  string
	filters []string
	query   string
	locale  string
	json    bool
}

func usersCmd(a *app) *cobra.Command {
	var o usersOptions

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List clinic users",
		Long: `List one page of the user-access table, exactly as the dashboard
would fetch it.

Flags map onto the dashboard's URL parameters. --query takes a raw query
string copied from the address bar; other flags override it.

Examples:
  console users --token $TOKEN
  console users --page 2 --limit 20 --sort userName --desc
  console users --filter role=owner --search rana
  console users --query 'page=3&sortBy=role&sortDir=asc' --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsers(cmd.Context(), a, o, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.token, "token", "", "Bearer token (default $CONSOLE_BACKEND_TOKEN)")
	f.IntVarP(&o.page, "page", "p", 0, "Page number, from 1")
	f.IntVarP(&o.limit, "limit", "n", 0, "Rows per page")
	f.StringVar(&o.sortBy, "sort", "", "Column to sort by")
	f.BoolVar(&o.desc, "desc", false, "Sort descending")
	f.StringVarP(&o.search, "search", "q", "", "Search text")
	f.StringArrayVarP(&o.filters, "filter", "f", nil, "Filter as key=value, repeatable")
	f.StringVar(&o.query, "query", "", "Raw dashboard query string")
	f.StringVar(&o.locale, "locale", "", "Locale for headers (default from config)")
	f.BoolVar(&o.json, "json", false, "Print the page as JSON")
	return cmd
}

// values builds the dashboard query the flags describe.
func (o usersOptions) values() (url.Values, error) {
	q, err := tablestate.ParseQuery(o.query)
	if err != nil {
		return nil, cerrors.New("C400").WithField("--query").Wrap(err)
	}
	if o.page > 0 {
		q.Set(tablestate.ParamPage, strconv.Itoa(o.page))
	}
	if o.limit > 0 {
		q.Set(tablestate.ParamLimit, strconv.Itoa(o.limit))
	}
	if o.sortBy != "" {
		q.Set(tablestate.ParamSortBy, o.sortBy)
		dir := tablestate.Ascending
		if o.desc {
			dir = tablestate.Descending
		}
		q.Set(tablestate.ParamSortDir, dir.String())
	}
	if o.search != "" {
		q.Set(tablestate.ParamSearch, o.search)
	}
	for _, kv := range o.filters {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, cerrors.New("C400").WithField("--filter").
				WithDetail(fmt.Sprintf("%q is not key=value", kv))
		}
		q.Set(k, v)
	}
	return q, nil
}

func runUsers(ctx context.Context, a *app, o usersOptions, out io.Writer) error {
	token := o.token
	if token == "" {
		token = a.cfg.Backend.Token
	}
	if token == "" {
		return cerrors.New("C150")
	}

	query, err := o.values()
	if err != nil {
		return err
	}
	client, err := backendClient(a.cfg.Backend, apiclient.StaticToken(token))
	if err != nil {
		return err
	}
	codec := tableCodec(a.cfg.Table)
	source := datasource.NewHTTPSource[users.Row](client, a.cfg.Backend.UsersResource, codec)

	snap, err := fetchOnce(ctx, codec, source, query, a)
	if err != nil {
		return err
	}
	if snap.Status == tablectl.StatusFailed {
		if apiclient.IsUnauthorized(snap.Err) {
			return cerrors.New("C151").Wrap(snap.Err)
		}
		return cerrors.New("C200").WithDetail(client.BaseURL() + a.cfg.Backend.UsersResource).Wrap(snap.Err)
	}

	if o.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Page)
	}

	locale := o.locale
	if locale == "" {
		locale = a.cfg.I18n.DefaultLocale
	}
	printer := i18n.Default().Printer(i18n.Default().Match(locale))
	printUsers(out, printer, snap)
	return nil
}

// fetchOnce drives a controller on a manual dispatcher until its first
// fetch settles.
func fetchOnce(ctx context.Context, codec *tablestate.Codec, source datasource.Source[users.Row], query url.Values, a *app) (tablectl.Snapshot[users.Row], error) {
	loop := eventloop.NewManual()
	defer loop.Close()
	ctrl := tablectl.New(codec, source,
		tablectl.WithDispatcher(loop),
		tablectl.WithBaseContext(ctx),
		tablectl.WithSortCycle(sortCycle(a.cfg.Table)),
		tablectl.WithLogger(a.logger),
	)
	defer ctrl.Close()

	if err := ctrl.Observe(query); err != nil {
		return tablectl.Snapshot[users.Row]{}, err
	}
	for ctrl.Snapshot().Loading() {
		select {
		case <-ctx.Done():
			return tablectl.Snapshot[users.Row]{}, ctx.Err()
		case <-loop.Wait():
			loop.Drain()
		}
	}
	return ctrl.Snapshot(), nil
}

func printUsers(out io.Writer, p *message.Printer, snap tablectl.Snapshot[users.Row]) {
	def := users.Table(nil)
	headers := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		headers[i] = p.Sprintf(c.Header)
	}
	rows := make([][]string, 0, len(snap.Page.Rows))
	for _, r := range snap.Page.Rows {
		cells := make([]string, len(def.Columns))
		for i, c := range def.Columns {
			cells[i] = c.Cell(p, r)
		}
		rows = append(rows, cells)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, mutedStyle.Render(p.Sprintf("table.empty")))
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(mutedStyle).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		fmt.Fprintln(out, t.Render())
	}

	st := snap.State
	fmt.Fprintln(out, mutedStyle.Render(
		p.Sprintf("table.summary", snap.StartRow, snap.EndRow, snap.Page.Total)+"  ·  "+
			p.Sprintf("table.page_of", st.PageIndex+1, max(snap.PageCount, 1))))
}
