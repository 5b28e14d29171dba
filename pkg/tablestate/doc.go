// Package tablestate holds the canonical pagination, sort and filter state of a
// server-paginated table and its URL query-string encoding.
//
// The URL is the single source of truth: a TableState is re-derived from the
// query string on every navigation and never stored on its own. Mutations are
// expressed as a Patch that is merged into the existing query so unrelated
// parameters (for example a language selector) survive.
//
// URL parameters:
//
//	page     1-based page number
//	limit    page size, one of the allowed sizes
//	sortBy   sort column id, absent means unsorted
//	sortDir  "asc" | "desc"
//	search   free-text filter
//	<key>    registered discrete filters such as "role" or "status"
//
// Example:
//
//	codec := tablestate.NewCodec(tablestate.WithFilterKeys("role", "status"))
//	st := codec.DecodeQuery("page=2&limit=10&sortBy=userName&sortDir=desc")
//	// st.PageIndex == 1, st.SortColumn == "userName", st.SortDir == tablestate.Descending
package tablestate
