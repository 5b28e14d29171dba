// Package errors provides coded, actionable errors for the console's
// operator-facing surfaces: configuration loading, the CLI, and the live
// session protocol.
//
// Each code (e.g. "C101") maps to a registered template with a category,
// a short message and a longer detail. Call sites add the specifics:
//
//	err := errors.New("C101").
//	    WithDetail(`backend.base_url "ftp://x" must be http or https`).
//	    WithSuggestion("Set CONSOLE_BACKEND_BASE_URL to the API root.")
//
//	fmt.Fprint(os.Stderr, err.Format())
//
// Errors from the table engine itself (fetch failures, unknown filters) are
// plain Go errors and never pass through this package.
package errors
