package datasource

import "github.com/clinicdesk/console/pkg/apiclient"

// FetchError is a classified fetch failure.
type FetchError = apiclient.Error

// Failure kinds.
const (
	KindNetwork      = apiclient.KindNetwork
	KindServer       = apiclient.KindServer
	KindUnauthorized = apiclient.KindUnauthorized
)

// Outcome labels for metrics and logs.
const (
	OutcomeOK           = "ok"
	OutcomeCancelled    = "cancelled"
	OutcomeNetwork      = "network"
	OutcomeServer       = "server"
	OutcomeUnauthorized = "unauthorized"
)

// IsCancelled reports whether err is a cancellation rather than a failure.
func IsCancelled(err error) bool {
	return apiclient.IsCancelled(err)
}

// Outcome maps a fetch result to a stable label. Unclassified errors count
// as server failures.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if IsCancelled(err) {
		return OutcomeCancelled
	}
	switch apiclient.KindOf(err) {
	case apiclient.KindNetwork:
		return OutcomeNetwork
	case apiclient.KindUnauthorized:
		return OutcomeUnauthorized
	}
	return OutcomeServer
}
