package server

import (
	"encoding/json"
	"errors"
	"fmt"

	cerrors "github.com/clinicdesk/console/internal/errors"
	"github.com/clinicdesk/console/pkg/view"
)

// Intents that have no element in the rendered table.
const (
	// IntentFlush commits the search box now, as on Enter.
	IntentFlush = "flush"
	// IntentNavigate follows a history change (back, forward) to Query.
	IntentNavigate = "navigate"
)

// Frame types sent to the browser.
const (
	FrameRender = "render"
	FrameURL    = "url"
	FrameError  = "error"
)

// Intent is one user action sent by the browser.
type Intent struct {
	Intent string `json:"intent"`
	Column string `json:"column,omitempty"`
	Page   *int   `json:"page,omitempty"`
	Size   int    `json:"size,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
	Text   string `json:"text,omitempty"`
	Query  string `json:"query,omitempty"`
}

// Frame is one message sent to the browser. Which fields are set depends
// on Type.
type Frame struct {
	Type string `json:"type"`

	// render
	Table   string `json:"table,omitempty"`
	Toolbar string `json:"toolbar,omitempty"`
	Status  string `json:"status,omitempty"`

	// url
	Query string `json:"query,omitempty"`
	Mode  string `json:"mode,omitempty"`

	// error
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// DecodeIntent parses and checks a client message. Failures are C300
// errors.
func DecodeIntent(data []byte) (Intent, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return Intent{}, cerrors.New("C300").Wrap(err)
	}
	if err := in.validate(); err != nil {
		return Intent{}, cerrors.New("C300").WithDetail(err.Error())
	}
	return in, nil
}

func (in Intent) validate() error {
	switch in.Intent {
	case view.IntentSort:
		if in.Column == "" {
			return fmt.Errorf("sort intent needs a column")
		}
	case view.IntentPage:
		if in.Page == nil || *in.Page < 0 {
			return fmt.Errorf("page intent needs a page index of 0 or more")
		}
	case view.IntentSize:
		if in.Size <= 0 {
			return fmt.Errorf("size intent needs a positive size")
		}
	case view.IntentFilter:
		if in.Key == "" {
			return fmt.Errorf("filter intent needs a key")
		}
	case view.IntentSearch, view.IntentRefresh, IntentFlush, IntentNavigate:
	case "":
		return fmt.Errorf("missing intent")
	default:
		return fmt.Errorf("unknown intent %q", in.Intent)
	}
	return nil
}

func errorFrame(err error) Frame {
	var ce *cerrors.ConsoleError
	if !errors.As(err, &ce) {
		return Frame{Type: FrameError, Message: err.Error()}
	}
	msg := ce.Message
	if ce.Detail != "" {
		msg += ": " + ce.Detail
	}
	return Frame{Type: FrameError, Code: ce.Code, Message: msg}
}
