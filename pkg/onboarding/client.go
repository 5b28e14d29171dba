// Package onboarding is the typed client for the backend's onboarding API
// and the step-ordered Wizard that assembles a complete submission.
package onboarding

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultPrefix is where the onboarding endpoints live on the backend.
const DefaultPrefix = "/onboarding"

// Backend is the authorized JSON transport. *apiclient.Client satisfies it.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// FieldError is one per-field complaint from the backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RejectedError is returned when the backend answers 2xx with success=false.
type RejectedError struct {
	Op      string
	Message string
	Errors  []FieldError
}

func (e *RejectedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "onboarding: %s rejected", e.Op)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, fe := range e.Errors {
		fmt.Fprintf(&b, "; %s: %s", fe.Field, fe.Message)
	}
	return b.String()
}

type envelope[T any] struct {
	Success bool         `json:"success"`
	Data    T            `json:"data"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

func (e *envelope[T]) unwrap(op string) (T, error) {
	if !e.Success {
		var zero T
		return zero, &RejectedError{Op: op, Message: e.Message, Errors: e.Errors}
	}
	return e.Data, nil
}

// Client calls the onboarding endpoints.
type Client struct {
	backend Backend
	prefix  string
}

// NewClient creates a client. An empty prefix means DefaultPrefix.
func NewClient(backend Backend, prefix string) *Client {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Client{backend: backend, prefix: "/" + strings.Trim(prefix, "/")}
}

// Complete submits a full onboarding payload.
func (c *Client) Complete(ctx context.Context, payload CompletePayload) (Result, error) {
	var env envelope[Result]
	if err := c.backend.Post(ctx, c.prefix+"/complete", payload, &env); err != nil {
		return Result{}, fmt.Errorf("onboarding: complete: %w", err)
	}
	return env.unwrap("complete")
}

type validateRequest struct {
	StepData any      `json:"stepData"`
	PlanType PlanType `json:"planType"`
	Step     Step     `json:"step"`
}

// ValidateStep asks the backend to check one step's data.
func (c *Client) ValidateStep(ctx context.Context, plan PlanType, step Step, data any) (Validation, error) {
	var env envelope[Validation]
	req := validateRequest{StepData: data, PlanType: plan, Step: step}
	if err := c.backend.Post(ctx, c.prefix+"/validate", req, &env); err != nil {
		return Validation{}, fmt.Errorf("onboarding: validate %s: %w", step, err)
	}
	return env.unwrap("validate")
}

// Progress returns userID's saved onboarding position.
func (c *Client) Progress(ctx context.Context, userID string) (Progress, error) {
	if userID == "" {
		return Progress{}, fmt.Errorf("onboarding: progress: empty user id")
	}
	var env envelope[Progress]
	if err := c.backend.Get(ctx, c.prefix+"/progress/"+url.PathEscape(userID), nil, &env); err != nil {
		return Progress{}, fmt.Errorf("onboarding: progress: %w", err)
	}
	return env.unwrap("progress")
}

// Plans lists the available subscription plans.
func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var env envelope[[]Plan]
	if err := c.backend.Get(ctx, c.prefix+"/plans", nil, &env); err != nil {
		return nil, fmt.Errorf("onboarding: plans: %w", err)
	}
	return env.unwrap("plans")
}
