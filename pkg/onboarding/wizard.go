package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Step names one wizard page.
type Step string

const (
	StepOrganization Step = "organization"
	StepComplex      Step = "complex"
	StepClinic       Step = "clinic"
	StepServices     Step = "services"
	StepContact      Step = "contact"
)

// Steps is the fixed completion order.
var Steps = []Step{StepOrganization, StepComplex, StepClinic, StepServices, StepContact}

func (s Step) index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

var (
	// ErrStepOrder is returned when a step is recorded before its predecessors.
	ErrStepOrder = errors.New("onboarding: step recorded out of order")

	// ErrIncomplete is returned by Submit before every step is recorded.
	ErrIncomplete = errors.New("onboarding: wizard incomplete")

	// ErrSubmitted is returned once the wizard has been submitted.
	ErrSubmitted = errors.New("onboarding: already submitted")

	// ErrSubmitting is returned while another Submit call is in flight.
	ErrSubmitting = errors.New("onboarding: submission in progress")
)

// Submitter sends the assembled payload. *Client satisfies it.
type Submitter interface {
	Complete(ctx context.Context, payload CompletePayload) (Result, error)
}

// Wizard collects step data in order and submits it once. Earlier steps may
// be recorded again; later ones may not be skipped to.
type Wizard struct {
	mu         sync.Mutex
	payload    CompletePayload
	next       int
	submitting bool
	result     *Result
}

// NewWizard starts a wizard for user on plan.
func NewWizard(user UserData, sub SubscriptionData) *Wizard {
	return &Wizard{payload: CompletePayload{UserData: user, SubscriptionData: sub}}
}

// Current returns the first step not yet recorded, or "" when all are.
func (w *Wizard) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.next >= len(Steps) {
		return ""
	}
	return Steps[w.next]
}

// Completed returns the recorded steps in order.
func (w *Wizard) Completed() []Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Step(nil), Steps[:w.next]...)
}

// Organization records the organization step.
func (w *Wizard) Organization(org Organization) error {
	return w.record(StepOrganization, func(p *CompletePayload) {
		p.Organization = &org
		p.LegalInfo = org.LegalInfo
	})
}

// Complex records the complex step with its departments and hours.
func (w *Wizard) Complex(c Complex, departments []Department, hours []WorkingHours) error {
	return w.record(StepComplex, func(p *CompletePayload) {
		p.Complexes = []Complex{c}
		p.Departments = departments
		p.WorkingHours = replaceHours(p.WorkingHours, EntityComplex, c.Name, hours)
	})
}

// Clinic records the clinic step with its hours.
func (w *Wizard) Clinic(c Clinic, hours []WorkingHours) error {
	return w.record(StepClinic, func(p *CompletePayload) {
		if len(p.Clinics) > 0 && c.Capacity == nil {
			c.Capacity = p.Clinics[0].Capacity
		}
		p.Clinics = []Clinic{c}
		p.WorkingHours = replaceHours(p.WorkingHours, EntityClinic, c.Name, hours)
	})
}

// Services records the services and capacity step. It must follow Clinic.
func (w *Wizard) Services(services []Service, capacity *Capacity) error {
	return w.record(StepServices, func(p *CompletePayload) {
		p.Services = services
		if capacity != nil && len(p.Clinics) > 0 {
			p.Clinics[0].Capacity = capacity
		}
	})
}

// Contacts records the contact step.
func (w *Wizard) Contacts(contacts []Contact) error {
	return w.record(StepContact, func(p *CompletePayload) {
		p.Contacts = contacts
	})
}

func (w *Wizard) record(step Step, apply func(*CompletePayload)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.result != nil:
		return ErrSubmitted
	case w.submitting:
		return ErrSubmitting
	}
	i := step.index()
	if i > w.next {
		return fmt.Errorf("%w: %s before %s", ErrStepOrder, step, Steps[w.next])
	}
	apply(&w.payload)
	if i == w.next {
		w.next++
	}
	return nil
}

// Payload returns a copy of the payload assembled so far.
func (w *Wizard) Payload() CompletePayload {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.payload
}

// Submit sends the payload once every step is recorded. A failed submission
// may be retried; a successful one is final.
func (w *Wizard) Submit(ctx context.Context, s Submitter) (Result, error) {
	w.mu.Lock()
	switch {
	case w.result != nil:
		w.mu.Unlock()
		return *w.result, ErrSubmitted
	case w.submitting:
		w.mu.Unlock()
		return Result{}, ErrSubmitting
	case w.next < len(Steps):
		missing := Steps[w.next]
		w.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %s not recorded", ErrIncomplete, missing)
	}
	w.submitting = true
	payload := w.payload
	w.mu.Unlock()

	res, err := s.Complete(ctx, payload)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		return Result{}, err
	}
	w.result = &res
	return res, nil
}

func replaceHours(all []WorkingHours, kind EntityType, name string, hours []WorkingHours) []WorkingHours {
	out := make([]WorkingHours, 0, len(all)+len(hours))
	for _, h := range all {
		if h.EntityType != kind {
			out = append(out, h)
		}
	}
	for _, h := range hours {
		h.EntityType = kind
		h.EntityName = name
		out = append(out, h)
	}
	return out
}
