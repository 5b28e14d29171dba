package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitFunc func(ctx context.Context, p CompletePayload) (Result, error)

func (f submitFunc) Complete(ctx context.Context, p CompletePayload) (Result, error) {
	return f(ctx, p)
}

func fullWizard(t *testing.T) *Wizard {
	t.Helper()
	w := NewWizard(UserData{Email: "owner@clinic.test"}, SubscriptionData{PlanType: PlanCompany, PlanID: "p1"})
	require.NoError(t, w.Organization(Organization{Name: "Acme Health", LegalInfo: &LegalInfo{VATNumber: "V1"}}))
	require.NoError(t, w.Complex(Complex{Name: "North"}, []Department{{Name: "Dental"}},
		[]WorkingHours{{DayOfWeek: "monday", IsWorkingDay: true, OpeningTime: "08:00", ClosingTime: "16:00"}}))
	require.NoError(t, w.Clinic(Clinic{Name: "Smile"},
		[]WorkingHours{{DayOfWeek: "monday", IsWorkingDay: true}}))
	require.NoError(t, w.Services([]Service{{Name: "Cleaning", DurationMinutes: 30}}, &Capacity{MaxDoctors: 3}))
	require.NoError(t, w.Contacts([]Contact{{ContactType: "twitter", ContactValue: "@acme"}}))
	return w
}

func TestWizardOrder(t *testing.T) {
	w := NewWizard(UserData{}, SubscriptionData{PlanType: PlanClinic})
	assert.Equal(t, StepOrganization, w.Current())

	err := w.Clinic(Clinic{Name: "Smile"}, nil)
	assert.ErrorIs(t, err, ErrStepOrder)

	require.NoError(t, w.Organization(Organization{Name: "A"}))
	assert.Equal(t, StepComplex, w.Current())

	// Revisiting a finished step is allowed and does not advance.
	require.NoError(t, w.Organization(Organization{Name: "B"}))
	assert.Equal(t, StepComplex, w.Current())
	assert.Equal(t, "B", w.Payload().Organization.Name)
	assert.Equal(t, []Step{StepOrganization}, w.Completed())
}

func TestWizardAssemblesPayload(t *testing.T) {
	w := fullWizard(t)
	assert.Equal(t, Step(""), w.Current())

	p := w.Payload()
	assert.Equal(t, "V1", p.LegalInfo.VATNumber)
	require.Len(t, p.Clinics, 1)
	assert.Equal(t, 3, p.Clinics[0].Capacity.MaxDoctors)
	require.Len(t, p.WorkingHours, 2)
	assert.Equal(t, EntityComplex, p.WorkingHours[0].EntityType)
	assert.Equal(t, "North", p.WorkingHours[0].EntityName)
	assert.Equal(t, EntityClinic, p.WorkingHours[1].EntityType)
	assert.Equal(t, "Smile", p.WorkingHours[1].EntityName)
}

func TestWizardClinicRevisitKeepsCapacity(t *testing.T) {
	w := fullWizard(t)
	require.NoError(t, w.Clinic(Clinic{Name: "Smile 2"}, nil))

	p := w.Payload()
	assert.Equal(t, "Smile 2", p.Clinics[0].Name)
	assert.Equal(t, 3, p.Clinics[0].Capacity.MaxDoctors)
	assert.Len(t, p.WorkingHours, 1)
}

func TestWizardSubmitIncomplete(t *testing.T) {
	w := NewWizard(UserData{}, SubscriptionData{})
	require.NoError(t, w.Organization(Organization{Name: "A"}))

	called := false
	_, err := w.Submit(context.Background(), submitFunc(func(context.Context, CompletePayload) (Result, error) {
		called = true
		return Result{}, nil
	}))
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.False(t, called)
}

func TestWizardSubmitOnce(t *testing.T) {
	w := fullWizard(t)

	calls := 0
	s := submitFunc(func(_ context.Context, p CompletePayload) (Result, error) {
		calls++
		assert.Equal(t, "Acme Health", p.Organization.Name)
		return Result{Success: true, UserID: "u-9"}, nil
	})

	res, err := w.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "u-9", res.UserID)

	res, err = w.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrSubmitted)
	assert.Equal(t, "u-9", res.UserID)
	assert.Equal(t, 1, calls)

	assert.ErrorIs(t, w.Contacts(nil), ErrSubmitted)
}

func TestWizardRetryAfterFailure(t *testing.T) {
	w := fullWizard(t)
	boom := errors.New("backend down")

	_, err := w.Submit(context.Background(), submitFunc(func(context.Context, CompletePayload) (Result, error) {
		return Result{}, boom
	}))
	assert.ErrorIs(t, err, boom)

	_, err = w.Submit(context.Background(), submitFunc(func(context.Context, CompletePayload) (Result, error) {
		return Result{Success: true}, nil
	}))
	assert.NoError(t, err)
}

func TestWizardConcurrentSubmit(t *testing.T) {
	w := fullWizard(t)
	release := make(chan struct{})
	entered := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := w.Submit(context.Background(), submitFunc(func(context.Context, CompletePayload) (Result, error) {
			close(entered)
			<-release
			return Result{Success: true}, nil
		}))
		assert.NoError(t, err)
	}()

	<-entered
	_, err := w.Submit(context.Background(), submitFunc(func(context.Context, CompletePayload) (Result, error) {
		t.Error("second submission reached the backend")
		return Result{}, nil
	}))
	assert.ErrorIs(t, err, ErrSubmitting)
	assert.ErrorIs(t, w.Contacts(nil), ErrSubmitting)

	close(release)
	wg.Wait()
}
