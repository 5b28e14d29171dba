package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cerrors "github.com/clinicdesk/console/internal/errors"
	"github.com/clinicdesk/console/pkg/apiclient"
	"github.com/clinicdesk/console/pkg/onboarding"
)

var okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

func onboardingCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Inspect plans and submit clinic onboarding",
	}
	cmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (default $CONSOLE_BACKEND_TOKEN)")

	client := func() (*onboarding.Client, error) {
		tok := token
		if tok == "" {
			tok = a.cfg.Backend.Token
		}
		if tok == "" {
			return nil, cerrors.New("C150")
		}
		api, err := backendClient(a.cfg.Backend, apiclient.StaticToken(tok))
		if err != nil {
			return nil, err
		}
		return onboarding.NewClient(api, a.cfg.Backend.OnboardingPrefix), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "plans",
			Short: "List subscription plans",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client()
				if err != nil {
					return err
				}
				plans, err := c.Plans(cmd.Context())
				if err != nil {
					return backendError(err)
				}
				printPlans(cmd.OutOrStdout(), plans)
				return nil
			},
		},
		&cobra.Command{
			Use:   "progress <user-id>",
			Short: "Show a user's onboarding progress",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client()
				if err != nil {
					return err
				}
				p, err := c.Progress(cmd.Context(), args[0])
				if err != nil {
					return backendError(err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "User:       %s\n", p.UserID)
				fmt.Fprintf(out, "Plan:       %s\n", p.PlanType)
				fmt.Fprintf(out, "Step:       %d\n", p.CurrentStep)
				fmt.Fprintf(out, "Completed:  %s\n", strings.Join(p.CompletedSteps, ", "))
				fmt.Fprintf(out, "Updated:    %s\n", p.LastUpdated)
				return nil
			},
		},
		submitCmd(client),
	)
	return cmd
}

// onboardingFile is the YAML form of a full onboarding, one section per
// wizard step.
type onboardingFile struct {
	User         onboarding.UserData         `yaml:"user"`
	Subscription onboarding.SubscriptionData `yaml:"subscription"`
	Organization onboarding.Organization     `yaml:"organization"`
	Complex      struct {
		onboarding.Complex `yaml:",inline"`
		Departments        []onboarding.Department   `yaml:"departments"`
		WorkingHours       []onboarding.WorkingHours `yaml:"working_hours"`
	} `yaml:"complex"`
	Clinic struct {
		onboarding.Clinic `yaml:",inline"`
		WorkingHours      []onboarding.WorkingHours `yaml:"working_hours"`
	} `yaml:"clinic"`
	Services []onboarding.Service `yaml:"services"`
	Capacity *onboarding.Capacity `yaml:"capacity"`
	Contacts []onboarding.Contact `yaml:"contacts"`
}

func readOnboardingFile(r io.Reader) (onboardingFile, error) {
	var f onboardingFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return f, cerrors.New("C400").WithField("--file").Wrap(err)
	}
	if !f.Subscription.PlanType.Valid() {
		return f, cerrors.New("C400").WithField("subscription.plan_type").
			WithDetail(fmt.Sprintf("%q is not company, complex or clinic", f.Subscription.PlanType))
	}
	return f, nil
}

// stepData returns what ValidateStep checks for step.
func (f onboardingFile) stepData(step onboarding.Step) any {
	switch step {
	case onboarding.StepOrganization:
		return f.Organization
	case onboarding.StepComplex:
		return f.Complex.Complex
	case onboarding.StepClinic:
		return f.Clinic.Clinic
	case onboarding.StepServices:
		return f.Services
	default:
		return f.Contacts
	}
}

// fill records every step in order.
func (f onboardingFile) fill(w *onboarding.Wizard) error {
	return errors.Join(
		w.Organization(f.Organization),
		w.Complex(f.Complex.Complex, f.Complex.Departments, f.Complex.WorkingHours),
		w.Clinic(f.Clinic.Clinic, f.Clinic.WorkingHours),
		w.Services(f.Services, f.Capacity),
		w.Contacts(f.Contacts),
	)
}

type stepValidator interface {
	ValidateStep(ctx context.Context, plan onboarding.PlanType, step onboarding.Step, data any) (onboarding.Validation, error)
}

// validate asks the backend about each step and reports every problem.
func (f onboardingFile) validate(ctx context.Context, v stepValidator, out io.Writer) error {
	var failed []string
	for _, step := range onboarding.Steps {
		res, err := v.ValidateStep(ctx, f.Subscription.PlanType, step, f.stepData(step))
		if err != nil {
			return backendError(err)
		}
		if res.IsValid {
			fmt.Fprintf(out, "%s %s\n", okStyle.Render("✓"), step)
			continue
		}
		failed = append(failed, string(step))
		fmt.Fprintf(out, "✗ %s\n", step)
		for _, e := range res.Errors {
			fmt.Fprintf(out, "    %s\n", e)
		}
	}
	if len(failed) > 0 {
		return cerrors.New("C400").WithField("--file").
			WithDetail("invalid steps: " + strings.Join(failed, ", "))
	}
	return nil
}

func submitCmd(client func() (*onboarding.Client, error)) *cobra.Command {
	var (
		file     string
		validate bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a complete onboarding from a YAML file",
		Long: `Submit a complete onboarding from a YAML file with one section per
wizard step: organization, complex, clinic, services and contacts.

With --validate each step is checked by the backend first. With
--dry-run the assembled request is printed instead of sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := os.Open(file)
			if err != nil {
				return cerrors.New("C400").WithField("--file").Wrap(err)
			}
			defer r.Close()

			f, err := readOnboardingFile(r)
			if err != nil {
				return err
			}
			wizard := onboarding.NewWizard(f.User, f.Subscription)
			if err := f.fill(wizard); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(wizard.Payload())
			}

			c, err := client()
			if err != nil {
				return err
			}
			if validate {
				if err := f.validate(cmd.Context(), c, out); err != nil {
					return err
				}
			}
			res, err := wizard.Submit(cmd.Context(), c)
			if err != nil {
				return backendError(err)
			}
			fmt.Fprintf(out, "%s onboarded user %s, subscription %s\n",
				okStyle.Render("✓"), res.UserID, res.SubscriptionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Onboarding YAML file")
	cmd.Flags().BoolVar(&validate, "validate", false, "Validate each step before submitting")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the request instead of sending it")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printPlans(out io.Writer, plans []onboarding.Plan) {
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		monthly, yearly := "-", "-"
		if p.Pricing != nil {
			monthly = strconv.FormatFloat(p.Pricing.Monthly, 'f', 2, 64)
			yearly = strconv.FormatFloat(p.Pricing.Yearly, 'f', 2, 64)
		}
		rows = append(rows, []string{p.ID, p.Name, string(p.Type), monthly, yearly})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "NAME", "TYPE", "MONTHLY", "YEARLY").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(out, t.Render())
}

// backendError gives backend failures a code, keeping the backend's own
// field errors in the detail.
func backendError(err error) error {
	var rejected *onboarding.RejectedError
	if errors.As(err, &rejected) {
		return cerrors.New("C200").WithDetail(rejected.Error()).Wrap(err)
	}
	if apiclient.IsUnauthorized(err) {
		return cerrors.New("C151").Wrap(err)
	}
	return cerrors.FromError(err, "C200")
}
