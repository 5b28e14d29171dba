package onboarding

// PlanType is the subscription shape being onboarded.
type PlanType string

const (
	PlanCompany PlanType = "company"
	PlanComplex PlanType = "complex"
	PlanClinic  PlanType = "clinic"
)

// Valid reports whether p is a known plan type.
func (p PlanType) Valid() bool {
	switch p {
	case PlanCompany, PlanComplex, PlanClinic:
		return true
	}
	return false
}

type UserData struct {
	FirstName   string `json:"firstName" yaml:"first_name"`
	LastName    string `json:"lastName" yaml:"last_name"`
	Email       string `json:"email" yaml:"email"`
	Password    string `json:"password,omitempty" yaml:"password"`
	Phone       string `json:"phone,omitempty" yaml:"phone"`
	Nationality string `json:"nationality,omitempty" yaml:"nationality"`
	Gender      string `json:"gender,omitempty" yaml:"gender"`
}

type SubscriptionData struct {
	PlanType PlanType `json:"planType" yaml:"plan_type"`
	PlanID   string   `json:"planId" yaml:"plan_id"`
}

type BusinessProfile struct {
	YearEstablished int    `json:"yearEstablished,omitempty" yaml:"year_established"`
	Mission         string `json:"mission,omitempty" yaml:"mission"`
	Vision          string `json:"vision,omitempty" yaml:"vision"`
	CEOName         string `json:"ceoName,omitempty" yaml:"ceo_name"`
}

type LegalInfo struct {
	VATNumber  string `json:"vatNumber,omitempty" yaml:"vat_number"`
	CRNumber   string `json:"crNumber,omitempty" yaml:"cr_number"`
	TermsURL   string `json:"termsConditionsUrl,omitempty" yaml:"terms_url"`
	PrivacyURL string `json:"privacyPolicyUrl,omitempty" yaml:"privacy_url"`
}

type Organization struct {
	Name            string           `json:"name" yaml:"name"`
	LegalName       string           `json:"legalName,omitempty" yaml:"legal_name"`
	Phone           string           `json:"phone,omitempty" yaml:"phone"`
	Email           string           `json:"email,omitempty" yaml:"email"`
	Address         string           `json:"address,omitempty" yaml:"address"`
	GoogleLocation  string           `json:"googleLocation,omitempty" yaml:"google_location"`
	LogoURL         string           `json:"logoUrl,omitempty" yaml:"logo_url"`
	Website         string           `json:"website,omitempty" yaml:"website"`
	BusinessProfile *BusinessProfile `json:"businessProfile,omitempty" yaml:"business_profile"`
	LegalInfo       *LegalInfo       `json:"legalInfo,omitempty" yaml:"legal_info"`
}

type Complex struct {
	Name            string           `json:"name" yaml:"name"`
	Address         string           `json:"address,omitempty" yaml:"address"`
	GoogleLocation  string           `json:"googleLocation,omitempty" yaml:"google_location"`
	Phone           string           `json:"phone,omitempty" yaml:"phone"`
	Email           string           `json:"email,omitempty" yaml:"email"`
	LogoURL         string           `json:"logoUrl,omitempty" yaml:"logo_url"`
	Website         string           `json:"website,omitempty" yaml:"website"`
	ManagerName     string           `json:"managerName,omitempty" yaml:"manager_name"`
	DepartmentIDs   []string         `json:"departmentIds,omitempty" yaml:"department_ids"`
	BusinessProfile *BusinessProfile `json:"businessProfile,omitempty" yaml:"business_profile"`
	LegalInfo       *LegalInfo       `json:"legalInfo,omitempty" yaml:"legal_info"`
}

type Department struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
}

type Capacity struct {
	MaxStaff        int `json:"maxStaff,omitempty" yaml:"max_staff"`
	MaxDoctors      int `json:"maxDoctors,omitempty" yaml:"max_doctors"`
	MaxPatients     int `json:"maxPatients,omitempty" yaml:"max_patients"`
	SessionDuration int `json:"sessionDuration,omitempty" yaml:"session_duration"`
}

type Clinic struct {
	Name                string           `json:"name" yaml:"name"`
	Address             string           `json:"address,omitempty" yaml:"address"`
	GoogleLocation      string           `json:"googleLocation,omitempty" yaml:"google_location"`
	Phone               string           `json:"phone,omitempty" yaml:"phone"`
	Email               string           `json:"email,omitempty" yaml:"email"`
	LogoURL             string           `json:"logoUrl,omitempty" yaml:"logo_url"`
	Website             string           `json:"website,omitempty" yaml:"website"`
	HeadDoctorName      string           `json:"headDoctorName,omitempty" yaml:"head_doctor_name"`
	Specialization      string           `json:"specialization,omitempty" yaml:"specialization"`
	PIN                 string           `json:"pin,omitempty" yaml:"pin"`
	ComplexDepartmentID string           `json:"complexDepartmentId,omitempty" yaml:"complex_department_id"`
	Capacity            *Capacity        `json:"capacity,omitempty" yaml:"capacity"`
	BusinessProfile     *BusinessProfile `json:"businessProfile,omitempty" yaml:"business_profile"`
	LegalInfo           *LegalInfo       `json:"legalInfo,omitempty" yaml:"legal_info"`
}

type Service struct {
	Name            string  `json:"name" yaml:"name"`
	Description     string  `json:"description,omitempty" yaml:"description"`
	DurationMinutes int     `json:"durationMinutes,omitempty" yaml:"duration_minutes"`
	Price           float64 `json:"price,omitempty" yaml:"price"`
}

// EntityType names what a WorkingHours row belongs to.
type EntityType string

const (
	EntityComplex EntityType = "complex"
	EntityClinic  EntityType = "clinic"
)

type WorkingHours struct {
	EntityType     EntityType `json:"entityType" yaml:"entity_type"`
	EntityName     string     `json:"entityName" yaml:"entity_name"`
	DayOfWeek      string     `json:"dayOfWeek" yaml:"day_of_week"`
	IsWorkingDay   bool       `json:"isWorkingDay" yaml:"is_working_day"`
	OpeningTime    string     `json:"openingTime,omitempty" yaml:"opening_time"`
	ClosingTime    string     `json:"closingTime,omitempty" yaml:"closing_time"`
	BreakStartTime string     `json:"breakStartTime,omitempty" yaml:"break_start_time"`
	BreakEndTime   string     `json:"breakEndTime,omitempty" yaml:"break_end_time"`
}

type Contact struct {
	ContactType  string `json:"contactType" yaml:"type"`
	ContactValue string `json:"contactValue" yaml:"value"`
}

// CompletePayload is the body of POST /onboarding/complete.
type CompletePayload struct {
	UserData         UserData         `json:"userData"`
	SubscriptionData SubscriptionData `json:"subscriptionData"`
	Organization     *Organization    `json:"organization,omitempty"`
	Complexes        []Complex        `json:"complexes,omitempty"`
	Departments      []Department     `json:"departments,omitempty"`
	Clinics          []Clinic         `json:"clinics,omitempty"`
	Services         []Service        `json:"services,omitempty"`
	WorkingHours     []WorkingHours   `json:"workingHours,omitempty"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	LegalInfo        *LegalInfo       `json:"legalInfo,omitempty"`
}

// Result is what the backend reports after a completed onboarding.
type Result struct {
	Success        bool   `json:"success"`
	UserID         string `json:"userId"`
	SubscriptionID string `json:"subscriptionId"`
	Message        string `json:"message"`
}

// Plan is one subscription plan offered during onboarding.
type Plan struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        PlanType    `json:"type"`
	Description string      `json:"description"`
	Features    []string    `json:"features"`
	Pricing     *Pricing    `json:"pricing,omitempty"`
	Limitations *PlanLimits `json:"limitations,omitempty"`
}

type Pricing struct {
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

type PlanLimits struct {
	MaxComplexes int `json:"maxComplexes,omitempty"`
	MaxClinics   int `json:"maxClinics,omitempty"`
	MaxUsers     int `json:"maxUsers,omitempty"`
}

// Validation is the backend's verdict on one step's data.
type Validation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// Progress is a user's saved onboarding position.
type Progress struct {
	UserID         string   `json:"userId"`
	PlanType       PlanType `json:"planType"`
	CurrentStep    int      `json:"currentStep"`
	CompletedSteps []string `json:"completedSteps"`
	LastUpdated    string   `json:"lastUpdated"`
}
