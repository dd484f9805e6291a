package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- mocks --

type mockApplicantRepo struct {
	byEmail map[string]*Applicant
}

func newMockApplicantRepo() *mockApplicantRepo {
	return &mockApplicantRepo{byEmail: make(map[string]*Applicant)}
}

func (m *mockApplicantRepo) Create(ctx context.Context, a *Applicant) error {
	if _, ok := m.byEmail[a.Email]; ok {
		return ErrConflict
	}
	a.ID = uuid.New()
	if a.PatientID == "" {
		a.PatientID = NewPatientID(time.Now())
	}
	m.byEmail[a.Email] = a
	return nil
}

func (m *mockApplicantRepo) GetByID(ctx context.Context, id uuid.UUID) (*Applicant, error) {
	for _, a := range m.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockApplicantRepo) GetByEmail(ctx context.Context, email string) (*Applicant, error) {
	if a, ok := m.byEmail[email]; ok {
		return a, nil
	}
	return nil, ErrNotFound
}

func (m *mockApplicantRepo) GetByPatientID(ctx context.Context, patientID string) (*Applicant, error) {
	for _, a := range m.byEmail {
		if a.PatientID == patientID {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockApplicantRepo) Update(ctx context.Context, a *Applicant) error {
	if _, ok := m.byEmail[a.Email]; !ok {
		return ErrNotFound
	}
	m.byEmail[a.Email] = a
	return nil
}

func (m *mockApplicantRepo) List(ctx context.Context, limit, offset int) ([]*Applicant, int, error) {
	var out []*Applicant
	for _, a := range m.byEmail {
		out = append(out, a)
	}
	return out, len(out), nil
}

type mockPractitionerRepo struct {
	byEmail map[string]*Practitioner
}

func newMockPractitionerRepo() *mockPractitionerRepo {
	return &mockPractitionerRepo{byEmail: make(map[string]*Practitioner)}
}

func (m *mockPractitionerRepo) Create(ctx context.Context, p *Practitioner) error {
	if _, ok := m.byEmail[p.Email]; ok {
		return ErrConflict
	}
	p.ID = uuid.New()
	if p.DoctorID == "" {
		p.DoctorID = NewDoctorID()
	}
	m.byEmail[p.Email] = p
	return nil
}

func (m *mockPractitionerRepo) GetByEmail(ctx context.Context, email string) (*Practitioner, error) {
	if p, ok := m.byEmail[email]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *mockPractitionerRepo) GetByDoctorID(ctx context.Context, doctorID string) (*Practitioner, error) {
	for _, p := range m.byEmail {
		if p.DoctorID == doctorID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPractitionerRepo) Update(ctx context.Context, p *Practitioner) error {
	if _, ok := m.byEmail[p.Email]; !ok {
		return ErrNotFound
	}
	m.byEmail[p.Email] = p
	return nil
}

func (m *mockPractitionerRepo) List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error) {
	var out []*Practitioner
	for _, p := range m.byEmail {
		out = append(out, p)
	}
	return out, len(out), nil
}

type mockOrganizationRepo struct {
	byEmail map[string]*Organization
}

func newMockOrganizationRepo() *mockOrganizationRepo {
	return &mockOrganizationRepo{byEmail: make(map[string]*Organization)}
}

func (m *mockOrganizationRepo) Create(ctx context.Context, o *Organization) error {
	if _, ok := m.byEmail[o.Email]; ok {
		return ErrConflict
	}
	o.ID = uuid.New()
	if o.HospitalID == "" {
		o.HospitalID = NewHospitalID()
	}
	m.byEmail[o.Email] = o
	return nil
}

func (m *mockOrganizationRepo) GetByEmail(ctx context.Context, email string) (*Organization, error) {
	if o, ok := m.byEmail[email]; ok {
		return o, nil
	}
	return nil, ErrNotFound
}

func (m *mockOrganizationRepo) GetByHospitalID(ctx context.Context, hospitalID string) (*Organization, error) {
	for _, o := range m.byEmail {
		if o.HospitalID == hospitalID {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrganizationRepo) Update(ctx context.Context, o *Organization) error {
	if _, ok := m.byEmail[o.Email]; !ok {
		return ErrNotFound
	}
	m.byEmail[o.Email] = o
	return nil
}

func (m *mockOrganizationRepo) List(ctx context.Context, limit, offset int) ([]*Organization, int, error) {
	var out []*Organization
	for _, o := range m.byEmail {
		out = append(out, o)
	}
	return out, len(out), nil
}

type mockLoanProviderRepo struct {
	byEmail map[string]*LoanProvider
}

func newMockLoanProviderRepo() *mockLoanProviderRepo {
	return &mockLoanProviderRepo{byEmail: make(map[string]*LoanProvider)}
}

func (m *mockLoanProviderRepo) Create(ctx context.Context, p *LoanProvider) error {
	if _, ok := m.byEmail[p.Email]; ok {
		return ErrConflict
	}
	p.ID = uuid.New()
	if p.ProviderID == "" {
		p.ProviderID = NewProviderID()
	}
	m.byEmail[p.Email] = p
	return nil
}

func (m *mockLoanProviderRepo) GetByEmail(ctx context.Context, email string) (*LoanProvider, error) {
	if p, ok := m.byEmail[email]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *mockLoanProviderRepo) GetByProviderID(ctx context.Context, providerID string) (*LoanProvider, error) {
	for _, p := range m.byEmail {
		if p.ProviderID == providerID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockLoanProviderRepo) Update(ctx context.Context, p *LoanProvider) error {
	if _, ok := m.byEmail[p.Email]; !ok {
		return ErrNotFound
	}
	m.byEmail[p.Email] = p
	return nil
}

func (m *mockLoanProviderRepo) List(ctx context.Context, limit, offset int) ([]*LoanProvider, int, error) {
	var out []*LoanProvider
	for _, p := range m.byEmail {
		out = append(out, p)
	}
	return out, len(out), nil
}

func newTestService() (*Service, *mockApplicantRepo, *mockPractitionerRepo, *mockOrganizationRepo) {
	applicants := newMockApplicantRepo()
	practitioners := newMockPractitionerRepo()
	organizations := newMockOrganizationRepo()
	providers := newMockLoanProviderRepo()
	registry := NewRegistry(
		NewApplicantStore(applicants),
		NewPractitionerStore(practitioners),
		NewOrganizationStore(organizations),
		NewLoanProviderStore(providers),
	)
	return NewService(registry, practitioners, organizations), applicants, practitioners, organizations
}

// -- tests --

func strPtr(s string) *string { return &s }

func TestRegister_RequiresEmailAndName(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "patient", ProfileInput{FullName: "Asha Rao"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing email, got %v", err)
	}

	_, err = svc.Register(context.Background(), "patient", ProfileInput{Email: "asha@example.com"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing full_name, got %v", err)
	}
}

func TestRegister_UnknownRole(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "auditor", ProfileInput{
		Email:    "a@example.com",
		FullName: "A",
	})
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected unknown role error, got %v", err)
	}
}

func TestRegister_Applicant(t *testing.T) {
	svc, applicants, _, _ := newTestService()

	profile, err := svc.Register(context.Background(), "patient", ProfileInput{
		Email:      "asha@example.com",
		FullName:   "Asha Rao",
		Gender:     strPtr("female"),
		DOB:        strPtr("1990-04-12"),
		BloodGroup: strPtr("B+"),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.Role != "patient" {
		t.Errorf("expected role patient, got %q", profile.Role)
	}
	if profile.BusinessID == "" {
		t.Error("expected a generated patient id")
	}

	stored, err := applicants.GetByEmail(context.Background(), "asha@example.com")
	if err != nil {
		t.Fatalf("stored applicant missing: %v", err)
	}
	if !stored.ProfileCompleted {
		t.Error("expected profile_completed when gender and dob are set")
	}
	if stored.DOB == nil || stored.DOB.Format("2006-01-02") != "1990-04-12" {
		t.Errorf("dob not stored correctly: %v", stored.DOB)
	}
}

func TestRegister_InvalidDOB(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "patient", ProfileInput{
		Email:    "asha@example.com",
		FullName: "Asha Rao",
		DOB:      strPtr("12-04-1990"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for bad dob format, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService()

	in := ProfileInput{Email: "doc@example.com", FullName: "Dr. Mehta"}
	if _, err := svc.Register(context.Background(), "doctor", in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), "doctor", in)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "patient", ProfileInput{
		Email:     "asha@example.com",
		FullName:  "Asha Rao",
		Allergies: strPtr("Penicillin"),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	profile, err := svc.UpdateProfile(context.Background(), "patient", "asha@example.com", ProfileInput{
		Phone: strPtr("9876543210"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.Attributes["phone"] != "9876543210" {
		t.Errorf("phone not updated: %v", profile.Attributes["phone"])
	}
	if profile.Attributes["allergies"] != "Penicillin" {
		t.Errorf("allergies lost on partial update: %v", profile.Attributes["allergies"])
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.GetProfile(context.Background(), "patient", "ghost@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRecipients(t *testing.T) {
	svc, _, practitioners, organizations := newTestService()

	practitioners.Create(context.Background(), &Practitioner{
		Email:          "doc@example.com",
		FullName:       "Dr. Mehta",
		Specialization: strPtr("Cardiology"),
	})
	organizations.Create(context.Background(), &Organization{
		Email:    "city@example.com",
		Name:     "City Hospital",
		Location: strPtr("Pune"),
	})

	recipients, err := svc.ListRecipients(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("list recipients: %v", err)
	}
	if len(recipients.Doctors) != 1 {
		t.Fatalf("expected 1 doctor, got %d", len(recipients.Doctors))
	}
	if recipients.Doctors[0].ID == "" {
		t.Error("expected doctor business id")
	}
	if len(recipients.Hospitals) != 1 {
		t.Fatalf("expected 1 hospital, got %d", len(recipients.Hospitals))
	}
	if recipients.Hospitals[0].Location == nil || *recipients.Hospitals[0].Location != "Pune" {
		t.Error("expected hospital location")
	}
}

func TestRegistry_Roles(t *testing.T) {
	registry := NewRegistry(
		NewApplicantStore(newMockApplicantRepo()),
		NewPractitionerStore(newMockPractitionerRepo()),
	)
	roles := registry.Roles()
	if len(roles) != 2 || roles[0] != "doctor" || roles[1] != "patient" {
		t.Errorf("unexpected roles: %v", roles)
	}
}
