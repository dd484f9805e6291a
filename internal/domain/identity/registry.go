package identity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/medloan/medloan/internal/platform/auth"
)

// Profile is the role-agnostic view of a stored profile, returned by every
// ProfileStore regardless of the backing entity.
type Profile struct {
	Role       string                 `json:"role"`
	BusinessID string                 `json:"business_id"`
	Email      string                 `json:"email"`
	Name       string                 `json:"name"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// ProfileInput carries the writable fields across all roles. Stores pick the
// fields relevant to their entity and ignore the rest.
type ProfileInput struct {
	Email              string  `json:"email"`
	FullName           string  `json:"full_name"`
	Gender             *string `json:"gender,omitempty"`
	DOB                *string `json:"dob,omitempty"` // YYYY-MM-DD
	Phone              *string `json:"phone,omitempty"`
	Address            *string `json:"address,omitempty"`
	BloodGroup         *string `json:"blood_group,omitempty"`
	Allergies          *string `json:"allergies,omitempty"`
	ExistingConditions *string `json:"existing_conditions,omitempty"`
	Specialization     *string `json:"specialization,omitempty"`
	HospitalName       *string `json:"hospital_name,omitempty"`
	Location           *string `json:"location,omitempty"`
}

// ProfileStore is the per-role profile contract. One implementation exists
// per role; the Registry resolves role to store once at startup instead of
// branching on role strings at every call site.
type ProfileStore interface {
	Role() string
	Register(ctx context.Context, in ProfileInput) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, email string, in ProfileInput) (*Profile, error)
}

// Registry maps roles to their profile stores.
type Registry struct {
	stores map[string]ProfileStore
}

func NewRegistry(stores ...ProfileStore) *Registry {
	m := make(map[string]ProfileStore, len(stores))
	for _, s := range stores {
		m[s.Role()] = s
	}
	return &Registry{stores: m}
}

// Store resolves the store for a role, or ErrUnknownRole.
func (r *Registry) Store(role string) (ProfileStore, error) {
	s, ok := r.stores[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return s, nil
}

// Roles lists registered roles in stable order.
func (r *Registry) Roles() []string {
	roles := make([]string, 0, len(r.stores))
	for role := range r.stores {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func parseDOB(dob *string) (*time.Time, error) {
	if dob == nil || *dob == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *dob)
	if err != nil {
		return nil, fmt.Errorf("%w: dob must be YYYY-MM-DD", ErrValidation)
	}
	return &t, nil
}

// -- Applicant store --

type applicantStore struct {
	repo ApplicantRepository
}

func NewApplicantStore(repo ApplicantRepository) ProfileStore {
	return &applicantStore{repo: repo}
}

func (s *applicantStore) Role() string { return auth.RolePatient }

func (s *applicantStore) Register(ctx context.Context, in ProfileInput) (*Profile, error) {
	dob, err := parseDOB(in.DOB)
	if err != nil {
		return nil, err
	}
	a := &Applicant{
		Email:              in.Email,
		FullName:           in.FullName,
		Gender:             in.Gender,
		DOB:                dob,
		Phone:              in.Phone,
		Address:            in.Address,
		BloodGroup:         in.BloodGroup,
		Allergies:          in.Allergies,
		ExistingConditions: in.ExistingConditions,
		ProfileCompleted:   dob != nil && in.Gender != nil,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return applicantProfile(a), nil
}

func (s *applicantStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return applicantProfile(a), nil
}

func (s *applicantStore) Update(ctx context.Context, email string, in ProfileInput) (*Profile, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if in.FullName != "" {
		a.FullName = in.FullName
	}
	if in.Gender != nil {
		a.Gender = in.Gender
	}
	if in.DOB != nil {
		dob, err := parseDOB(in.DOB)
		if err != nil {
			return nil, err
		}
		a.DOB = dob
	}
	if in.Phone != nil {
		a.Phone = in.Phone
	}
	if in.Address != nil {
		a.Address = in.Address
	}
	if in.BloodGroup != nil {
		a.BloodGroup = in.BloodGroup
	}
	if in.Allergies != nil {
		a.Allergies = in.Allergies
	}
	if in.ExistingConditions != nil {
		a.ExistingConditions = in.ExistingConditions
	}
	a.ProfileCompleted = a.DOB != nil && a.Gender != nil
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return applicantProfile(a), nil
}

func applicantProfile(a *Applicant) *Profile {
	attrs := map[string]interface{}{
		"profile_completed": a.ProfileCompleted,
	}
	if a.Gender != nil {
		attrs["gender"] = *a.Gender
	}
	if a.DOB != nil {
		attrs["dob"] = a.DOB.Format("2006-01-02")
	}
	if a.Phone != nil {
		attrs["phone"] = *a.Phone
	}
	if a.Address != nil {
		attrs["address"] = *a.Address
	}
	if a.BloodGroup != nil {
		attrs["blood_group"] = *a.BloodGroup
	}
	if a.Allergies != nil {
		attrs["allergies"] = *a.Allergies
	}
	if a.ExistingConditions != nil {
		attrs["existing_conditions"] = *a.ExistingConditions
	}
	return &Profile{
		Role:       auth.RolePatient,
		BusinessID: a.PatientID,
		Email:      a.Email,
		Name:       a.FullName,
		Attributes: attrs,
	}
}

// -- Practitioner store --

type practitionerStore struct {
	repo PractitionerRepository
}

func NewPractitionerStore(repo PractitionerRepository) ProfileStore {
	return &practitionerStore{repo: repo}
}

func (s *practitionerStore) Role() string { return auth.RoleDoctor }

func (s *practitionerStore) Register(ctx context.Context, in ProfileInput) (*Profile, error) {
	p := &Practitioner{
		Email:          in.Email,
		FullName:       in.FullName,
		Specialization: in.Specialization,
		HospitalName:   in.HospitalName,
		Phone:          in.Phone,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return practitionerProfile(p), nil
}

func (s *practitionerStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return practitionerProfile(p), nil
}

func (s *practitionerStore) Update(ctx context.Context, email string, in ProfileInput) (*Profile, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if in.FullName != "" {
		p.FullName = in.FullName
	}
	if in.Specialization != nil {
		p.Specialization = in.Specialization
	}
	if in.HospitalName != nil {
		p.HospitalName = in.HospitalName
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return practitionerProfile(p), nil
}

func practitionerProfile(p *Practitioner) *Profile {
	attrs := map[string]interface{}{}
	if p.Specialization != nil {
		attrs["specialization"] = *p.Specialization
	}
	if p.HospitalName != nil {
		attrs["hospital_name"] = *p.HospitalName
	}
	if p.Phone != nil {
		attrs["phone"] = *p.Phone
	}
	return &Profile{
		Role:       auth.RoleDoctor,
		BusinessID: p.DoctorID,
		Email:      p.Email,
		Name:       p.FullName,
		Attributes: attrs,
	}
}

// -- Organization store --

type organizationStore struct {
	repo OrganizationRepository
}

func NewOrganizationStore(repo OrganizationRepository) ProfileStore {
	return &organizationStore{repo: repo}
}

func (s *organizationStore) Role() string { return auth.RoleHospital }

func (s *organizationStore) Register(ctx context.Context, in ProfileInput) (*Profile, error) {
	o := &Organization{
		Email:    in.Email,
		Name:     in.FullName,
		Location: in.Location,
		Phone:    in.Phone,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return organizationProfile(o), nil
}

func (s *organizationStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	o, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return organizationProfile(o), nil
}

func (s *organizationStore) Update(ctx context.Context, email string, in ProfileInput) (*Profile, error) {
	o, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if in.FullName != "" {
		o.Name = in.FullName
	}
	if in.Location != nil {
		o.Location = in.Location
	}
	if in.Phone != nil {
		o.Phone = in.Phone
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return organizationProfile(o), nil
}

func organizationProfile(o *Organization) *Profile {
	attrs := map[string]interface{}{}
	if o.Location != nil {
		attrs["location"] = *o.Location
	}
	if o.Phone != nil {
		attrs["phone"] = *o.Phone
	}
	return &Profile{
		Role:       auth.RoleHospital,
		BusinessID: o.HospitalID,
		Email:      o.Email,
		Name:       o.Name,
		Attributes: attrs,
	}
}

// -- Loan provider store --

type loanProviderStore struct {
	repo LoanProviderRepository
}

func NewLoanProviderStore(repo LoanProviderRepository) ProfileStore {
	return &loanProviderStore{repo: repo}
}

func (s *loanProviderStore) Role() string { return auth.RoleLoanProvider }

func (s *loanProviderStore) Register(ctx context.Context, in ProfileInput) (*Profile, error) {
	p := &LoanProvider{
		Email: in.Email,
		Name:  in.FullName,
		Phone: in.Phone,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return loanProviderProfile(p), nil
}

func (s *loanProviderStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return loanProviderProfile(p), nil
}

func (s *loanProviderStore) Update(ctx context.Context, email string, in ProfileInput) (*Profile, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if in.FullName != "" {
		p.Name = in.FullName
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return loanProviderProfile(p), nil
}

func loanProviderProfile(p *LoanProvider) *Profile {
	attrs := map[string]interface{}{}
	if p.Phone != nil {
		attrs["phone"] = *p.Phone
	}
	return &Profile{
		Role:       auth.RoleLoanProvider,
		BusinessID: p.ProviderID,
		Email:      p.Email,
		Name:       p.Name,
		Attributes: attrs,
	}
}
