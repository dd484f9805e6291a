package clinical

import (
	"strings"

	"github.com/google/uuid"

	"github.com/medloan/medloan/internal/domain/identity"
	"github.com/medloan/medloan/internal/platform/fhir"
)

// BuildInput is the snapshot and context a bundle is built from. Practitioner,
// Organization and VisitReason are optional; an absent reference is omitted
// context, not an error.
type BuildInput struct {
	Applicant    *identity.Applicant
	Practitioner *identity.Practitioner
	Organization *identity.Organization
	VisitReason  *string
}

// BuildResult carries the bundle and the subject id all its resources share.
type BuildResult struct {
	SubjectID string
	Bundle    *fhir.Bundle
}

// BuildBundle converts a patient snapshot into a collection bundle. A fresh
// subject id is generated per call; every resource in the bundle references
// it. The builder performs no persistence.
func BuildBundle(in BuildInput) *BuildResult {
	subjectID := uuid.NewString()
	subjectRef := fhir.Reference{Reference: fhir.FormatReference("Patient", subjectID)}

	resources := []interface{}{patientResource(subjectID, in.Applicant)}

	var practitionerRef *fhir.Reference
	if in.Practitioner != nil {
		id := uuid.NewString()
		resources = append(resources, practitionerResource(id, in.Practitioner))
		practitionerRef = &fhir.Reference{
			Reference: fhir.FormatReference("Practitioner", id),
			Display:   in.Practitioner.FullName,
		}
	}
	if in.Organization != nil {
		id := uuid.NewString()
		resources = append(resources, organizationResource(id, in.Organization))
	}

	for _, allergy := range ParseAllergies(in.Applicant.Allergies) {
		resources = append(resources, allergyResource(subjectRef, allergy))
	}

	if in.Applicant.BloodGroup != nil && strings.TrimSpace(*in.Applicant.BloodGroup) != "" {
		resources = append(resources, bloodGroupResource(subjectRef, practitionerRef, *in.Applicant.BloodGroup))
	}

	if in.VisitReason != nil && strings.TrimSpace(*in.VisitReason) != "" {
		resources = append(resources, visitReasonResource(subjectRef, practitionerRef, *in.VisitReason))
	}

	return &BuildResult{
		SubjectID: subjectID,
		Bundle:    fhir.NewCollectionBundle(uuid.NewString(), resources),
	}
}

// ParseAllergies splits a comma-delimited allergy string into individual
// entries, trimming whitespace and dropping empties.
func ParseAllergies(allergies *string) []string {
	if allergies == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(*allergies, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func patientResource(subjectID string, a *identity.Applicant) map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Patient",
		"id":           subjectID,
		"name": []fhir.HumanName{
			{Use: "official", Text: a.FullName},
		},
		"identifier": []fhir.Identifier{
			{Use: "usual", Value: a.PatientID},
		},
	}
	if a.Gender != nil {
		result["gender"] = strings.ToLower(*a.Gender)
	}
	if a.DOB != nil {
		result["birthDate"] = a.DOB.Format("2006-01-02")
	}
	if a.Phone != nil {
		result["telecom"] = []fhir.ContactPoint{
			{System: "phone", Value: *a.Phone, Use: "mobile"},
		}
	}
	if a.Address != nil {
		result["address"] = []fhir.Address{
			{Use: "home", Text: *a.Address},
		}
	}
	return result
}

func practitionerResource(id string, p *identity.Practitioner) map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Practitioner",
		"id":           id,
		"name": []fhir.HumanName{
			{Use: "official", Text: p.FullName},
		},
		"identifier": []fhir.Identifier{
			{Use: "usual", Value: p.DoctorID},
		},
	}
	if p.Specialization != nil {
		result["qualification"] = []map[string]interface{}{
			{"code": fhir.CodeableConceptText(*p.Specialization)},
		}
	}
	return result
}

func organizationResource(id string, o *identity.Organization) map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Organization",
		"id":           id,
		"name":         o.Name,
		"identifier": []fhir.Identifier{
			{Use: "usual", Value: o.HospitalID},
		},
	}
	if o.Location != nil {
		result["address"] = []fhir.Address{
			{Use: "work", Text: *o.Location},
		}
	}
	return result
}

func allergyResource(subject fhir.Reference, allergy string) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "AllergyIntolerance",
		"id":           uuid.NewString(),
		"clinicalStatus": fhir.CodeableConceptCoded(
			"http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical", "active", "Active"),
		"code":    fhir.CodeableConceptText(allergy),
		"patient": subject,
	}
}

func bloodGroupResource(subject fhir.Reference, performer *fhir.Reference, bloodGroup string) map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Observation",
		"id":           uuid.NewString(),
		"status":       "final",
		"category": []*fhir.CodeableConcept{
			fhir.CodeableConceptCoded(
				"http://terminology.hl7.org/CodeSystem/observation-category", "laboratory", "Laboratory"),
		},
		"code":        fhir.CodeableConceptText("Blood Group"),
		"valueString": bloodGroup,
		"subject":     subject,
	}
	if performer != nil {
		result["performer"] = []fhir.Reference{*performer}
	}
	return result
}

func visitReasonResource(subject fhir.Reference, performer *fhir.Reference, reason string) map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Observation",
		"id":           uuid.NewString(),
		"status":       "final",
		"code":         fhir.CodeableConceptText("Reason for Visit"),
		"valueString":  reason,
		"subject":      subject,
	}
	if performer != nil {
		result["performer"] = []fhir.Reference{*performer}
	}
	return result
}
