// Package ingestion turns candidate sources into the document pool the
// ranking engine scores: structured resume records, plain documents and
// plain-text resumes, from files, directories or JSON lines.
package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/candidate-ranker/internal/types"
)

// FlexString accepts a JSON string or number and keeps its text form.
// Extracted records put GPA and years of experience in either shape.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*f = FlexString(n.String())
	}
	return nil
}

// OnlineProfiles are the candidate's public links.
type OnlineProfiles struct {
	LinkedIn  string   `json:"linkedin,omitempty"`
	GitHub    string   `json:"github,omitempty"`
	Portfolio string   `json:"portfolio,omitempty"`
	Others    []string `json:"others,omitempty"`
}

// Education is one degree entry.
type Education struct {
	Degree      string     `json:"degree,omitempty"`
	Institution string     `json:"institution,omitempty"`
	Location    string     `json:"location,omitempty"`
	GPA         FlexString `json:"gpa,omitempty"`
	StartDate   string     `json:"start_date,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
}

// Experience is one position held.
type Experience struct {
	Role             string   `json:"role,omitempty"`
	Organization     string   `json:"organization,omitempty"`
	StartDate        string   `json:"start_date,omitempty"`
	EndDate          string   `json:"end_date,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// Project is one project entry.
type Project struct {
	Title        string `json:"title,omitempty"`
	Organization string `json:"organization,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Publication is one paper or talk.
type Publication struct {
	Title      string `json:"title,omitempty"`
	Conference string `json:"conference,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ResumeRecord is the structured form of one resume.
type ResumeRecord struct {
	ID                string              `json:"id,omitempty"`
	CandidateName     string              `json:"candidate_name,omitempty"`
	CandidateEmail    string              `json:"candidate_email,omitempty"`
	CandidatePhone    string              `json:"candidate_phone,omitempty"`
	JobTitle          string              `json:"job_title,omitempty"`
	YearsOfExperience FlexString          `json:"years_of_experience,omitempty"`
	OnlineProfiles    OnlineProfiles      `json:"online_profiles,omitempty"`
	Education         []Education         `json:"education,omitempty"`
	Experience        []Experience        `json:"experience,omitempty"`
	Projects          []Project           `json:"projects,omitempty"`
	Awards            []string            `json:"awards,omitempty"`
	Certificates      []string            `json:"certificates,omitempty"`
	Publications      []Publication       `json:"publications,omitempty"`
	Skills            map[string][]string `json:"skills,omitempty"`
	ResumePath        string              `json:"resume_path,omitempty"`
}

// Row keys of the flattened record.
const (
	FieldName              = "Name"
	FieldEmail             = "Email"
	FieldPhone             = "Phone"
	FieldJobTitle          = "Job Title"
	FieldExperience        = "Experience"
	FieldEducation         = "Education"
	FieldExperienceDetails = "Experience Details"
	FieldProjects          = "Projects"
	FieldAwards            = "Awards"
	FieldCertificates      = "Certificates"
	FieldPublications      = "Publications"
	FieldResumePath        = "resume_path"
)

// textSkills are the skill categories that reach the scored text, with the
// label each is printed under.
var textSkills = []struct{ key, label string }{
	{"Languages", "Languages"},
	{"Frameworks", "Frameworks"},
	{"Databases", "Databases"},
	{"Tools", "Tools"},
	{"Libraries", "Libraries"},
	{"Cloud_platforms", "Cloud Platforms"},
	{"Soft_skills", "Soft Skills"},
	{"Domain_expertise", "Domain Expertise"},
}

// metadataFields are copied from the row into Document.Metadata.
var metadataFields = []string{
	FieldName, FieldEmail, FieldPhone, FieldJobTitle, FieldExperience, FieldEducation,
	"Profile - Linkedin", "Profile - Github", "Profile - Portfolio", "Profile - Others",
	FieldResumePath,
}

// Row flattens the record into labelled single-line fields.
func (r *ResumeRecord) Row() map[string]string {
	row := map[string]string{
		FieldName:       r.CandidateName,
		FieldEmail:      r.CandidateEmail,
		FieldPhone:      r.CandidatePhone,
		FieldJobTitle:   r.JobTitle,
		FieldExperience: string(r.YearsOfExperience),

		"Profile - Linkedin":  r.OnlineProfiles.LinkedIn,
		"Profile - Github":    r.OnlineProfiles.GitHub,
		"Profile - Portfolio": r.OnlineProfiles.Portfolio,
		"Profile - Others":    strings.Join(r.OnlineProfiles.Others, ", "),

		FieldAwards:       strings.Join(r.Awards, ", "),
		FieldCertificates: strings.Join(r.Certificates, ", "),
	}

	lines := make([]string, len(r.Education))
	for i, e := range r.Education {
		lines[i] = fmt.Sprintf("%s, %s, %s, GPA: %s, %s - %s",
			e.Degree, e.Institution, e.Location, e.GPA, e.StartDate, e.EndDate)
	}
	row[FieldEducation] = strings.Join(lines, " | ")

	lines = make([]string, len(r.Experience))
	for i, e := range r.Experience {
		lines[i] = fmt.Sprintf("%s at %s (%s to %s): %s",
			e.Role, e.Organization, e.StartDate, e.EndDate, strings.Join(e.Responsibilities, "; "))
	}
	row[FieldExperienceDetails] = strings.Join(lines, " | ")

	lines = make([]string, len(r.Projects))
	for i, p := range r.Projects {
		lines[i] = fmt.Sprintf("%s - %s: %s", p.Title, p.Organization, p.Description)
	}
	row[FieldProjects] = strings.Join(lines, " | ")

	lines = make([]string, len(r.Publications))
	for i, p := range r.Publications {
		status := p.Status
		if status == "" {
			status = "N/A"
		}
		lines[i] = fmt.Sprintf("%s - %s (%s)", p.Title, p.Conference, status)
	}
	row[FieldPublications] = strings.Join(lines, " | ")

	for category, items := range r.Skills {
		row[skillKey(category)] = strings.Join(items, ", ")
	}

	if r.ResumePath != "" {
		row[FieldResumePath] = filepath.Base(r.ResumePath)
	}
	return row
}

// RecordToText renders the scored text of a record: one labelled line per
// section, experience first, then every known skill category.
func RecordToText(r *ResumeRecord) string {
	row := r.Row()
	lines := []string{
		"Experience: " + row[FieldExperienceDetails],
		"Projects: " + row[FieldProjects],
		"Awards: " + row[FieldAwards],
		"Certificates: " + row[FieldCertificates],
		"Publications: " + row[FieldPublications],
	}
	for _, s := range textSkills {
		lines = append(lines, "Skills - "+s.label+": "+row["Skills - "+s.key])
	}
	return strings.Join(lines, "\n")
}

// RecordToDocument converts a record into a pool document. Records without an
// ID get a random one.
func RecordToDocument(r *ResumeRecord) types.Document {
	row := r.Row()
	meta := make(map[string]string, len(metadataFields))
	for _, k := range metadataFields {
		if v := row[k]; v != "" {
			meta[k] = v
		}
	}
	for k, v := range row {
		if strings.HasPrefix(k, "Skills - ") && v != "" {
			meta[k] = v
		}
	}

	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	return types.Document{ID: id, Text: RecordToText(r), Metadata: meta}
}

// skillKey uppercases the first letter of a category and lowercases the rest,
// so "cloud_platforms" and "Cloud_Platforms" share a key.
func skillKey(category string) string {
	if category == "" {
		return "Skills - "
	}
	lower := []rune(strings.ToLower(category))
	lower[0] = []rune(strings.ToUpper(string(lower[0])))[0]
	return "Skills - " + string(lower)
}
