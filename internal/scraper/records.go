package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type CourseRecord struct {
	URL           string     `json:"url"`
	Code          string     `json:"code"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Credits       string     `json:"credits"`
	Hours         string     `json:"hours"`
	Prerequisites Requisites `json:"prerequisites"`
	Corequisites  string     `json:"corequisites"`
	Restrictions  string     `json:"restrictions"`
	Notes         string     `json:"notes"`
	Equivalencies string     `json:"equivalencies"`
}

type ProgramRecord struct {
	URL                   string   `json:"url"`
	Title                 string   `json:"title"`
	IntroText             string   `json:"intro_text"`
	Overview              string   `json:"overview"`
	Credential            string   `json:"credential"`
	WorkExperience        string   `json:"work_experience"`
	StudyOptions          string   `json:"study_options"`
	OpenToInternational   string   `json:"open_to_international"`
	AreaOfStudy           string   `json:"area_of_study"`
	Length                string   `json:"length"`
	ProgramOutlineURL     string   `json:"program_outline_url"`
	Curriculum            []string `json:"curriculum"`
	TuitionInfo           string   `json:"tuition_info"`
	AdmissionRequirements string   `json:"admission_requirements"`

	TotalCredits string             `json:"total_credits,omitempty"`
	ProgramCode  string             `json:"program_code,omitempty"`
	CIP          string             `json:"cip,omitempty"`
	Location     string             `json:"location,omitempty"`
	StartDate    string             `json:"start_date,omitempty"`
	Contact      string             `json:"contact,omitempty"`
	Metadata     map[string]string  `json:"metadata,omitempty"`
	Courses      []CurriculumCourse `json:"courses,omitempty"`
}

// CurriculumCourse is one structured curriculum row. Credits holds just the
// number when one could be read.
type CurriculumCourse struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Credits string `json:"credits,omitempty"`
}

// Label renders the course the way curriculum lists show it.
func (c CurriculumCourse) Label() string {
	if c.Title == "" {
		return c.Code
	}
	return c.Code + " - " + c.Title
}

// Requisites is either free text or an ordered mapping from a relationship
// label (e.g. "One of:") to course references. It encodes as a JSON string
// in the first case and as a JSON object in the second.
type Requisites struct {
	Text   string
	Groups []RequisiteGroup
}

type RequisiteGroup struct {
	Label string
	Items []string
}

func TextRequisites(text string) Requisites {
	return Requisites{Text: text}
}

func (r Requisites) IsZero() bool {
	return r.Text == "" && len(r.Groups) == 0
}

func (r Requisites) MarshalJSON() ([]byte, error) {
	if len(r.Groups) == 0 {
		return marshalLiteral(r.Text)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range r.Groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalLiteral(g.Label)
		if err != nil {
			return nil, err
		}
		items := g.Items
		if items == nil {
			items = []string{}
		}
		val, err := marshalLiteral(items)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Requisites) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Requisites{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Requisites{Text: s}
		return nil
	case '{':
		groups, err := decodeOrderedGroups(data)
		if err != nil {
			return err
		}
		*r = Requisites{Groups: groups}
		return nil
	default:
		return fmt.Errorf("requisites: unexpected JSON %q", truncate(string(data), 40))
	}
}

func decodeOrderedGroups(data []byte) ([]RequisiteGroup, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	groups := []RequisiteGroup{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		label, ok := tok.(string)
		if !ok {
			return nil, errors.New("requisites: object key is not a string")
		}
		var items []string
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("requisites: group %q: %w", label, err)
		}
		if items == nil {
			items = []string{}
		}
		groups = append(groups, RequisiteGroup{Label: label, Items: items})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return groups, nil
}

// marshalLiteral encodes v without escaping <, > and &, which show up
// verbatim in course requirements.
func marshalLiteral(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
