package domain

import "time"

type Education struct {
	Degree     string `json:"degree"`
	Field      string `json:"field"`
	University string `json:"university"`
	Year       *int   `json:"year,omitempty"`
}

// Executive is one named executive officer disclosed in a single filing.
// Monetary amounts are USD; nil means the filing did not disclose the component.
type Executive struct {
	Accession             string      `json:"accession"`
	Name                  string      `json:"name"`
	Age                   *int        `json:"age,omitempty"`
	CurrentRole           string      `json:"current_role"`
	PastRoles             []string    `json:"past_roles,omitempty"`
	Education             []Education `json:"education,omitempty"`
	Salary                *float64    `json:"compensation_salary,omitempty"`
	Bonus                 *float64    `json:"compensation_bonus,omitempty"`
	StockAwards           *float64    `json:"compensation_stock,omitempty"`
	OptionAwards          *float64    `json:"compensation_options,omitempty"`
	Other                 *float64    `json:"compensation_other,omitempty"`
	Total                 *float64    `json:"compensation_total,omitempty"`
	CompensationYear      *int        `json:"compensation_year,omitempty"`
	StartDate             string      `json:"start_date,omitempty"`
	BoardMember           bool        `json:"board_member"`
	CommitteeMemberships  []string    `json:"committee_memberships,omitempty"`
	OtherBoardMemberships []string    `json:"other_board_memberships,omitempty"`
	NotableAchievements   string      `json:"notable_achievements,omitempty"`
	CreatedAt             time.Time   `json:"created_at"`
}

// ExportRow is one executive record joined with its company and filing keys,
// the shape the flat-file exporters consume.
type ExportRow struct {
	CompanyName string    `json:"company_name"`
	CIK         string    `json:"cik"`
	FilingDate  string    `json:"filing_date"`
	Executive   Executive `json:"executive"`
}

// SectionTopic tags a located span by the kind of content it carries.
type SectionTopic string

const (
	TopicCompensation SectionTopic = "compensation"
	TopicBiography    SectionTopic = "biography"
	TopicEducation    SectionTopic = "education"
)

// TextSpan is a located slice of filing text handed to the extraction engine.
type TextSpan struct {
	Heading string       `json:"heading"`
	Topic   SectionTopic `json:"topic"`
	Text    string       `json:"text"`
}
