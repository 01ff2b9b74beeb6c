// Package export flattens succeeded executive records into analyst-facing
// flat files. Education is widened to three degree column groups so a row
// stays one executive.
package export

import (
	"strconv"
	"strings"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

const maxEducationColumns = 3

var columns = []string{
	"company_name", "cik", "filing_date",
	"name", "age", "current_role",
	"past_roles", "compensation_salary",
	"compensation_stock", "compensation_options", "compensation_bonus",
	"compensation_other", "compensation_total",
	"compensation_year", "start_date",
	"board_member", "committee_memberships",
	"other_board_memberships", "notable_achievements",
	"education1_degree", "education1_field", "education1_university", "education1_year",
	"education2_degree", "education2_field", "education2_university", "education2_year",
	"education3_degree", "education3_field", "education3_university", "education3_year",
}

// flatten renders one export row as cell values aligned with columns. A nil
// numeric field renders empty, not zero.
func flatten(row domain.ExportRow) []any {
	e := row.Executive
	cells := []any{
		row.CompanyName, row.CIK, row.FilingDate,
		e.Name, intCell(e.Age), e.CurrentRole,
		strings.Join(e.PastRoles, "; "), moneyCell(e.Salary),
		moneyCell(e.StockAwards), moneyCell(e.OptionAwards), moneyCell(e.Bonus),
		moneyCell(e.Other), moneyCell(e.Total),
		intCell(e.CompensationYear), e.StartDate,
		e.BoardMember, strings.Join(e.CommitteeMemberships, "; "),
		strings.Join(e.OtherBoardMemberships, "; "), e.NotableAchievements,
	}
	for i := 0; i < maxEducationColumns; i++ {
		if i < len(e.Education) {
			edu := e.Education[i]
			cells = append(cells, edu.Degree, edu.Field, edu.University, intCell(edu.Year))
		} else {
			cells = append(cells, nil, nil, nil, nil)
		}
	}
	return cells
}

func intCell(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func moneyCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// cellString renders a flattened cell for CSV output.
func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case bool:
		return strconv.FormatBool(c)
	case int:
		return strconv.Itoa(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return ""
	}
}
