package deepseek

import "encoding/json"

const sectionFilterPrompt = `Review these section titles and previews from an SEC DEF 14A filing.
Identify sections likely to contain:
1. Executive compensation information
2. Executive biographical information
3. Management structure information

Return a JSON array of section titles that are most relevant. Return at most 3 sections.
Example: ["EXECUTIVE COMPENSATION", "BIOGRAPHICAL INFORMATION"]

Here are the sections to review:`

const extractionPrompt = `Extract detailed executive information from these proxy statement sections.

For each Named Executive Officer (NEO), extract:

1. Name and current position
2. Age (if mentioned)
3. Compensation for most recent fiscal year:
   - Base salary
   - Stock awards
   - Option awards
   - Non-equity incentive plan / bonus
   - All other compensation
   - Total compensation
4. Educational background (all degrees, universities, and fields)
5. When they joined the company (if mentioned)
6. Previous roles at the company
7. Board and committee memberships

Return as JSON array, with NO other details. Example:
[
    {
        "name": "John Smith",
        "current_role": "Chief Executive Officer",
        "age": 55,
        "compensation_salary": 1000000,
        "compensation_stock": 5000000,
        "compensation_options": 0,
        "compensation_bonus": 2000000,
        "compensation_other": 500000,
        "compensation_total": 8500000,
        "compensation_year": 2023,
        "education": [
            {
                "degree": "MBA",
                "field": "Business Administration",
                "university": "Harvard Business School",
                "year": 1990
            }
        ],
        "start_date": "2015",
        "past_roles": ["COO", "SVP Operations"],
        "board_member": true,
        "committee_memberships": ["Executive Committee"],
        "other_board_memberships": [],
        "notable_achievements": null
    }
]`

const strictRetryInstruction = `Your previous reply was not valid JSON. Respond with ONLY a JSON array of executive objects in the exact shape shown earlier. No markdown fences, no commentary, no trailing text.`

func sectionFilterMessages(previews map[string]string) []chatMessage {
	encoded, _ := json.MarshalIndent(previews, "", "  ")
	return []chatMessage{
		{Role: "system", Content: "You are an expert at identifying relevant sections in SEC filings."},
		{Role: "user", Content: sectionFilterPrompt},
		{Role: "assistant", Content: "I will identify the most relevant sections and return them as a JSON array."},
		{Role: "user", Content: string(encoded)},
	}
}

func extractionMessages(combined string, strict bool) []chatMessage {
	messages := []chatMessage{
		{Role: "system", Content: "You are an expert at extracting executive compensation and biographical information from SEC filings."},
		{Role: "user", Content: extractionPrompt},
		{Role: "assistant", Content: "I will extract the executive information and return it in the requested JSON format."},
		{Role: "user", Content: "Here's the content:\n\n" + combined},
	}
	if strict {
		messages = append(messages, chatMessage{Role: "user", Content: strictRetryInstruction})
	}
	return messages
}
