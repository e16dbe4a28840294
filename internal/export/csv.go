package export

import "strings"

// CSV renders a fixed header row followed by one row per entity, fields
// joined by comma. Embedded commas in field values are replaced with
// semicolons instead of quoting; downstream spreadsheets imported this
// format historically and expect it unchanged.
func CSV(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteString("\n")
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, field := range row {
			fields[i] = Sanitize(field)
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// Sanitize strips field content that would break the comma-separated
// layout. No escaping is performed.
func Sanitize(field string) string {
	field = strings.ReplaceAll(field, ",", ";")
	field = strings.ReplaceAll(field, "\n", " ")
	return field
}
