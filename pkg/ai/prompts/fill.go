package prompts

import "fmt"

// FillSystem frames template fill calls.
const FillSystem = "You fill HTML resume templates with new content while keeping their design byte-for-byte identical."

// Fill asks the generator to put the flattened profile into the template.
func Fill(templateHTML, profile string) string {
	return fmt.Sprintf(`Fill the HTML template with the new profile data. The result must look exactly like the template, only with different text.

ABSOLUTE RULES:
1. Keep every class, id, inline style, attribute and CSS rule exactly as it is.
2. Keep the tag nesting and the heading hierarchy (h1, h2, h3...) unchanged.
3. Do not add CSS and do not remove CSS.
4. Replace ONLY text content.
5. Map each profile section to the template section that means the same thing, even when the names differ (for example "Professional Experience" goes where the template shows employment history).
6. If the template shows a subsection as bullet points, write the new content as bullet points. If it shows paragraph text, write paragraph text.
7. When the profile has more entries than the template, repeat the template's markup for that entry type.
8. When the template has sections the profile lacks, remove their content but keep the surrounding design.
9. Replace placeholders such as {{NAME}}, {{EMAIL}} and {{PHONE}} with the profile values.
10. Output exactly one complete HTML document and nothing else, starting with <!DOCTYPE html>.

TEMPLATE:
%s

NEW PROFILE DATA:
%s`, templateHTML, profile)
}
