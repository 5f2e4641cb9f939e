package prompts

import "fmt"

// TemplateSystem frames template reconstruction calls.
const TemplateSystem = "You convert resume content into a single self-contained HTML document that reproduces the original visual design."

// TemplateReconstruction asks for a styled HTML document approximating the
// original design, described by its text and layout summary.
func TemplateReconstruction(text, layout string) string {
	return fmt.Sprintf(`ORIGINAL RESUME CONTENT:
%s

LAYOUT INFORMATION:
%s

TASK:
Write a complete HTML document that reproduces the original resume's visual appearance.

REQUIREMENTS:
1. Match spacing, margins, alignment, font families, sizes, weights and colors as closely as the layout information allows.
2. Keep the visual hierarchy: h1 for the name, h2 for sections, h3 for subsections.
3. Reproduce bold, italic and underline where the original uses them.
4. Put ALL CSS in one <style> element inside <head>. No external stylesheets, fonts, scripts or images.
5. Wrap everything in <div class="resume-container">, the name and contact block in <div class="resume-header">, and each section in <div class="resume-section">.
6. Use the placeholders {{NAME}}, {{EMAIL}} and {{PHONE}} for those contact fields ONLY. Keep all other content as literal text.
7. Include a print media query.

Return ONLY the HTML document, starting with <!DOCTYPE html>. No explanations and no Markdown.`, text, layout)
}

// TemplateRefine asks for a cleaned-up version of a positioned template.
func TemplateRefine(rawHTML string) string {
	return fmt.Sprintf(`The HTML below was generated from a PDF and positions every word absolutely.
Improve it ONLY by merging adjacent spans on the same line into one span, keeping the same left/top/font values of the first span.
Do not change the text, the page sizes, the CSS rules or the overall structure.
Return ONLY the full HTML document.

%s`, rawHTML)
}
