// Package prompts builds the instructions sent to the generator for each
// purpose: record extraction, template reconstruction and template filling.
package prompts

import "fmt"

// ExtractionSystem frames every extraction call.
const ExtractionSystem = "You are a resume parser. You copy resume content into JSON without rewording it."

// Extraction asks for the canonical record of a normalized document.
func Extraction(markdown string) string {
	return fmt.Sprintf(`TASK:
Parse the Markdown resume below and return ONE JSON object describing it.

OUTPUT FORMAT:
Return ONLY the JSON object wrapped in a single ` + "```json" + ` fenced block. No text before or after it.

{
  "sections": [
    {
      "section_name": "SECTION TITLE",
      "subsections": [
        {
          "title": "Subsection title",
          "data": ["line 1", "line 2"]
        }
      ]
    }
  ]
}

RULES:
1. Use the Markdown headings (#, ##, ###) to infer sections and subsections.
2. If a section has no clear subsections, create exactly one subsection whose title is the section name.
3. Copy every line VERBATIM. Do not paraphrase, summarize, translate, reorder or invent content.
4. Remove Markdown decoration (**, __, #, leading "- " or "* ") but keep the words.
5. Lines that were bullet points keep the marker _•_ at the start, e.g. "_•_Built the billing system".
6. Content that fits no section goes into a section named "OTHER".
7. Every key shown above is required. No other keys are allowed.

RESUME MARKDOWN:
<<<
%s
>>>`, markdown)
}
