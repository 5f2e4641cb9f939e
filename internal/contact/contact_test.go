package contact_test

import (
	"reflect"
	"strings"
	"testing"

	"resume-filler/internal/contact"
	"resume-filler/internal/model"

	"github.com/davecgh/go-spew/spew"
)

// ── Linkify ────────────────────────────────────────────────────────────────

func TestLinkify_EmailAndURL(t *testing.T) {
	got := contact.Linkify("Reach me at a@b.com or https://example.com")
	if strings.Count(got, "<a ") != 2 {
		t.Fatalf("expected two anchors, got %q", got)
	}
	if !strings.Contains(got, `href="mailto:a@b.com"`) {
		t.Errorf("missing mailto anchor: %q", got)
	}
	if !strings.Contains(got, `href="https://example.com"`) {
		t.Errorf("missing url anchor: %q", got)
	}
}

func TestLinkify_Idempotent(t *testing.T) {
	inputs := []string{
		"Reach me at a@b.com or https://example.com",
		"Portfolio: www.janedoe.dev, GitHub github.com/jane",
		"See (https://example.com/path?q=1).",
		`Already <a href="https://x.io">https://x.io</a> wrapped and mail me@x.io`,
		"no links here",
		"",
	}
	for _, in := range inputs {
		once := contact.Linkify(in)
		twice := contact.Linkify(once)
		if once != twice {
			t.Errorf("Linkify not idempotent for %q:\n once  %q\n twice %q", in, once, twice)
		}
		if strings.Contains(twice, "<a href=\"<a") || strings.Contains(twice, "</a></a>") {
			t.Errorf("double-wrapped anchor in %q", twice)
		}
	}
}

func TestLinkify_TrailingPunctuationStaysOutside(t *testing.T) {
	got := contact.Linkify("Visit https://example.com.")
	want := `Visit <a href="https://example.com" target="_blank">https://example.com</a>.`
	if got != want {
		t.Errorf("Linkify = %q, want %q", got, want)
	}
}

func TestLinkify_WWWGetsScheme(t *testing.T) {
	got := contact.Linkify("www.example.org")
	if !strings.Contains(got, `href="https://www.example.org"`) {
		t.Errorf("Linkify(www) = %q", got)
	}
}

func TestLinkify_SchemeWithoutHost(t *testing.T) {
	for _, in := range []string{"https://.", "see http://, then www..", "https://"} {
		if got := contact.Linkify(in); got != in {
			t.Errorf("Linkify(%q) = %q, want it unchanged", in, got)
		}
	}
	if got := contact.Linkify("https://. and https://x.io"); strings.Count(got, "<a ") != 1 || !strings.Contains(got, `href="https://x.io"`) {
		t.Errorf("Linkify mixed = %q", got)
	}
}

// ── DeriveMetadata ─────────────────────────────────────────────────────────

func sampleRecord() model.ResumeRecord {
	return model.ResumeRecord{Sections: []model.Section{
		{Name: "Contact Information", Subsections: []model.Subsection{{
			Title: "Jane Doe",
			Data: []string{
				"jane.doe@example.com",
				"+1 (555) 123-4567",
				"https://github.com/janedoe",
				"linkedin.com/in/janedoe",
				"https://janedoe.dev",
				"https://github.com/janedoe",
			},
		}}},
		{Name: "Professional Experience", Subsections: []model.Subsection{
			{Title: "Senior Engineer, Acme Corp", Data: []string{"2020 - Present", "_•_Built systems"}},
		}},
		{Name: "Skills", Subsections: []model.Subsection{{Title: "", Data: []string{"Go", "SQL"}}}},
	}}
}

func TestDeriveMetadata_Success(t *testing.T) {
	info := contact.DeriveMetadata(sampleRecord())
	if info.Name != "Jane Doe" {
		t.Errorf("Name = %q", info.Name)
	}
	if info.Email != "jane.doe@example.com" {
		t.Errorf("Email = %q", info.Email)
	}
	if info.Phone != "+1 (555) 123-4567" {
		t.Errorf("Phone = %q", info.Phone)
	}
	if info.Title != "Senior Engineer, Acme Corp" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.SectionsCount != 3 {
		t.Errorf("SectionsCount = %d", info.SectionsCount)
	}
	want := []model.Link{
		{Label: "GitHub", URL: "https://github.com/janedoe"},
		{Label: "LinkedIn", URL: "https://linkedin.com/in/janedoe"},
		{Label: "Portfolio", URL: "https://janedoe.dev"},
	}
	if !reflect.DeepEqual(info.Links, want) {
		t.Errorf("Links = %s", spew.Sdump(info.Links))
	}
}

func TestDeriveMetadata_Deterministic(t *testing.T) {
	rec := sampleRecord()
	first := contact.DeriveMetadata(rec)
	for i := 0; i < 5; i++ {
		if got := contact.DeriveMetadata(rec); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, spew.Sdump(got), spew.Sdump(first))
		}
	}
}

func TestDeriveMetadata_NameFromFirstDataLine(t *testing.T) {
	rec := model.ResumeRecord{Sections: []model.Section{
		{Name: "Personal", Subsections: []model.Subsection{{
			Title: "Email Address",
			Data:  []string{"John Q Public", "john@public.org"},
		}}},
	}}
	info := contact.DeriveMetadata(rec)
	if info.Name != "John Q Public" {
		t.Errorf("Name = %q, want John Q Public", info.Name)
	}
	if info.Email != "john@public.org" {
		t.Errorf("Email = %q", info.Email)
	}
}

func TestDeriveMetadata_FieldsLeftBlank(t *testing.T) {
	rec := model.ResumeRecord{Sections: []model.Section{
		{Name: "Contact", Subsections: []model.Subsection{{
			Title: "Contact Details",
			Data:  []string{"phone: n/a", "lives somewhere quiet"},
		}}},
		{Name: "Education", Subsections: []model.Subsection{{Title: "BSc", Data: []string{"2019"}}}},
	}}
	info := contact.DeriveMetadata(rec)
	if info.Name != "" || info.Email != "" || info.Phone != "" || info.Title != "" {
		t.Errorf("expected blank fields, got %s", spew.Sdump(info))
	}
	if len(info.Links) != 0 {
		t.Errorf("Links = %v, want none", info.Links)
	}
}

func TestDeriveMetadata_FallbackNameWithoutContactSection(t *testing.T) {
	rec := model.ResumeRecord{Sections: []model.Section{
		{Name: "Header", Subsections: []model.Subsection{{Title: "Ada Lovelace", Data: []string{"Analyst"}}}},
	}}
	if got := contact.DeriveMetadata(rec).Name; got != "Ada Lovelace" {
		t.Errorf("Name = %q, want Ada Lovelace", got)
	}
}

func TestDeriveMetadata_EmptyRecord(t *testing.T) {
	info := contact.DeriveMetadata(model.ResumeRecord{})
	if info.SectionsCount != 0 || info.Name != "" || info.Links == nil {
		t.Errorf("unexpected metadata for empty record: %s", spew.Sdump(info))
	}
}

func TestDeriveMetadata_BareDomainPortfolio(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"janedoe.dev", true},
		{"Node.js", false},
		{"Python, Go", false},
	}
	for _, c := range cases {
		rec := model.ResumeRecord{Sections: []model.Section{
			{Name: "Contact", Subsections: []model.Subsection{{Data: []string{c.line}}}},
		}}
		got := len(contact.DeriveMetadata(rec).Links) == 1
		if got != c.want {
			t.Errorf("portfolio detection for %q = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestDeriveMetadata_TitleSkipsBlankExperience(t *testing.T) {
	rec := model.ResumeRecord{Sections: []model.Section{
		{Name: "Experience Summary", Subsections: []model.Subsection{{Title: " ", Data: []string{"Ten years of backend work"}}}},
		{Name: "Work Experience", Subsections: []model.Subsection{{Title: "Staff Engineer, Initech", Data: []string{"2021 - Present"}}}},
	}}
	if got := contact.DeriveMetadata(rec).Title; got != "Staff Engineer, Initech" {
		t.Errorf("Title = %q, want the first non-blank experience title", got)
	}
}

func TestDeriveMetadata_YearRangeIsNotAPhone(t *testing.T) {
	rec := model.ResumeRecord{Sections: []model.Section{
		{Name: "Contact", Subsections: []model.Subsection{{
			Title: "Jane Doe",
			Data:  []string{"2019-2023", "2019 – 2023", "+1 (555) 123-4567"},
		}}},
	}}
	if got := contact.DeriveMetadata(rec).Phone; got != "+1 (555) 123-4567" {
		t.Errorf("Phone = %q, want +1 (555) 123-4567", got)
	}
}
