// Package promptbuild assembles the instruction string sent to the image
// provider. Directives are collected as typed sections and serialized once at
// the end, so the size ceiling can be enforced by trimming the free-text
// brief instead of blindly cutting structural directives.
package promptbuild

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"posterlab/internal/templates"
)

// DefaultCeiling is the hard character budget for an assembled prompt.
const DefaultCeiling = 4500

// section is one ordered prompt fragment. Trimmable sections absorb the
// truncation when the assembled prompt exceeds the ceiling.
type section struct {
	text      string
	trimmable bool
}

// Input describes everything the assembler needs about one request. Asset
// integration fields refer to already-resolved images; the assembler never
// sees raw payloads.
type Input struct {
	Brief string
	// CloneMode is the user's explicit flag; a reference image or an
	// auto-selected template forces clone mode regardless.
	CloneMode    bool
	HasReference bool
	AutoTemplate bool

	// DomainHint is the caller-declared poster domain; when it names a known
	// domain it overrides keyword detection on the brief.
	DomainHint string

	LogoCount             int
	LogoPositions         []string
	HasContentImage       bool
	SecondaryInstructions []string

	AspectRatio     string
	OutputFormat    string
	ScenePreference string
	// Language is the ISO code for on-poster text (e.g. "fr").
	Language string
}

// Builder assembles prompts under a fixed ceiling. One Builder serves all
// request goroutines, so access to the rand source is serialized.
type Builder struct {
	ceiling int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewBuilder(ceiling int) *Builder {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Builder{
		ceiling: ceiling,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *Builder) pick(n int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Intn(n)
}

// Build returns the final provider instruction string.
func (b *Builder) Build(in Input) string {
	var sections []section

	if in.CloneMode || in.HasReference || in.AutoTemplate {
		sections = append(sections, cloneSections()...)
	} else {
		sections = append(sections, b.freeSections(in.Brief, in.DomainHint)...)
	}

	// The brief is the only trimmable part: everything after it must
	// survive truncation.
	if brief := strings.TrimSpace(in.Brief); brief != "" {
		sections = append(sections, section{text: "Poster content and intent: " + brief, trimmable: true})
	}

	sections = append(sections, integrationSections(in)...)
	sections = append(sections, trailingSection(in))

	return serialize(sections, b.ceiling)
}

func cloneSections() []section {
	out := make([]section, 0, len(cloneDirectives))
	for _, d := range cloneDirectives {
		out = append(out, section{text: d})
	}
	return out
}

func (b *Builder) freeSections(brief, hint string) []section {
	name := strings.ToLower(strings.TrimSpace(hint))
	if !templates.KnownDomain(name) {
		name = ""
		if detected, score := templates.DetectDomain(brief); score > 0 {
			name = detected
		}
	}
	expert := defaultExpertDirective
	if d, ok := expertDirectives[name]; ok {
		expert = d
	}
	out := []section{{text: expert}}
	out = append(out, section{text: typographicStyles[b.pick(len(typographicStyles))]})
	for _, rule := range compositionRules {
		out = append(out, section{text: rule})
	}
	return out
}

func integrationSections(in Input) []section {
	var out []section
	if in.LogoCount > 0 {
		text := fmt.Sprintf("Integrate the %d supplied logo image(s) without distortion, on a clean area of the design.", in.LogoCount)
		if len(in.LogoPositions) > 0 {
			text = fmt.Sprintf("Integrate the %d supplied logo image(s) without distortion, placed respectively: %s.",
				in.LogoCount, strings.Join(in.LogoPositions, ", "))
		}
		out = append(out, section{text: text})
	}
	if in.HasContentImage {
		out = append(out, section{text: "Feature the supplied content photo as the main visual subject, blended naturally into the composition."})
	}
	for i, instr := range in.SecondaryInstructions {
		instr = strings.TrimSpace(instr)
		if instr == "" {
			instr = "place it harmoniously in the composition"
		}
		out = append(out, section{text: fmt.Sprintf("Additional image %d: %s.", i+1, instr)})
	}
	return out
}

func trailingSection(in Input) section {
	parts := []string{
		fmt.Sprintf("Output: %s, aspect ratio %s.", strings.ToUpper(in.OutputFormat), in.AspectRatio),
	}
	if scene := strings.TrimSpace(in.ScenePreference); scene != "" {
		parts = append(parts, "Scene preference: "+scene+".")
	}
	lang := languageName(in.Language)
	parts = append(parts, fmt.Sprintf("All text rendered on the poster must be in %s, spelled correctly.", lang))
	return section{text: strings.Join(parts, " ")}
}

// serialize joins sections and enforces the ceiling. Overflow is removed from
// trimmable sections first; a blind tail cut only happens when the structural
// directives alone exceed the budget.
func serialize(sections []section, ceiling int) string {
	structuralLen := 0
	for _, s := range sections {
		if !s.trimmable {
			structuralLen += len(s.text) + 1
		}
	}

	budget := ceiling - structuralLen
	lines := make([]string, 0, len(sections))
	for _, s := range sections {
		text := s.text
		if s.trimmable {
			if budget <= 0 {
				continue
			}
			if len(text)+1 > budget {
				text = strings.TrimSpace(cutAtRune(text, budget-1))
			}
			budget -= len(text) + 1
		}
		if text != "" {
			lines = append(lines, text)
		}
	}

	out := strings.Join(lines, "\n")
	if len(out) > ceiling {
		out = cutAtRune(out, ceiling)
	}
	return out
}

// cutAtRune truncates s to at most n bytes without splitting a rune.
func cutAtRune(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func languageName(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "fr", "":
		return "FRENCH"
	case "en":
		return "ENGLISH"
	default:
		return strings.ToUpper(code)
	}
}
