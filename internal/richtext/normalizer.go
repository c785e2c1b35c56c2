// Package richtext prepares stored rich text markup for a rich text editor
// field: loose text lines become paragraphs and legacy inline tags are
// replaced according to a named profile.
package richtext

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Context identifies the field a value belongs to.
type Context struct {
	Table   string
	Field   string
	PID     int64
	Profile string
}

// Normalizer converts stored markup to editor markup.
type Normalizer interface {
	Normalize(ctx Context, markup string) (string, error)
}

// Profile is a named set of transformation options.
type Profile struct {
	Name           string
	WrapParagraphs bool
	// Remap replaces inline tag names, e.g. b -> strong.
	Remap map[string]string
}

var blockTags = []string{
	"address", "article", "aside", "blockquote", "div", "dl", "figure", "footer",
	"h1", "h2", "h3", "h4", "h5", "h6", "header", "hr", "li", "ol", "p", "pre",
	"section", "table", "tbody", "td", "th", "thead", "tr", "ul",
}

var (
	openBlock  = regexp.MustCompile(`(?i)<(` + strings.Join(blockTags, "|") + `)(\s[^>]*)?>`)
	closeBlock = regexp.MustCompile(`(?i)</(` + strings.Join(blockTags, "|") + `)\s*>`)
	voidBlock  = regexp.MustCompile(`(?i)^<hr(\s[^>]*)?/?>`)
)

// Profiles is a Normalizer backed by a fixed set of profiles.
type Profiles struct {
	profiles map[string]compiled
}

type compiled struct {
	Profile
	remaps []tagRemap
}

type tagRemap struct {
	re   *regexp.Regexp
	repl string
}

// DefaultProfiles returns the "default" and "minimal" profiles.
func DefaultProfiles() *Profiles {
	return NewProfiles(
		Profile{
			Name:           "default",
			WrapParagraphs: true,
			Remap:          map[string]string{"b": "strong", "i": "em"},
		},
		Profile{Name: "minimal", WrapParagraphs: true},
	)
}

// NewProfiles compiles the tag remaps of every profile once.
func NewProfiles(ps ...Profile) *Profiles {
	m := make(map[string]compiled, len(ps))
	for _, p := range ps {
		m[p.Name] = compiled{Profile: p, remaps: compileRemaps(p.Remap)}
	}
	return &Profiles{profiles: m}
}

func compileRemaps(tags map[string]string) []tagRemap {
	names := make([]string, 0, len(tags))
	for from := range tags {
		names = append(names, from)
	}
	sort.Strings(names)
	out := make([]tagRemap, 0, len(names))
	for _, from := range names {
		out = append(out, tagRemap{
			re:   regexp.MustCompile(`(?i)<(/?)` + regexp.QuoteMeta(from) + `(\s[^>]*)?>`),
			repl: "<${1}" + tags[from] + "${2}>",
		})
	}
	return out
}

func (p *Profiles) Normalize(ctx Context, markup string) (string, error) {
	name := ctx.Profile
	if name == "" {
		name = "default"
	}
	prof, ok := p.profiles[name]
	if !ok {
		return "", fmt.Errorf("richtext: unknown profile %q for %s:%s", name, ctx.Table, ctx.Field)
	}

	out := strings.ReplaceAll(markup, "\r\n", "\n")
	out = remap(out, prof.remaps)
	if prof.WrapParagraphs {
		out = wrapParagraphs(out)
	}
	return out, nil
}

func remap(s string, remaps []tagRemap) string {
	for _, r := range remaps {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// wrapParagraphs wraps every top-level line that is not part of a block
// element in <p>. Blank top-level lines become empty paragraphs.
func wrapParagraphs(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	depth := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		loc := openBlock.FindStringIndex(trimmed)
		startsBlock := loc != nil && loc[0] == 0
		closesBlock := strings.HasPrefix(trimmed, "</") && closeBlock.MatchString(trimmed)

		if depth > 0 || startsBlock || closesBlock {
			out = append(out, line)
		} else if trimmed == "" {
			out = append(out, "<p>&nbsp;</p>")
		} else {
			out = append(out, "<p>"+trimmed+"</p>")
		}

		if !voidBlock.MatchString(trimmed) {
			depth += len(openBlock.FindAllString(trimmed, -1)) - len(closeBlock.FindAllString(trimmed, -1))
		}
		if depth < 0 {
			depth = 0
		}
	}
	return strings.Join(out, "\n")
}
