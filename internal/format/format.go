// Package format renders structured address components into the textual
// layout customary for a country. Template data is loaded once at startup
// and immutable afterwards, so a single Formatter is safe for concurrent
// use across request handlers.
package format

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
)

// DefaultCountry keys the worldwide fallback template.
const DefaultCountry = "default"

//go:embed templates.yaml
var bundledTemplates []byte

type rule struct {
	// Requires lists component keys that must all be present for the
	// rule to apply. An empty list matches unconditionally.
	Requires []string `yaml:"requires"`
	// Absent lists component keys that must not be present.
	Absent []string `yaml:"absent"`
	Layout string   `yaml:"layout"`
}

type template struct {
	Rules []rule `yaml:"rules"`
}

type dataFile struct {
	Attribution map[string]string   `yaml:"attribution"`
	Templates   map[string]template `yaml:"templates"`
}

// Formatter holds the loaded template set.
type Formatter struct {
	templates   map[string]template
	fallback    template
	attribution map[string]string
}

// Load reads template data from path, or the bundled data when path is
// empty.
func Load(path string) (*Formatter, error) {
	raw := bundledTemplates
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template data: %w", err)
		}
	}

	var data dataFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse template data: %w", err)
	}

	fallback, ok := data.Templates[DefaultCountry]
	if !ok {
		return nil, fmt.Errorf("template data has no %q template", DefaultCountry)
	}

	return &Formatter{
		templates:   data.Templates,
		fallback:    fallback,
		attribution: data.Attribution,
	}, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Format renders comps using the template for country, falling back to the
// worldwide template for unknown codes. Missing every component yields an
// empty string; an unknown country is never an error.
func (f *Formatter) Format(comps geo.Components, country string) string {
	tmpl, ok := f.templates[strings.ToUpper(country)]
	if !ok {
		tmpl = f.fallback
	}

	comps = promoteCityAliases(comps)

	// First-match policy: rules are ordered most specific first by the
	// template author, no best-match scoring happens here.
	for _, r := range tmpl.Rules {
		if !ruleApplies(r, comps) {
			continue
		}
		return renderLayout(r.Layout, comps)
	}
	return ""
}

// Attribution returns the license string for a data source id, or the
// default attribution when the id is unknown.
func (f *Formatter) Attribution(licenseID string) string {
	if s, ok := f.attribution[licenseID]; ok {
		return s
	}
	return f.attribution[DefaultCountry]
}

func ruleApplies(r rule, comps geo.Components) bool {
	for _, key := range r.Requires {
		if !comps.Has(key) {
			return false
		}
	}
	for _, key := range r.Absent {
		if comps.Has(key) {
			return false
		}
	}
	return true
}

// promoteCityAliases fills the city slot from town or village so template
// authors only ever reference {{city}}. Works on a copy; the caller's
// components stay untouched.
func promoteCityAliases(comps geo.Components) geo.Components {
	if comps.Has(geo.CompCity) {
		return comps
	}
	alias := ""
	if comps.Has(geo.CompTown) {
		alias = comps.Get(geo.CompTown)
	} else if comps.Has(geo.CompVillage) {
		alias = comps.Get(geo.CompVillage)
	}
	if alias == "" {
		return comps
	}

	out := geo.Components{}
	for k, v := range comps {
		out[k] = v
	}
	out.Set(geo.CompCity, alias)
	return out
}

func renderLayout(layout string, comps geo.Components) string {
	rendered := placeholderPattern.ReplaceAllStringFunc(layout, func(m string) string {
		key := placeholderPattern.FindStringSubmatch(m)[1]
		return comps.Get(key)
	})
	return cleanup(rendered)
}

var (
	multiSpace    = regexp.MustCompile(`[ \t]+`)
	repeatedSep   = regexp.MustCompile(`([,;])(\s*[,;])+`)
	danglingEdges = regexp.MustCompile(`^[\s,;-]+|[\s,;-]+$`)
)

// cleanup removes the debris unset placeholders leave behind: collapsed
// blank lines, dangling commas, runs of separators. Template authors do
// not have to account for missing components.
func cleanup(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = repeatedSep.ReplaceAllString(line, "$1")
		line = multiSpace.ReplaceAllString(line, " ")
		line = danglingEdges.ReplaceAllString(line, "")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
