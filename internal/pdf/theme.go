package pdf

import "invoicegen/internal/invoice"

// Theme holds the cosmetic parameters that vary by template variant. None of
// them affect computed values.
type Theme struct {
	HeadingSize   float64
	TableHeaderBg string
	Dashed        bool
}

var themes = map[string]Theme{
	invoice.TemplateMinimalist:  {HeadingSize: 22, TableHeaderBg: "#f8fafc", Dashed: false},
	invoice.TemplateCreative:    {HeadingSize: 24, TableHeaderBg: "#f1f5f9", Dashed: true},
	invoice.TemplateTraditional: {HeadingSize: 20, TableHeaderBg: "#f8fafc", Dashed: false},
}

// ThemeFor returns the style parameters for a template variant, defaulting to
// the minimalist look for unknown variants.
func ThemeFor(templateID string) Theme {
	if t, ok := themes[templateID]; ok {
		return t
	}
	return themes[invoice.TemplateMinimalist]
}

// hexRGB converts "#rrggbb" to components. Callers pass known-good values;
// anything malformed comes back as black.
func hexRGB(hex string) (int, int, int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	var out [3]int
	for i := 0; i < 3; i++ {
		v := 0
		for _, c := range hex[1+2*i : 3+2*i] {
			v *= 16
			switch {
			case c >= '0' && c <= '9':
				v += int(c - '0')
			case c >= 'a' && c <= 'f':
				v += int(c-'a') + 10
			case c >= 'A' && c <= 'F':
				v += int(c-'A') + 10
			}
		}
		out[i] = v
	}
	return out[0], out[1], out[2]
}
