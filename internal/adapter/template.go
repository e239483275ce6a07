package adapter

import (
	"net/url"
	"strings"
)

// expandTemplate replaces {name} placeholders in a URL template. Values are
// query-escaped. Callers pass every placeholder the template may use, with
// empty strings for inapplicable ones.
func expandTemplate(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", url.QueryEscape(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
