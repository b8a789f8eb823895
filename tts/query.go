package tts

import (
	"net/url"
	"strings"
)

// param is one query or form field. Providers are sensitive to field order,
// so fields are kept as an ordered list instead of url.Values.
type param struct {
	key, value string
}

type params []param

// encode renders the fields as application/x-www-form-urlencoded in order.
// Spaces become '+', and only alphanumerics and "*-._" stay unescaped.
func (p params) encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(formEscape(kv.key))
		b.WriteByte('=')
		b.WriteString(formEscape(kv.value))
	}
	return b.String()
}

var formFixups = strings.NewReplacer("~", "%7E", "%2A", "*")

func formEscape(s string) string {
	return formFixups.Replace(url.QueryEscape(s))
}
