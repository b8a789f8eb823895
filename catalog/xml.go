package catalog

import (
	"encoding/xml"
	"sort"
	"strings"
)

// VoicesXML renders the voice listing consumed by the studio client.
// Languages are sorted by code; voices keep catalog order inside each
// language. header is written verbatim before the root element.
func (c *Catalog) VoicesXML(header string) string {
	groups := make(map[string][]Voice)
	for _, v := range c.Voices() {
		groups[v.Language] = append(groups[v.Language], v)
	}
	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("<voices>")
	for _, code := range codes {
		b.WriteString(`<language id="`)
		writeAttr(&b, code)
		b.WriteString(`" desc="`)
		writeAttr(&b, c.languages[code])
		b.WriteString(`">`)
		for _, v := range groups[code] {
			b.WriteString(`<voice id="`)
			writeAttr(&b, v.ID)
			b.WriteString(`" desc="`)
			writeAttr(&b, v.Desc)
			b.WriteString(`" sex="`)
			writeAttr(&b, v.Gender)
			b.WriteString(`" demo-url="" country="`)
			writeAttr(&b, v.Country)
			b.WriteString(`" plus="N"/>`)
		}
		b.WriteString("</language>")
	}
	b.WriteString("</voices>")
	return b.String()
}

func writeAttr(b *strings.Builder, s string) {
	// strings.Builder never returns a write error
	_ = xml.EscapeText(b, []byte(s))
}
