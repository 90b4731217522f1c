package gostruct

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-openapi/inflect"
)

var (
	// mu guards rules and acronyms.
	mu       sync.RWMutex
	rules    = ruleset()
	acronyms = make(map[string]struct{})
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{
		"ACL", "API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP",
		"HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA",
		"SMTP", "SQL", "SSH", "TCP", "TLS", "TTL", "UDP", "UI", "UID", "URI",
		"URL", "UTF8", "UUID", "VM", "XML", "XMPP", "XSD", "XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// AddAcronym registers a word rendered upper-cased in Go identifiers.
func AddAcronym(word string) {
	word = strings.ToUpper(word)
	mu.Lock()
	defer mu.Unlock()
	acronyms[word] = struct{}{}
	rules.AddAcronym(word)
}

func isAcronym(w string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := acronyms[strings.ToUpper(w)]
	return ok
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

// pascal converts a snake_case or dotted name to an exported Go
// identifier. Words that are already mixed-case are kept.
func pascal(s string) string {
	var b strings.Builder
	for _, w := range strings.FieldsFunc(s, isSeparator) {
		if isAcronym(w) && w == strings.ToLower(w) {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// receiver returns the receiver name of a type: the lower-cased initials
// of its words.
func receiver(s string) string {
	s = strings.TrimLeft(s, "*[]0123456789")
	var b strings.Builder
	prev := rune(0)
	for i, r := range s {
		if i == 0 || (unicode.IsUpper(r) && !unicode.IsUpper(prev)) {
			b.WriteRune(unicode.ToLower(r))
		}
		prev = r
	}
	if b.Len() == 0 {
		return "_x"
	}
	return b.String()
}

// plural returns the plural form of a name, suffixed with "Slice" when
// the name has no distinct plural.
func plural(name string) string {
	mu.RLock()
	p := rules.Pluralize(name)
	mu.RUnlock()
	if p == name {
		p += "Slice"
	}
	return p
}
