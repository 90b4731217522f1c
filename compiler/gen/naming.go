package gen

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/xsdalchemy/compiler/load"
)

// Case conventions.
const (
	CasePascal         = "pascalCase"
	CaseCamel          = "camelCase"
	CaseSnake          = "snakeCase"
	CaseScreamingSnake = "screamingSnakeCase"
	CaseMixed          = "mixedCase"
	CaseMixedPascal    = "mixedPascalCase"
	CaseMixedSnake     = "mixedSnakeCase"
	CaseOriginal       = "originalCase"
)

var caseFuncs = map[string]func(string) string{
	CasePascal:         pascalCase,
	CaseCamel:          camelCase,
	CaseSnake:          snakeCase,
	CaseScreamingSnake: screamingSnakeCase,
	CaseMixed:          mixedCase,
	CaseMixedPascal:    mixedPascalCase,
	CaseMixedSnake:     mixedSnakeCase,
	CaseOriginal:       originalCase,
}

// Cases returns the names of the supported case conventions.
func Cases() []string {
	return []string{
		CasePascal, CaseCamel, CaseSnake, CaseScreamingSnake,
		CaseMixed, CaseMixedPascal, CaseMixedSnake, CaseOriginal,
	}
}

type charClass uint8

const (
	charOther charClass = iota
	charUpper
	charLower
	charDigit
)

func classify(r rune) charClass {
	switch {
	case unicode.IsUpper(r):
		return charUpper
	case unicode.IsLower(r):
		return charLower
	case unicode.IsDigit(r):
		return charDigit
	default:
		return charOther
	}
}

// splitWords splits s on non-alphanumeric characters and on every switch
// to an upper case letter. Runs of upper case letters stay together, so
// "HTTPCode" is one word and "userID" is two.
func splitWords(s string) []string {
	var (
		words []string
		buf   []rune
		prev  charClass
		start = true
	)
	flush := func() {
		if len(buf) > 0 {
			words = append(words, string(buf))
			buf = buf[:0]
		}
	}
	for _, r := range s {
		c := classify(r)
		switch {
		case c == charOther:
			flush()
		case start || c == prev:
			buf = append(buf, r)
		case c == charUpper && prev != charUpper:
			flush()
			buf = append(buf, r)
		default:
			buf = append(buf, r)
		}
		prev, start = c, c == charOther
	}
	flush()
	return words
}

func title(w string) string {
	return cases.Title(language.Und).String(w)
}

func pascalCase(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(title(w))
	}
	return b.String()
}

func camelCase(s string) string {
	return lowerFirst(pascalCase(s))
}

func snakeCase(s string) string {
	return strings.ToLower(strings.Join(splitWords(s), "_"))
}

func screamingSnakeCase(s string) string {
	return strings.ToUpper(snakeCase(s))
}

func mixedCase(s string) string {
	return strings.Join(splitWords(s), "")
}

func mixedPascalCase(s string) string {
	return upperFirst(mixedCase(s))
}

func mixedSnakeCase(s string) string {
	return strings.Join(splitWords(s), "_")
}

var nonIdent = regexp.MustCompile(`[^\p{L}\p{N}_]`)

func originalCase(s string) string {
	return nonIdent.ReplaceAllString(s, "_")
}

func lowerFirst(s string) string {
	for i, r := range s {
		return string(unicode.ToLower(r)) + s[i+len(string(r)):]
	}
	return s
}

func upperFirst(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

var (
	keywords = setOf(
		"False", "None", "True", "and", "as", "assert", "async", "await",
		"break", "class", "continue", "def", "del", "elif", "else", "except",
		"finally", "for", "from", "global", "if", "import", "in", "is",
		"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
		"while", "with", "yield",
	)
	// stopWords shadow builtins or names imported by generated modules.
	// Matched case-insensitively.
	stopWords = setOf(
		"any", "bool", "bytes", "column", "date", "datetime", "decimal",
		"dict", "enum", "field", "float", "foreignkey", "int", "list",
		"object", "optional", "property", "qname", "relationship", "self",
		"str", "time", "timedelta", "tuple", "type", "union",
	)
	// fieldStopWords clash with attributes of mapped classes.
	fieldStopWords = setOf("id", "metadata", "registry")
	numberName     = regexp.MustCompile(`^-\d*\.?\d+$`)
)

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsReserved reports if name is a python keyword or shadows a name the
// generated modules rely on.
func IsReserved(name string) bool {
	if _, ok := keywords[name]; ok {
		return true
	}
	_, ok := stopWords[strings.ToLower(name)]
	return ok
}

// SafeName converts name with the case function, guarding against empty
// names, negative numbers, names not starting with a letter and reserved
// words by adding the prefix.
func SafeName(name, prefix string, convert func(string) string, reserved func(string) bool) string {
	for range 4 {
		switch {
		case name == "":
			name = prefix
			continue
		case numberName.MatchString(name):
			name = prefix + "_minus_" + name
			continue
		}
		if slug := alnum(name); slug == "" || !unicode.IsLetter([]rune(slug)[0]) {
			name = prefix + "_" + name
			continue
		}
		result := convert(name)
		if reserved(result) {
			name = name + "_" + prefix
			continue
		}
		return result
	}
	return convert(name)
}

func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// Namer converts schema names to python identifiers according to the
// configured aliases and conventions.
type Namer struct {
	cfg *Config
}

// NewNamer returns a Namer for the given configuration.
func NewNamer(cfg *Config) *Namer {
	return &Namer{cfg: cfg}
}

func (n *Namer) convert(nc NameConvention) func(string) string {
	if fn, ok := caseFuncs[nc.Case]; ok {
		return fn
	}
	return originalCase
}

// ClassName returns the class name for a qualified or local name. With
// parents, the name is the concatenation of the converted parent names,
// suffixed with "InnerClass" when more than one parent is joined.
func (n *Namer) ClassName(name string, parents ...string) string {
	if alias, ok := n.alias(n.cfg.ClassAliases, name); ok {
		return alias
	}
	name = load.LocalName(name)
	if len(parents) > 0 {
		var b strings.Builder
		for _, p := range parents {
			b.WriteString(n.ClassName(p))
		}
		if len(parents) > 1 {
			b.WriteString("InnerClass")
		}
		name = b.String()
	}
	return SafeName(name, n.cfg.ClassName.SafePrefix, n.convert(n.cfg.ClassName), IsReserved)
}

// alias looks up the full name first, then its local part.
func (n *Namer) alias(table map[string]string, name string) (string, bool) {
	if a, ok := table[name]; ok && a != "" {
		return a, true
	}
	if a, ok := table[load.LocalName(name)]; ok && a != "" {
		return a, true
	}
	return "", false
}

// FieldName returns the field name of an attribute.
func (n *Namer) FieldName(name string) string {
	if alias, ok := n.cfg.FieldAliases[name]; ok && alias != "" {
		return alias
	}
	return SafeName(name, n.cfg.FieldName.SafePrefix, n.convert(n.cfg.FieldName), isReservedField)
}

func isReservedField(name string) bool {
	if _, ok := fieldStopWords[strings.ToLower(name)]; ok {
		return true
	}
	return IsReserved(name)
}

// ConstantName returns the member name of an enumeration value.
func (n *Namer) ConstantName(name string) string {
	if alias, ok := n.cfg.FieldAliases[name]; ok && alias != "" {
		return alias
	}
	return SafeName(name, n.cfg.ConstantName.SafePrefix, n.convert(n.cfg.ConstantName), IsReserved)
}

// ModuleName returns the module name for a namespace or file name.
func (n *Namer) ModuleName(name string) string {
	if alias, ok := n.cfg.ModuleAliases[name]; ok && alias != "" {
		return alias
	}
	return SafeName(cleanURI(name), n.cfg.ModuleName.SafePrefix, n.convert(n.cfg.ModuleName), IsReserved)
}

// PackageName returns the dotted package name, converting every segment.
func (n *Namer) PackageName(name string) string {
	if alias, ok := n.cfg.PackageAliases[name]; ok && alias != "" {
		return alias
	}
	if name == "" {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if alias, ok := n.cfg.PackageAliases[p]; ok && alias != "" {
			parts[i] = alias
			continue
		}
		parts[i] = SafeName(p, n.cfg.PackageName.SafePrefix, n.convert(n.cfg.PackageName), IsReserved)
	}
	return strings.Join(parts, ".")
}

// MaxIdentifierLength is the postgres identifier limit.
const MaxIdentifierLength = 63

// TableName returns the table name of a class from its path of class names.
// Segments are field cased and joined with "__", leading segments are
// dropped until the name fits MaxIdentifierLength.
func (n *Namer) TableName(path ...string) string {
	convert := n.convert(n.cfg.FieldName)
	segs := make([]string, len(path))
	for i, p := range path {
		segs[i] = convert(p)
	}
	name := strings.Join(segs, "__")
	for len(name) > MaxIdentifierLength {
		i := strings.Index(name, "__")
		if i < 0 {
			break
		}
		name = name[i+2:]
	}
	return name
}

// cleanURI strips the scheme, the "www." prefix and common file
// extensions of a namespace uri.
func cleanURI(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		uri = uri[i+3:]
	}
	uri = strings.TrimPrefix(uri, "urn:")
	uri = strings.TrimPrefix(uri, "www.")
	for _, ext := range []string{".xsd", ".wsdl", ".xml"} {
		uri = strings.TrimSuffix(uri, ext)
	}
	return strings.Trim(uri, "/")
}
