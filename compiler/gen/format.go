package gen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/go-wordwrap"
)

// Raw is a python expression rendered verbatim.
type Raw string

// quote returns s as a double-quoted python string literal.
func quote(s string) string {
	return strconv.Quote(s)
}

// escapeString escapes s for use inside a double-quoted literal.
func escapeString(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}

func (g *Graph) formatArguments(args []Meta, indent int) string {
	if len(args) == 0 {
		return ""
	}
	ind := strings.Repeat(" ", indent)
	lines := make([]string, len(args))
	for i, a := range args {
		lines[i] = fmt.Sprintf("    %s%s=%s", ind, a.Key, g.formatMetadata(a.Value, indent+4, a.Key))
	}
	return "\n" + strings.Join(lines, ",\n") + "\n" + ind
}

func (g *Graph) formatMetadata(v any, indent int, key string) string {
	switch v := v.(type) {
	case []Meta:
		return g.formatDict(v, indent)
	case []any:
		return g.formatIterable(v, indent, false)
	case Raw:
		return string(v)
	case string:
		return g.FormatString(v, indent, key, 4)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case nil:
		return "None"
	default:
		return fmt.Sprint(v)
	}
}

func (g *Graph) formatDict(data []Meta, indent int) string {
	ind := strings.Repeat(" ", indent)
	lines := make([]string, len(data))
	for i, m := range data {
		lines[i] = fmt.Sprintf(`    %s"%s": %s,`, ind, m.Key, g.formatMetadata(m.Value, indent+4, m.Key))
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + ind + "}"
}

func (g *Graph) formatIterable(data []any, indent int, tuple bool) string {
	ind := strings.Repeat(" ", indent)
	lines := make([]string, len(data))
	for i, v := range data {
		lines[i] = fmt.Sprintf("    %s%s,", ind, g.formatMetadata(v, indent+4, ""))
	}
	open, end := "[", "]"
	if tuple {
		open, end = "(", ")"
	}
	return open + "\n" + strings.Join(lines, "\n") + "\n" + ind + end
}

var unescapedQuote = regexp.MustCompile(`([^\\])"`)

// FormatString renders a string value of the field metadata. Strings
// longer than the max line length are split into implicitly concatenated
// literals wrapped in parentheses.
func (g *Graph) FormatString(data string, indent int, key string, pad int) string {
	switch {
	case strings.HasPrefix(data, "Type[") && strings.HasSuffix(data, "]"):
		if len(data) > 5 && data[5] == '"' {
			return data
		}
		return data[5 : len(data)-1]
	case strings.HasPrefix(data, "Literal[") && strings.HasSuffix(data, "]"):
		return data[8 : len(data)-1]
	case key == "default" || key == "default_factory":
		return data
	case key == "pattern":
		return `r"` + unescapedQuote.ReplaceAllString(data, `$1\"`) + `"`
	case data == "":
		return `""`
	}
	start := indent + 2
	if key != "" {
		start += len(key) + pad
	}
	value := escapeString(data)
	if utf8.RuneCountInString(value)+start < g.MaxLineLength || !strings.Contains(value, " ") {
		return `"` + value + `"`
	}
	next := indent + 4
	lines := wrapChunks(value, g.MaxLineLength-next-2)
	for i, l := range lines {
		lines[i] = strings.Repeat(" ", next) + `"` + l + `"`
	}
	return "(\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(" ", indent) + ")"
}

// wrapChunks splits s into lines of at most width runes, keeping all
// whitespace and breaking words longer than a line.
func wrapChunks(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var (
		lines  []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curLen = 0
	}
	chunks := splitChunks(s)
	for len(chunks) > 0 {
		c := []rune(chunks[0])
		switch {
		case curLen+len(c) <= width:
			cur.WriteString(chunks[0])
			curLen += len(c)
			chunks = chunks[1:]
		case len(c) > width:
			space := width - curLen
			cur.WriteString(string(c[:space]))
			chunks[0] = string(c[space:])
			flush()
		default:
			flush()
		}
	}
	if curLen > 0 {
		flush()
	}
	return lines
}

// splitChunks splits s into alternating runs of whitespace and
// non-whitespace.
func splitChunks(s string) []string {
	var (
		chunks []string
		start  int
		space  bool
	)
	for i, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n'
		if i > start && isSpace != space {
			chunks = append(chunks, s[start:i])
			start = i
		}
		space = isSpace
	}
	if start < len(s) {
		chunks = append(chunks, s[start:])
	}
	return chunks
}

// TextWrap wraps text to the max line length minus offset, indenting the
// continuation lines.
func (g *Graph) TextWrap(s string, offset int) string {
	const indent = "    "
	width := g.MaxLineLength - offset - len(indent)
	if width < 1 {
		width = 1
	}
	wrapped := wordwrap.WrapString(strings.Join(strings.Fields(s), " "), uint(width))
	return strings.ReplaceAll(wrapped, "\n", "\n"+indent)
}

// CleanDocstring trims every line of a docstring, drops empty lines and
// replaces triple double quotes. Backslashes are escaped unless escape is
// false.
func CleanDocstring(s string, escape bool) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if escape {
			l = strings.ReplaceAll(l, `\`, `\\`)
		}
		lines = append(lines, strings.TrimSpace(strings.ReplaceAll(l, `"""`, `'''`)))
	}
	return strings.Join(lines, "\n")
}

// ClassAnnotation returns the @dataclass decorator of the output format.
func ClassAnnotation(f OutputFormat) string {
	var args []string
	if !f.Repr {
		args = append(args, "repr=False")
	}
	if !f.Eq {
		args = append(args, "eq=False")
	}
	if f.Order {
		args = append(args, "order=True")
	}
	if f.UnsafeHash {
		args = append(args, "unsafe_hash=True")
	}
	if f.Frozen {
		args = append(args, "frozen=True")
	}
	if f.Slots {
		args = append(args, "slots=True")
	}
	if f.KwOnly {
		args = append(args, "kw_only=True")
	}
	if len(args) == 0 {
		return "@dataclass"
	}
	return "@dataclass(" + strings.Join(args, ", ") + ")"
}

type (
	importName struct {
		name     string
		searches []string
	}
	importPattern struct {
		module string
		names  []importName
	}
)

func typePatterns(x string) []string {
	return []string{": " + x + " =", "[" + x + "]", "[" + x + ",", " " + x + ",", " " + x + "]", " " + x + "("}
}

func columnPatterns(x string) []string {
	return []string{"Column(" + x, "ARRAY(" + x}
}

var importPatterns = []importPattern{
	{"dataclasses", []importName{
		{"dataclass", []string{"@dataclass"}},
		{"field", []string{" = field("}},
	}},
	{"decimal", []importName{{"Decimal", typePatterns("Decimal")}}},
	{"enum", []importName{{"Enum", []string{"(Enum)"}}}},
	{"typing", []importName{
		{"Dict", []string{": Dict"}},
		{"List", []string{": List["}},
		{"Optional", []string{"Optional["}},
		{"Tuple", []string{"Tuple["}},
		{"Type", []string{"Type["}},
		{"Union", []string{"Union["}},
	}},
	{"xml.etree.ElementTree", []importName{{"QName", typePatterns("QName")}}},
	{"xsdata.models.datatype", []importName{
		{"XmlDate", typePatterns("XmlDate")},
		{"XmlDateTime", typePatterns("XmlDateTime")},
		{"XmlDuration", typePatterns("XmlDuration")},
		{"XmlPeriod", typePatterns("XmlPeriod")},
		{"XmlTime", typePatterns("XmlTime")},
	}},
	{"sqlalchemy", []importName{
		{"Boolean", columnPatterns("Boolean")},
		{"Column", []string{"Column("}},
		{"Date", columnPatterns("Date)")},
		{"DateTime", columnPatterns("DateTime")},
		{"Enum as SqlEnum", []string{"SqlEnum("}},
		{"Float", columnPatterns("Float")},
		{"ForeignKey", []string{"ForeignKey("}},
		{"Integer", columnPatterns("Integer")},
		{"Interval", columnPatterns("Interval")},
		{"LargeBinary", columnPatterns("LargeBinary")},
		{"Numeric", columnPatterns("Numeric")},
		{"String", columnPatterns("String")},
		{"Time", columnPatterns("Time)")},
	}},
	{"sqlalchemy.dialects.postgresql", []importName{
		{"ARRAY", []string{"ARRAY("}},
		{"JSONB", columnPatterns("JSONB")},
	}},
	{"sqlalchemy.orm", []importName{
		{"registry", []string{"registry()"}},
		{"relationship", []string{"relationship("}},
	}},
}

// DefaultImports returns the import statements needed by the rendered
// module output.
func DefaultImports(output string) string {
	var result []string
	for _, p := range importPatterns {
		var names []string
		for _, n := range p.names {
			for _, s := range n.searches {
				if strings.Contains(output, s) {
					names = append(names, n.name)
					break
				}
			}
		}
		if len(names) > 0 {
			result = append(result, "from "+p.module+" import "+strings.Join(names, ", "))
		}
	}
	return strings.Join(result, "\n")
}
