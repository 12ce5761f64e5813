package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// patternToken is one element of a Java-style date pattern: either a run
// of a single pattern letter or a literal.
type patternToken struct {
	letter  byte
	count   int
	literal string
}

func tokenizePattern(p string) []patternToken {
	var out []patternToken
	appendLiteral := func(s string) {
		if n := len(out); n > 0 && out[n-1].letter == 0 {
			out[n-1].literal += s
			return
		}
		out = append(out, patternToken{literal: s})
	}

	for i := 0; i < len(p); {
		c := p[i]
		switch {
		case c == '\'':
			// '' is a literal quote; 'text' is quoted literal text
			if i+1 < len(p) && p[i+1] == '\'' {
				appendLiteral("'")
				i += 2
				continue
			}
			var lit strings.Builder
			j := i + 1
			for ; j < len(p); j++ {
				if p[j] != '\'' {
					lit.WriteByte(p[j])
					continue
				}
				if j+1 < len(p) && p[j+1] == '\'' {
					lit.WriteByte('\'')
					j++
					continue
				}
				break
			}
			appendLiteral(lit.String())
			i = j + 1
		case isPatternLetter(c):
			j := i
			for j < len(p) && p[j] == c {
				j++
			}
			out = append(out, patternToken{letter: c, count: j - i})
			i = j
		default:
			appendLiteral(p[i : i+1])
			i++
		}
	}
	return out
}

func isPatternLetter(c byte) bool {
	return strings.IndexByte("yMdHhmsSaEDZXz", c) >= 0
}

// javaLayout translates a Java-style pattern to a Go time layout.
func javaLayout(p string) string {
	var b strings.Builder
	for _, tok := range tokenizePattern(p) {
		if tok.letter == 0 {
			b.WriteString(tok.literal)
			continue
		}
		switch tok.letter {
		case 'y':
			if tok.count == 2 {
				b.WriteString("06")
			} else {
				b.WriteString("2006")
			}
		case 'M':
			switch {
			case tok.count == 1:
				b.WriteString("1")
			case tok.count == 2:
				b.WriteString("01")
			case tok.count == 3:
				b.WriteString("Jan")
			default:
				b.WriteString("January")
			}
		case 'd':
			b.WriteString(pick(tok.count, "2", "02"))
		case 'H':
			b.WriteString("15")
		case 'h':
			b.WriteString(pick(tok.count, "3", "03"))
		case 'm':
			b.WriteString(pick(tok.count, "4", "04"))
		case 's':
			b.WriteString(pick(tok.count, "5", "05"))
		case 'S':
			b.WriteString(strings.Repeat("0", tok.count))
		case 'a':
			b.WriteString("PM")
		case 'E':
			if tok.count >= 4 {
				b.WriteString("Monday")
			} else {
				b.WriteString("Mon")
			}
		case 'D':
			b.WriteString("002")
		case 'Z':
			b.WriteString("-0700")
		case 'X':
			b.WriteString("Z07:00")
		case 'z':
			b.WriteString("MST")
		}
	}
	return b.String()
}

func pick(count int, one, more string) string {
	if count == 1 {
		return one
	}
	return more
}

// Extra strftime verbs for Java tokens without a standard strftime
// equivalent.
var javaSpecs = func() strftime.SpecificationSet {
	ds := strftime.NewSpecificationSet()
	unpadded := func(get func(time.Time) int) strftime.Appender {
		return strftime.AppendFunc(func(b []byte, t time.Time) []byte {
			return strconv.AppendInt(b, int64(get(t)), 10)
		})
	}
	_ = ds.Set('1', unpadded(func(t time.Time) int { return int(t.Month()) }))
	_ = ds.Set('2', unpadded(time.Time.Day))
	_ = ds.Set('3', unpadded(func(t time.Time) int {
		if h := t.Hour() % 12; h != 0 {
			return h
		}
		return 12
	}))
	_ = ds.Set('4', unpadded(time.Time.Minute))
	_ = ds.Set('5', unpadded(time.Time.Second))
	_ = ds.Set('6', unpadded(time.Time.Hour))
	_ = ds.Set('7', strftime.StdlibFormat("Z07:00"))
	_ = ds.Set('L', strftime.Milliseconds())
	return ds
}()

// javaStrftime translates a Java-style pattern to a strftime pattern
// understood with javaSpecs.
func javaStrftime(p string) string {
	var b strings.Builder
	for _, tok := range tokenizePattern(p) {
		if tok.letter == 0 {
			b.WriteString(strings.ReplaceAll(tok.literal, "%", "%%"))
			continue
		}
		switch tok.letter {
		case 'y':
			if tok.count == 2 {
				b.WriteString("%y")
			} else {
				b.WriteString("%Y")
			}
		case 'M':
			switch {
			case tok.count == 1:
				b.WriteString("%1")
			case tok.count == 2:
				b.WriteString("%m")
			case tok.count == 3:
				b.WriteString("%b")
			default:
				b.WriteString("%B")
			}
		case 'd':
			b.WriteString(pick(tok.count, "%2", "%d"))
		case 'H':
			b.WriteString(pick(tok.count, "%6", "%H"))
		case 'h':
			b.WriteString(pick(tok.count, "%3", "%I"))
		case 'm':
			b.WriteString(pick(tok.count, "%4", "%M"))
		case 's':
			b.WriteString(pick(tok.count, "%5", "%S"))
		case 'S':
			b.WriteString("%L")
		case 'a':
			b.WriteString("%p")
		case 'E':
			if tok.count >= 4 {
				b.WriteString("%A")
			} else {
				b.WriteString("%a")
			}
		case 'D':
			b.WriteString("%j")
		case 'Z':
			b.WriteString("%z")
		case 'X':
			b.WriteString("%7")
		case 'z':
			b.WriteString("%Z")
		}
	}
	return b.String()
}

// newJavaFormatter compiles a Java-style pattern into a strftime formatter.
func newJavaFormatter(p string) (*strftime.Strftime, error) {
	return strftime.New(javaStrftime(p), strftime.WithSpecificationSet(javaSpecs))
}
