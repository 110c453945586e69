package param

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type scanState int

const (
	stateInitial scanState = iota
	stateAccumulating
	stateAccumulatingCaps
)

// Derive computes the parameter for a property name such as "getDatabaseURL"
// or "http11Proxy". A leading "get" or "is" is dropped only when followed by
// an upper case letter.
func Derive(name string) (Parameter, error) {
	tokens, err := Tokenize(StripAccessorPrefix(name))
	if err != nil {
		return Parameter{}, err
	}
	return New(strings.Join(tokens, "_"))
}

// StripAccessorPrefix removes a getter style prefix: "getFoo" becomes "Foo",
// "isEnabled" becomes "Enabled", while "getter" and "is" are left alone.
func StripAccessorPrefix(name string) string {
	for _, prefix := range []string{"get", "is"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(rest); r != utf8.RuneError && unicode.IsUpper(r) {
			return rest
		}
	}
	return name
}

// Tokenize splits a camel case name into its words. Runs of capitals form a
// single word unless the last capital starts a lower case word, so
// "URLOfTheThing" yields URL, Of, The, Thing.
func Tokenize(name string) ([]string, error) {
	runes := []rune(name)
	tokens := []string{}
	var buf []rune

	emit := func() {
		tokens = append(tokens, string(buf))
		buf = buf[:0]
	}

	state := stateInitial
	for i := 0; i <= len(runes); {
		eof := i == len(runes)
		var ch rune
		if !eof {
			ch = runes[i]
		}

		switch state {
		case stateInitial:
			switch {
			case eof:
				return tokens, nil
			case unicode.IsLower(ch):
				buf = append(buf, ch)
				state = stateAccumulating
			case unicode.IsUpper(ch):
				buf = append(buf, ch)
				state = stateAccumulatingCaps
			default:
				return nil, unexpectedInput(name, ch)
			}
			i++

		case stateAccumulating:
			switch {
			case eof:
				emit()
				return tokens, nil
			case unicode.IsLower(ch), unicode.IsDigit(ch):
				buf = append(buf, ch)
				i++
			case unicode.IsUpper(ch):
				// reprocess ch as the start of the next word
				emit()
				state = stateInitial
			default:
				return nil, unexpectedInput(name, ch)
			}

		case stateAccumulatingCaps:
			switch {
			case eof:
				emit()
				return tokens, nil
			case unicode.IsLower(ch):
				buf = append(buf, ch)
				state = stateAccumulating
				i++
			case unicode.IsUpper(ch):
				if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
					emit()
					state = stateInitial
					continue
				}
				buf = append(buf, ch)
				i++
			case unicode.IsDigit(ch):
				buf = append(buf, ch)
				state = stateAccumulating
				i++
			default:
				return nil, unexpectedInput(name, ch)
			}
		}
	}
	return tokens, nil
}

func unexpectedInput(name string, ch rune) error {
	return namingError(codeMalformedName, name, fmt.Sprintf("unexpected input character: %c", ch))
}
