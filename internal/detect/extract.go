package detect

import "regexp"

// numberPattern matches integers and decimals, with an optional leading
// minus sign. Thousands separators and currency symbols are not part of a
// token; "1,234" yields "1" and "234".
var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ExtractNumbers returns every numeric token in text, in order of
// appearance. Empty input yields an empty result.
func ExtractNumbers(text string) []string {
	if text == "" {
		return nil
	}
	return numberPattern.FindAllString(text, -1)
}
