package locale

import "strings"

// render substitutes data into a dialog line. Both {key} and the older
// {{key}} style are accepted; unknown placeholders are left untouched.
func render(line string, data map[string]string) string {
	if len(data) == 0 {
		return line
	}
	pairs := make([]string, 0, len(data)*4)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(line)
}
