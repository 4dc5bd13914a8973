package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text вырезает всю разметку, спецсимволы остаются экранированными
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

func Nickname(s string) string {
	return Text(s)
}
