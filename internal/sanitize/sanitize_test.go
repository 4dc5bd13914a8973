package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNickname(t *testing.T) {
	cases := map[string]string{
		"satoshi":                              "satoshi",
		"  padded  ":                           "padded",
		"<b>bold</b>":                          "bold",
		"<script>alert(1)</script>vitalik":     "vitalik",
		`<img src=x onerror="alert(1)">hodler`: "hodler",
		"tom & jerry":                          "tom &amp; jerry",
	}
	for in, want := range cases {
		assert.Equal(t, want, Nickname(in), in)
	}
}
