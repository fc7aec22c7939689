package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeQuery(t *testing.T) {
	for _, test := range []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"it's", `it\'s`},
		{`back\slash`, `back\\slash`},
		{`both\'s`, `both\\\'s`},
		{"", ""},
	} {
		assert.Equal(t, test.want, escapeQuery(test.in), test.in)
	}
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t,
		"trashed=false and 'dir123' in parents and name='report.txt' and mimeType!='application/vnd.google-apps.folder'",
		searchQuery("dir123", "report.txt", false, true))

	assert.Equal(t,
		"trashed=false and name='backups' and mimeType='application/vnd.google-apps.folder'",
		searchQuery("", "backups", true, false))

	// A quote in the name must not break out of the string literal
	assert.Equal(t,
		`trashed=false and 'dir123' in parents and name='bob\'s files' and mimeType='application/vnd.google-apps.folder'`,
		searchQuery("dir123", "bob's files", true, false))
}
