package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUserID(t *testing.T) {
	assert.NoError(t, ValidateUserID("user_01-a"))
	assert.Error(t, ValidateUserID(""))
	assert.Error(t, ValidateUserID("a b"))
	assert.Error(t, ValidateUserID(strings.Repeat("x", 65)))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Jane Doe", SanitizeString("  Jane\x00 Doe\x07 "))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "scan.png", SanitizeFileName("../../etc/scan.png"))
	assert.Equal(t, "report.pdf", SanitizeFileName(`C:\Users\jane\report.pdf`))
	assert.Equal(t, "", SanitizeFileName(".."))
	assert.Equal(t, "", SanitizeFileName(""))
}

func TestIsSuggestedExtension(t *testing.T) {
	assert.True(t, IsSuggestedExtension("x.JPG"))
	assert.True(t, IsSuggestedExtension("labs.pdf"))
	assert.False(t, IsSuggestedExtension("notes.txt"))
}
