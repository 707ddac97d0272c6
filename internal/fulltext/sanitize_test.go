package fulltext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLowercasesAndTrims(t *testing.T) {
	assert.Equal(t, "hello world", Sanitize("  Hello   World  "))
}

func TestSanitizeCollapsesInternalWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Sanitize("a\t\tb\n\nc"))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	once := Sanitize("  Some QUERY text  ")
	twice := Sanitize(once)
	assert.Equal(t, once, twice)
}

func TestSanitizeEmptyInput(t *testing.T) {
	assert.Equal(t, "", Sanitize("   "))
}

func TestValidRejectsEmpty(t *testing.T) {
	assert.False(t, Valid(""))
}

func TestValidRejectsOverlong(t *testing.T) {
	assert.False(t, Valid(strings.Repeat("a", 513)))
}

func TestValidAcceptsNormalQuery(t *testing.T) {
	assert.True(t, Valid(Sanitize("graph database")))
}
