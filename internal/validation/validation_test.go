package validation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPasswordStrong(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		want PasswordStrength
	}{
		{"all rules met", "Abc12345", PasswordStrength{LengthOK: true, HasUpper: true, HasLower: true, HasDigit: true}},
		{"short lowercase", "abc", PasswordStrength{HasLower: true}},
		{"empty", "", PasswordStrength{}},
		{"no digit", "Abcdefgh", PasswordStrength{LengthOK: true, HasUpper: true, HasLower: true}},
		{"no upper", "abcd1234", PasswordStrength{LengthOK: true, HasLower: true, HasDigit: true}},
		{"non-ascii letters do not count", "ÄÖÜäöü12", PasswordStrength{LengthOK: true, HasDigit: true}},
		{"exactly seven", "Abc1234", PasswordStrength{HasUpper: true, HasLower: true, HasDigit: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsPasswordStrong(tt.pw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPasswordStrong_WeakFlags(t *testing.T) {
	got := IsPasswordStrong("abc")
	assert.False(t, got.LengthOK)
	assert.False(t, got.HasUpper)
	assert.False(t, got.HasDigit)
	assert.False(t, got.Acceptable())
	assert.Equal(t, []string{"at least 8 characters", "contains uppercase letter", "contains number"}, got.Unmet())
}

func TestPasswordStrength_Acceptable(t *testing.T) {
	assert.True(t, IsPasswordStrong("Abc12345").Acceptable())
	assert.Empty(t, IsPasswordStrong("Abc12345").Unmet())
}

func TestPasswordsMatch(t *testing.T) {
	assert.True(t, PasswordsMatch("secret1", "secret1"))
	assert.False(t, PasswordsMatch("secret1", "secret2"))
	assert.False(t, PasswordsMatch("", ""))
	assert.False(t, PasswordsMatch("secret1", ""))
}

func TestClampMetaDescription_Truncates(t *testing.T) {
	got := ClampMetaDescription(strings.Repeat("a", 200))
	assert.Len(t, got, 160)
}

func TestClampMetaDescription_ShortUnchanged(t *testing.T) {
	assert.Equal(t, "short", ClampMetaDescription("short"))
	assert.Equal(t, "", ClampMetaDescription(""))
	exact := strings.Repeat("b", 160)
	assert.Equal(t, exact, ClampMetaDescription(exact))
}

func TestClampMetaDescription_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		strings.Repeat("x", 159),
		strings.Repeat("y", 161),
		strings.Repeat("é", 200),
		strings.Repeat("a", 159) + "😀" + "tail",
		strings.Repeat("日本", 120),
	}
	for _, in := range inputs {
		once := ClampMetaDescription(in)
		require.Equal(t, once, ClampMetaDescription(once))
		require.LessOrEqual(t, MetaDescriptionLength(once), MaxMetaDescription)
	}
}

func TestClampMetaDescription_CountsCodeUnits(t *testing.T) {
	// Two-byte runes are one code unit each.
	got := ClampMetaDescription(strings.Repeat("é", 200))
	assert.Equal(t, 160, MetaDescriptionLength(got))
	assert.Equal(t, 160, len([]rune(got)))

	// An emoji is a surrogate pair; it must not be split at the boundary.
	in := strings.Repeat("a", 159) + "😀"
	got = ClampMetaDescription(in)
	assert.Equal(t, strings.Repeat("a", 159), got)
}

func TestClampMetaDescription_ReplacesInvalidUTF8(t *testing.T) {
	short := ClampMetaDescription("ok\xffok")
	assert.True(t, utf8.ValidString(short))
	assert.Equal(t, "ok\uFFFDok", short)

	long := ClampMetaDescription(strings.Repeat("a\xc3", 100))
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, MaxMetaDescription, MetaDescriptionLength(long))
	assert.Equal(t, long, ClampMetaDescription(long))
}
