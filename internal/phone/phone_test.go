package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_DefaultDDI(t *testing.T) {
	assert.Equal(t, "5511912345678", Normalize("(11) 91234-5678", "55", true, "", 12))
}

func TestNormalize_ExistingDDI(t *testing.T) {
	assert.Equal(t, "5511912345678", Normalize("+55 11 91234-5678", "55", true, "", 12))
}

func TestNormalize_OverrideDDI(t *testing.T) {
	assert.Equal(t, "111912345678", Normalize("11912345678", "55", true, "1", 0))
	assert.Equal(t, "111912345678", Normalize("11912345678", "55", true, "+1", 12))
}

func TestNormalize_OverrideAlreadyPresent(t *testing.T) {
	// Starts with the override and is long enough: kept unchanged.
	assert.Equal(t, "5511912345678", Normalize("5511912345678", "", false, "55", 12))
	// Starts with the override but too short: prepended.
	assert.Equal(t, "555512345", Normalize("5512345", "", false, "55", 12))
	// No min length configured: always prepended.
	assert.Equal(t, "555511912345678", Normalize("5511912345678", "", false, "55", 0))
}

func TestNormalize_NoAssume(t *testing.T) {
	assert.Equal(t, "11912345678", Normalize("11 91234-5678", "55", false, "", 12))
}

func TestNormalize_EmptyDefault(t *testing.T) {
	assert.Equal(t, "11912345678", Normalize("11912345678", "", true, "", 12))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize("", "55", true, "", 12))
	assert.Equal(t, "", Normalize("sem telefone", "55", true, "1", 12))
	assert.Equal(t, "", Normalize("() -", "55", true, "", 12))
}

func TestNormalize_BlankOverrideFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "5511912345678", Normalize("11912345678", "55", true, " - ", 12))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "5511", Digits("+55 (11)"))
	assert.Equal(t, "", Digits("abc"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "+5511912345678", Format("5511912345678", true))
	assert.Equal(t, "5511912345678", Format("5511912345678", false))
	assert.Equal(t, "", Format("", true))
}

func TestSplitValues(t *testing.T) {
	assert.Equal(t, []string{"+55 11 1111-1111", "2222"}, SplitValues(" +55 11 1111-1111 ::: 2222 ", ":::"))
	assert.Equal(t, []string{"123"}, SplitValues("123", ":::"))
	assert.Nil(t, SplitValues("  ", ":::"))
	assert.Equal(t, []string{"1"}, SplitValues("1 :::  ::: ", ":::"))
}
