package utils

import (
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidImageFile(t *testing.T) {
	valid := []string{"photo.jpg", "photo.JPEG", "avatar.png", "anim.gif"}
	for _, name := range valid {
		assert.True(t, IsValidImageFile(&multipart.FileHeader{Filename: name}), name)
	}

	invalid := []string{"doc.pdf", "video.mp4", "noext", "script.js"}
	for _, name := range invalid {
		assert.False(t, IsValidImageFile(&multipart.FileHeader{Filename: name}), name)
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", SanitizeInput("<b>bold</b>"))
	assert.NotContains(t, SanitizeInput("a\x00b\x1fc"), "\x00")
}

func TestSanitizeEmail(t *testing.T) {
	email, err := SanitizeEmail("  User@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)

	_, err = SanitizeEmail("not-an-email")
	assert.Error(t, err)

	_, err = SanitizeEmail("missing@tld")
	assert.Error(t, err)
}

func TestSanitizeUsername(t *testing.T) {
	username, err := SanitizeUsername("  jane.doe_99 ")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe_99", username)

	_, err = SanitizeUsername("a")
	assert.Error(t, err, "too short")

	_, err = SanitizeUsername(strings.Repeat("x", 31))
	assert.Error(t, err, "too long")

	_, err = SanitizeUsername("has space")
	assert.Error(t, err)

	_, err = SanitizeUsername("emoji😀name")
	assert.Error(t, err)
}

func TestValidateFile(t *testing.T) {
	assert.NoError(t, ValidateFile("picture.jpg", 1024))
	assert.Error(t, ValidateFile("picture.jpg", 6*1024*1024), "over the 5MB limit")
	assert.Error(t, ValidateFile("archive.zip", 1024))
}
