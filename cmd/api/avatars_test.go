package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPublicIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			"versioned delivery url",
			"https://res.cloudinary.com/demo/image/upload/v1700000000/avatars/avatar_user-1_123.jpg",
			"avatars/avatar_user-1_123",
		},
		{
			"no version segment",
			"https://res.cloudinary.com/demo/image/upload/avatars/avatar_user-1_123.png",
			"avatars/avatar_user-1_123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractPublicIDFromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := extractPublicIDFromURL("https://example.com/not/a/cloudinary/url")
	assert.Error(t, err)
}

func TestIsAllowedImage(t *testing.T) {
	assert.True(t, isAllowedImage("photo.JPG"))
	assert.True(t, isAllowedImage("avatar.png"))
	assert.False(t, isAllowedImage("document.pdf"))
	assert.False(t, isAllowedImage("noextension"))
}
