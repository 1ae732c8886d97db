package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONResponse_Plain(t *testing.T) {
	result, err := DecodeJSONResponse(`{"classification": "condo", "land_value": 60000}`)
	require.NoError(t, err)
	assert.Equal(t, "condo", result["classification"])
	assert.Equal(t, 60000.0, result["land_value"])
}

func TestDecodeJSONResponse_MarkdownFence(t *testing.T) {
	raw := "```json\n{\"current_condition\": \"good\"}\n```"
	result, err := DecodeJSONResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "good", result["current_condition"])
}

func TestDecodeJSONResponse_BareFence(t *testing.T) {
	raw := "```\n{\"summary\": \"ok\"}\n```"
	result, err := DecodeJSONResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "ok", result["summary"])
}

func TestDecodeJSONResponse_Invalid(t *testing.T) {
	_, err := DecodeJSONResponse("the property looks fine to me")
	assert.Error(t, err)
}

func TestDetectImageMIMEType(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	assert.Equal(t, "image/png", DetectImageMIMEType(png))

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}
	assert.Equal(t, "image/jpeg", DetectImageMIMEType(jpeg))

	webp := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50}
	assert.Equal(t, "image/webp", DetectImageMIMEType(webp))

	assert.Equal(t, "image/jpeg", DetectImageMIMEType([]byte{0x00}), "short data falls back to jpeg")
}
