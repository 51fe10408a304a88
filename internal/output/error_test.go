package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopark/keyward/internal/output"
	kwerr "github.com/memopark/keyward/pkg/errors"
)

// TestFormatError_NilError tests that nil errors produce no output.
func TestFormatError_NilError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format output.Format
	}{
		{"JSON format", output.FormatJSON},
		{"Text format", output.FormatText},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			err := output.FormatError(&buf, nil, tc.format)
			require.NoError(t, err)
			assert.Empty(t, buf.String())
		})
	}
}

func TestFormatError_GenericError_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	//nolint:err113 // Test error, intentionally not wrapped
	err := output.FormatError(&buf, errors.New("something went wrong"), output.FormatJSON)
	require.NoError(t, err)

	var result output.ErrorOutput
	jsonErr := json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, jsonErr)

	assert.Equal(t, "GENERAL_ERROR", result.Error.Code)
	assert.Equal(t, "something went wrong", result.Error.Message)
	assert.Equal(t, kwerr.ExitGeneral, result.Error.ExitCode)
	assert.Empty(t, result.Error.Details)
	assert.Empty(t, result.Error.Suggestion)
}

func TestFormatError_GenericError_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	//nolint:err113 // Test error, intentionally not wrapped
	err := output.FormatError(&buf, errors.New("something went wrong"), output.FormatText)
	require.NoError(t, err)

	result := buf.String()
	assert.Contains(t, result, "Error: something went wrong")
	assert.NotContains(t, result, "Details:")
	assert.NotContains(t, result, "Suggestion:")
}

func TestFormatError_StructuredError_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	structured := kwerr.WithSuggestion(
		kwerr.WithDetails(kwerr.ErrInvalidPassword, map[string]string{"attempt": "2"}),
		"Check for caps lock and retype the password",
	)

	err := output.FormatError(&buf, structured, output.FormatJSON)
	require.NoError(t, err)

	var result output.ErrorOutput
	jsonErr := json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, jsonErr)

	assert.Equal(t, "INVALID_PASSWORD", result.Error.Code)
	assert.Equal(t, "2", result.Error.Details["attempt"])
	assert.Equal(t, "Check for caps lock and retype the password", result.Error.Suggestion)
	assert.Equal(t, kwerr.ExitAuth, result.Error.ExitCode)
}

func TestFormatError_StructuredError_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	structured := kwerr.WithSuggestion(
		kwerr.WithDetails(kwerr.ErrSessionExpired, map[string]string{"address": "5F3s..."}),
		"Run 'keyward unlock' to start a new session",
	)

	err := output.FormatError(&buf, structured, output.FormatText)
	require.NoError(t, err)

	result := buf.String()
	assert.Contains(t, result, "Error:")
	assert.Contains(t, result, "Details:")
	assert.Contains(t, result, "address: 5F3s...")
	assert.Contains(t, result, "Suggestion: Run 'keyward unlock' to start a new session")
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, output.FormatSuccess(&buf, "session refreshed", output.FormatJSON))

		var result map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
		assert.Equal(t, "success", result["status"])
		assert.Equal(t, "session refreshed", result["message"])
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, output.FormatSuccess(&buf, "session refreshed", output.FormatText))
		assert.Equal(t, "session refreshed\n", buf.String())
	})
}
