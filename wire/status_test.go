package wire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeTable(t *testing.T) {
	t.Parallel()

	documented := []StatusCode{7, 8, 9, 10, 11, 12, 13, 15, 17, 19, 21, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	for _, code := range documented {
		assert.Truef(t, code.Known(), "status %d", code)
		assert.NotEmptyf(t, code.Description(), "status %d", code)
		assert.NotContainsf(t, code.String(), "StatusCode(", "status %d", code)
	}

	for _, code := range []StatusCode{1, 14, 16, 18, 20, 22, 33} {
		assert.Falsef(t, code.Known(), "status %d", code)
	}
	assert.Equal(t, "StatusCode(99)", StatusCode(99).String())
	assert.Equal(t, "NoSuchElement", StatusNoSuchElement.String())
	assert.Equal(t, "UnexpectedAlertOpen", StatusUnexpectedAlertOpen.String())
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    StatusCode
		message string
		want    string
	}{
		{
			name:    "server_message_kept",
			code:    StatusNoSuchElement,
			message: "Unable to locate element",
			want:    "Unable to locate element",
		},
		{
			name: "synthesized_from_table",
			code: StatusStaleElementReference,
			want: "StaleElementReference (10): An element command failed because the " +
				"referenced element is no longer attached to the DOM.",
		},
		{
			name: "unknown_code",
			code: 99,
			want: "webdriver error (99)",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewError(tt.code, tt.message)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.code, err.Code)
			assert.False(t, err.Local)
		})
	}
}

func TestElementMissingOrInvisible(t *testing.T) {
	t.Parallel()

	assert.True(t, NewError(StatusNoSuchElement, "").IsElementMissingOrInvisible())
	assert.True(t, NewError(StatusElementNotVisible, "").IsElementMissingOrInvisible())
	assert.False(t, NewError(StatusStaleElementReference, "").IsElementMissingOrInvisible())
	assert.False(t, NewError(StatusTimeout, "").IsElementMissingOrInvisible())

	wrapped := fmt.Errorf("finding #x: %w", NewError(StatusNoSuchElement, ""))
	assert.True(t, IsElementMissingOrInvisible(wrapped))
	assert.False(t, IsElementMissingOrInvisible(errors.New("boom")))
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	_, ok := CodeOf(errors.New("plain"))
	assert.False(t, ok)

	err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", NewError(StatusInvalidSelector, "")))
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, StatusInvalidSelector, code)
	assert.True(t, HasCode(err, StatusInvalidSelector))
	assert.False(t, HasCode(err, StatusNoSuchElement))
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("timed out waiting for #done")
	assert.True(t, err.Local)
	assert.Equal(t, StatusTimeout, err.Code)
	assert.Equal(t, "timed out waiting for #done", err.Error())
	assert.ErrorIs(t, err, ErrTimedOut)

	synthesized := NewTimeoutError("")
	assert.Contains(t, synthesized.Error(), "Timeout (21)")
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &TransportError{Method: "POST", URL: "http://localhost:4444/wd/hub/session", Err: cause}
	assert.Equal(t, "POST http://localhost:4444/wd/hub/session: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	_, ok := CodeOf(err)
	assert.False(t, ok)
}
