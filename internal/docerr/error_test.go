package docerr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapReturnsNilForNilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindIO, "msg"))
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, KindIO, "writing output")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestErrorStringIncludesKindAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, KindInference, "model failed")
	assert.Contains(t, err.Error(), "inference")
	assert.Contains(t, err.Error(), "model failed")
	assert.Contains(t, err.Error(), "boom")
}

func TestKindOfRecoversKindFromWrappedError(t *testing.T) {
	err := New(KindConfig, "bad mode")
	var wrapped error = err
	assert.Equal(t, KindConfig, KindOf(wrapped))
}

func TestKindOfDefaultsToInternalForPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindParse:     http.StatusBadRequest,
		KindFormat:    http.StatusBadRequest,
		KindConfig:    http.StatusBadRequest,
		KindIO:        http.StatusBadGateway,
		KindInference: http.StatusUnprocessableEntity,
		KindCancelled: 499,
		KindInternal:  http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), "kind %s", kind)
	}
}

func TestWithDetailChaining(t *testing.T) {
	err := New(KindInternal, "oops").WithDetail("task_id", "abc").WithDetail("stage", 2)
	assert.Equal(t, "abc", err.Details["task_id"])
	assert.Equal(t, 2, err.Details["stage"])
}

func TestMarshalJSONIncludesRenderedError(t *testing.T) {
	err := New(KindFormat, "bad schema")
	b, marshalErr := err.MarshalJSON()
	require.NoError(t, marshalErr)
	assert.Contains(t, string(b), `"error":`)
	assert.Contains(t, string(b), `"kind":"format"`)
}
