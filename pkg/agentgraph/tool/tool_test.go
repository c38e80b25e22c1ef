package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherArgs struct {
	City string `json:"city" description:"city name"`
	Days int    `json:"days,omitempty"`
}

func TestFunctionToolDescriptor(t *testing.T) {
	w := NewFunctionTool("weather", "looks up a forecast",
		func(_ context.Context, args weatherArgs) (string, error) {
			return "sunny in " + args.City, nil
		})

	d := w.Descriptor()
	assert.Equal(t, "weather", d.Name)
	assert.Equal(t, "looks up a forecast", d.Description)

	require.NotNil(t, d.Parameters)
	assert.Equal(t, "object", d.Parameters.Type)
	require.Contains(t, d.Parameters.Properties, "city")
	assert.Equal(t, "string", d.Parameters.Properties["city"].Type)
	assert.Equal(t, "city name", d.Parameters.Properties["city"].Description)
	require.Contains(t, d.Parameters.Properties, "days")
	assert.Equal(t, "integer", d.Parameters.Properties["days"].Type)

	// Only non-omitempty fields are required.
	assert.Equal(t, []string{"city"}, d.Parameters.Required)
}

func TestFunctionToolCall(t *testing.T) {
	w := NewFunctionTool("weather", "forecast",
		func(_ context.Context, args weatherArgs) (string, error) {
			return "sunny in " + args.City, nil
		})

	out, err := w.Call(context.Background(), json.RawMessage(`{"city":"Oslo"}`))
	require.NoError(t, err)
	assert.Equal(t, "sunny in Oslo", out)
}

func TestFunctionToolBadArguments(t *testing.T) {
	w := NewFunctionTool("weather", "forecast",
		func(_ context.Context, args weatherArgs) (string, error) {
			return "", nil
		})

	_, err := w.Call(context.Background(), json.RawMessage(`{"city":42}`))
	require.Error(t, err)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "weather", argErr.Tool)
}

func TestFunctionToolValidation(t *testing.T) {
	w := NewFunctionTool("weather", "forecast",
		func(_ context.Context, args weatherArgs) (string, error) {
			if args.City == "" {
				return "", Validate("weather", "city is required")
			}
			return "ok", nil
		})

	_, err := w.Call(context.Background(), json.RawMessage(`{}`))
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "city is required", valErr.Reason)
}

func TestNewFunctionToolPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewFunctionTool[weatherArgs, string]("", "desc", func(context.Context, weatherArgs) (string, error) {
			return "", nil
		})
	})
	assert.Panics(t, func() {
		NewFunctionTool[weatherArgs, string]("name", "desc", nil)
	})
}

func TestRegistry(t *testing.T) {
	w := NewFunctionTool("weather", "forecast",
		func(_ context.Context, args weatherArgs) (string, error) { return "", nil })

	r := NewRegistry(w)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get("weather")
	require.NoError(t, err)
	assert.Equal(t, "weather", got.Descriptor().Name)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Panics(t, func() { r.Add(w) })

	descriptors := r.Descriptors()
	require.Len(t, descriptors, 1)
	assert.Equal(t, "weather", descriptors[0].Name)
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "plain", Succeed("c", "t", "plain").Text())
	assert.JSONEq(t, `{"x":1}`, Succeed("c", "t", map[string]int{"x": 1}).Text())
	assert.Equal(t, "error (not_found): no such tool",
		Fail("c", "t", FailureNotFound, "no such tool").Text())
}

func TestFailureIsError(t *testing.T) {
	res := Fail("c", "t", FailureExecution, "boom")
	var err error = res.Failure
	assert.True(t, errors.As(err, new(*Failure)))
	assert.Contains(t, err.Error(), "boom")
}
