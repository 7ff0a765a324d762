package infra

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var initPC = caller()

func caller() Frame {
	var pcs [3]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	frame, _ := frames.Next()
	return Frame(frame.PC)
}

func TestFrameFormat(t *testing.T) {
	testcases := []struct {
		Frame
		format string
		want   string
	}{
		{initPC, "%s", "err_stack_test.go"},
		{initPC, "%n", "init"},
		{Frame(0), "%s", "unknownFile"},
		{Frame(0), "%n", "unknownFunc"},
		{Frame(0), "%d", "0"},
	}
	for _, tc := range testcases {
		require.Equal(t, tc.want, fmt.Sprintf(tc.format, tc.Frame))
	}
	require.True(t, strings.HasPrefix(fmt.Sprintf("%v", initPC), "err_stack_test.go:"))

	text, err := Frame(0).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "unknownFrame", string(text))
}

var errSentinel = errors.New("[infra] sentinel")

func TestErrorStack_Wrap(t *testing.T) {
	es := WrapErrorStackWithMessage(errSentinel, "load key 7")
	require.ErrorIs(t, es, errSentinel)
	require.Equal(t, "load key 7: [infra] sentinel", es.Error())
	require.NotEmpty(t, es.Frames())
	require.Equal(t, "err_stack_test.go", fmt.Sprintf("%s", es.Frames()[0]))

	verbose := fmt.Sprintf("%+v", es)
	require.True(t, strings.HasPrefix(verbose, "load key 7: [infra] sentinel\n"))
	require.Contains(t, verbose, "TestErrorStack_Wrap")

	again := WrapErrorStack(es)
	require.ErrorIs(t, again, errSentinel)
	require.Equal(t, es.Frames(), again.Frames())
	require.Equal(t, es.Error(), again.Error())
}

func TestErrorStack_New(t *testing.T) {
	es := NewErrorStack("[infra] broken")
	require.Nil(t, es.Unwrap())
	require.Equal(t, "[infra] broken", es.Error())
	require.Equal(t, `"[infra] broken"`, fmt.Sprintf("%q", es))
	require.Equal(t, "err_stack_test.go", fmt.Sprintf("%s", es.Frames()[0]))
}

func TestErrorStack_MarshalLogObject(t *testing.T) {
	es := WrapErrorStackWithMessage(errSentinel, "marshal")
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, es.MarshalLogObject(enc))
	require.Equal(t, "marshal: [infra] sentinel", enc.Fields["error"])
	stack, ok := enc.Fields["errorStack"].([]interface{})
	require.True(t, ok)
	require.Len(t, stack, len(es.Frames()))
	require.Contains(t, stack[0], "TestErrorStack_MarshalLogObject")
}
