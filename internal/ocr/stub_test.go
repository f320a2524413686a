package ocr_test

import (
	"context"
	"strings"
)

type call struct {
	name string
	args []string
}

// stubRunner records invocations and answers from a canned function.
type stubRunner struct {
	calls []call
	fn    func(name string, args []string) ([]byte, []byte, error)
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name: name, args: args})
	if s.fn == nil {
		return nil, nil, nil
	}
	return s.fn(name, args)
}

func (c call) joined() string { return strings.Join(c.args, " ") }
