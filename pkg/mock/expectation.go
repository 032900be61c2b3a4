package mock

import (
	"testing"

	"github.com/stretchr/testify/mock"
)

// Expectation represents an expectation of a method being called and its return values.
type Expectation struct {
	Method     string
	Args       []interface{}
	ReturnArgs []interface{}
}

type mocker interface {
	On(methodName string, arguments ...interface{}) *mock.Call
}

// ApplyExpectations applies the specified expectations on a given mock.
func ApplyExpectations(t *testing.T, m interface{}, expectations ...*Expectation) {
	t.Helper()
	if len(expectations) == 0 || expectations[0] == nil {
		return
	}
	switch v := m.(type) {
	case *Enqueuer, *Store, *Wrapper, *Controller:
		for _, e := range expectations {
			v.(mocker).On(e.Method, e.Args...).Return(e.ReturnArgs...)
		}
	default:
		t.Fatalf("Unrecognized mock type: %T!", v)
	}
}
