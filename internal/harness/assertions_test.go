package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Step: 0, Operator: "add", Operation: "add.i32", Value: "12"},
		{Seq: 2, Step: 1, Operator: "call", Operation: "call.@malloc", Value: "0x10000"},
		{Seq: 3, Step: 2, Operator: "add", Operation: "add.i32", Value: "2"},
		{Seq: 4, Step: 3, Operator: "add", Error: "TYPE_SYSTEM_VIOLATION"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceContains(trace, Assertion{Operation: "call.@malloc"}))

	err := assertTraceContains(trace, Assertion{Operation: "call.@free"})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "[3] add  -> TYPE_SYSTEM_VIOLATION")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceOrder(trace, Assertion{Operations: []string{"add.i32", "call.@malloc"}}))

	err := assertTraceOrder(trace, Assertion{Operations: []string{"call.@malloc", "add.i32"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call.@malloc (pos 2) should be before add.i32 (pos 1)")

	err = assertTraceOrder(trace, Assertion{Operations: []string{"add.i32", "sub.i32"}})
	assert.ErrorContains(t, err, "missing operation: sub.i32")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceCount(trace, Assertion{Operation: "add.i32", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Operation: "sub.i32", Count: 0}))
	assert.ErrorContains(t, assertTraceCount(trace, Assertion{Operation: "add.i32", Count: 1}), "2 occurrences")
}

func TestAssertAlias(t *testing.T) {
	aliases := map[string]string{"@_ZN3foo3barE": "@malloc"}
	assert.NoError(t, assertAlias(aliases, Assertion{Mangled: "@_ZN3foo3barE", Canonical: "@malloc"}))
	assert.ErrorContains(t, assertAlias(aliases, Assertion{Mangled: "@_ZN3foo3barE", Canonical: "@free"}), "aliased to @malloc")
	assert.ErrorContains(t, assertAlias(aliases, Assertion{Mangled: "@x", Canonical: "@y"}), "no alias recorded")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	msgs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Operation: "add.i32", Count: 2},
		{Type: AssertTraceContains, Operation: "call.@free"},
		{Type: "bogus"},
	})
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "assertions[1]")
	assert.Contains(t, msgs[1], `assertions[2]: unknown assertion type "bogus"`)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
