package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluree/db-sub010/internal/flake"
)

func sidMatch(ns int, local string) Match {
	sid := flake.SID{Namespace: ns, Local: local}
	return Match{IRI: &sid, Datatype: flake.DtID}
}

func litMatch(v any, dt flake.SID) Match {
	return Match{Value: v, Datatype: dt}
}

func TestMatchEqualComparesIRIsByIdentity(t *testing.T) {
	a := sidMatch(1, "alice")
	b := sidMatch(1, "alice")
	c := sidMatch(1, "bob")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestMatchEqualComparesLiteralsByValue(t *testing.T) {
	a := litMatch(int64(30), flake.DtInteger)
	b := litMatch(int64(30), flake.DtInteger)
	c := litMatch(int64(31), flake.DtInteger)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestCompatibleRejectsConflictingBindings(t *testing.T) {
	a := Solution{"s": sidMatch(1, "alice"), "n": litMatch("Alice", flake.DtString)}
	b := Solution{"s": sidMatch(1, "bob")}
	assert.False(t, Compatible(a, b))
}

func TestCompatibleAcceptsDisjointOrAgreeingBindings(t *testing.T) {
	a := Solution{"s": sidMatch(1, "alice")}
	b := Solution{"s": sidMatch(1, "alice"), "n": litMatch("Alice", flake.DtString)}
	assert.True(t, Compatible(a, b))
	merged := Merge(a, b)
	assert.Len(t, merged, 2)
}

func TestSharedKeyRejectsUnboundVariable(t *testing.T) {
	sol := Solution{"s": sidMatch(1, "alice")}
	_, ok := SharedKey(sol, []string{"s", "missing"})
	assert.False(t, ok)
}

func TestSharedKeyIsOrderIndependentOverVars(t *testing.T) {
	sol := Solution{"a": litMatch(int64(1), flake.DtInteger), "b": litMatch(int64(2), flake.DtInteger)}
	k1, ok1 := SharedKey(sol, []string{"a", "b"})
	k2, ok2 := SharedKey(sol, []string{"b", "a"})
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, k1, k2)
}
