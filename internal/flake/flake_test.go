package flake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespacesEnsureIsAppendOnly(t *testing.T) {
	ns := NewNamespaces()
	c1 := ns.Ensure("http://schema.org/")
	c2 := ns.Ensure("http://example.org/")
	c1Again := ns.Ensure("http://schema.org/")

	assert.Equal(t, c1, c1Again)
	assert.NotEqual(t, c1, c2)

	iri, ok := ns.IRI(c1)
	require.True(t, ok)
	assert.Equal(t, "http://schema.org/", iri)
}

func TestNamespacesLoadPreservesMonotonicAllocation(t *testing.T) {
	ns := NewNamespaces()
	a := ns.Ensure("a")
	b := ns.Ensure("b")
	snap := ns.Snapshot()

	reloaded := Load(snap)
	c := reloaded.Ensure("c")

	assert.Greater(t, c, a)
	assert.Greater(t, c, b)
}

func TestSIDCompareOrdersByNamespaceThenLocal(t *testing.T) {
	a := SID{Namespace: 1, Local: "alice"}
	b := SID{Namespace: 1, Local: "bob"}
	c := SID{Namespace: 2, Local: "aaaa"}

	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Negative(t, b.Compare(c))
	assert.Zero(t, a.Compare(a))
}

func TestComparatorSPOTOrdersBySubjectThenPredicate(t *testing.T) {
	cmp := Comparator(SPOT)
	s1 := SID{1, "alice"}
	s2 := SID{1, "bob"}
	p := SID{2, "name"}

	f1 := Create(s1, p, "Alice", DtString, 1, true, nil)
	f2 := Create(s2, p, "Bob", DtString, 1, true, nil)

	assert.Negative(t, cmp(f1, f2))
	assert.Positive(t, cmp(f2, f1))
}

func TestComparatorTSPOOrdersByTFirst(t *testing.T) {
	cmp := Comparator(TSPO)
	s := SID{1, "alice"}
	p := SID{2, "name"}

	older := Create(s, p, "Alice", DtString, 1, true, nil)
	newer := Create(s, p, "Alicia", DtString, 2, true, nil)

	assert.Negative(t, cmp(older, newer))
}

func TestComparatorOPSTComparesReferenceObjects(t *testing.T) {
	cmp := Comparator(OPST)
	p := SID{2, "knows"}
	s1 := SID{1, "alice"}
	s2 := SID{1, "bob"}
	o1 := SID{1, "carol"}
	o2 := SID{1, "dave"}

	f1 := Create(s1, p, o1, DtID, 1, true, nil)
	f2 := Create(s2, p, o2, DtID, 1, true, nil)

	assert.Negative(t, cmp(f1, f2))
}

func TestSameStatementIgnoresTAndOp(t *testing.T) {
	s := SID{1, "alice"}
	p := SID{2, "age"}
	f1 := Create(s, p, int64(30), DtInteger, 1, true, nil)
	f2 := Create(s, p, int64(30), DtInteger, 5, false, nil)

	assert.True(t, SameStatement(f1, f2))

	f3 := Create(s, p, int64(31), DtInteger, 6, true, nil)
	assert.False(t, SameStatement(f1, f3))
}

func TestCompareValuesNumericOrdering(t *testing.T) {
	assert.Negative(t, CompareValues(int64(1), DtInteger, int64(2), DtInteger))
	assert.Positive(t, CompareValues(3.5, DtDouble, 1.2, DtDouble))
}

func TestCompareValuesMixedDatatypesCompareByDtFirst(t *testing.T) {
	c := CompareValues("x", DtString, int64(1), DtInteger)
	assert.NotZero(t, c)
}
