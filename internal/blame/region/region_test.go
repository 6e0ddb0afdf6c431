package region

import "testing"

func chain(r *Region) []Region {
	var out []Region
	for ; r != nil; r = r.Next {
		out = append(out, Region{ResultStart: r.ResultStart, SourceStart: r.SourceStart, Length: r.Length})
	}
	return out
}

func TestSplitFirstSlideAndShrinkPartition(t *testing.T) {
	r := New(10, 100, 8)
	d := 3
	head := r.SplitFirst(r.SourceStart, d)
	r.SlideAndShrink(d)

	if head.ResultStart != 10 || head.SourceStart != 100 || head.Length != 3 {
		t.Fatalf("unexpected head: %+v", head)
	}
	if r.ResultStart != 13 || r.SourceStart != 103 || r.Length != 5 {
		t.Fatalf("unexpected tail: %+v", r)
	}

	// union recovers the original region in both coordinate spaces
	if head.ResultStart+head.Length != r.ResultStart {
		t.Fatal("result-space gap between the two halves")
	}
	if head.SourceStart+head.Length != r.SourceStart {
		t.Fatal("source-space gap between the two halves")
	}
}

func TestAppendCoalesces(t *testing.T) {
	l := &List{}
	l.Append(New(0, 0, 3))
	l.Append(New(3, 3, 2)) // abuts in both spaces -> coalesced

	if l.Head.Next != nil {
		t.Fatalf("expected single coalesced region, got chain %+v", chain(l.Head))
	}
	if l.Head.Length != 5 {
		t.Fatalf("expected coalesced length 5, got %d", l.Head.Length)
	}
}

func TestAppendDoesNotCoalesceOnSourceGap(t *testing.T) {
	l := &List{}
	l.Append(New(0, 0, 3))
	l.Append(New(3, 10, 2)) // abuts in result space only

	if l.Head.Next == nil {
		t.Fatal("expected two distinct regions, source offsets differ")
	}
}

func TestMergeCommutative(t *testing.T) {
	build := func() *List {
		l := &List{}
		l.Append(New(0, 0, 2))
		l.Append(New(5, 5, 1))
		return l
	}
	buildOther := func() *List {
		l := &List{}
		l.Append(New(2, 2, 3))
		return l
	}

	ab := build()
	ab.Merge(buildOther())

	ba := buildOther()
	ba.Merge(build())

	gotAB := chain(ab.Head)
	gotBA := chain(ba.Head)
	if len(gotAB) != len(gotBA) {
		t.Fatalf("merge not commutative: %v vs %v", gotAB, gotBA)
	}
	for i := range gotAB {
		if gotAB[i] != gotBA[i] {
			t.Fatalf("merge not commutative at %d: %v vs %v", i, gotAB, gotBA)
		}
	}
	if !ab.Sorted() {
		t.Fatal("merged list not sorted")
	}
}

func TestMergeLeavesOtherEmpty(t *testing.T) {
	a := &List{}
	a.Append(New(0, 0, 1))
	b := &List{}
	b.Append(New(5, 5, 1))

	a.Merge(b)
	if !b.Empty() {
		t.Fatal("expected other list to be cleared after merge")
	}
}

func TestSumNonIncreasingAcrossSplit(t *testing.T) {
	l := &List{}
	l.Append(New(0, 0, 10))
	before := l.Sum()

	r := l.Head
	head := r.SplitFirst(r.SourceStart, 4)
	r.SlideAndShrink(4)

	after := head.Length + r.Length
	if after > before {
		t.Fatalf("region total increased: %d -> %d", before, after)
	}
	if after != before {
		t.Fatalf("split should preserve total length: %d != %d", before, after)
	}
}
