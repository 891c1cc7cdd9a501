package checksum

import "testing"

func TestSum(t *testing.T) {
	// SHA-256 of the empty input.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs share a digest")
	}
}

func TestTree(t *testing.T) {
	build := func(entries ...[2]string) string {
		tr := NewTree()
		for _, e := range entries {
			tr.Add(e[0], e[1])
		}
		return tr.Sum()
	}

	a := build([2]string{"a.md", "1"}, [2]string{"b.md", "2"})
	if a != build([2]string{"a.md", "1"}, [2]string{"b.md", "2"}) {
		t.Error("same entries should give the same digest")
	}
	if a == build([2]string{"a.md", "1"}, [2]string{"b.md", "3"}) {
		t.Error("changed checksum should change the digest")
	}
	// Separators keep path/checksum boundaries distinct.
	if build([2]string{"ab", "c"}) == build([2]string{"a", "bc"}) {
		t.Error("boundary shift should change the digest")
	}
	if NewTree().Sum() != Sum(nil) {
		t.Error("empty tree should equal Sum(nil)")
	}
}
