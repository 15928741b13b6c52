package zookeeper

import (
	"sort"
	"testing"
)

func TestSequenceOrdersProtectedNodes(t *testing.T) {
	children := []string{
		"_c_b2f1-lock-0000000012",
		"_c_0a9e-lock-0000000003",
		"_c_ffff-lock-0000000010",
	}
	sort.Slice(children, func(i, j int) bool { return sequence(children[i]) < sequence(children[j]) })
	want := []string{
		"_c_0a9e-lock-0000000003",
		"_c_ffff-lock-0000000010",
		"_c_b2f1-lock-0000000012",
	}
	for i := range want {
		if children[i] != want[i] {
			t.Fatalf("order[%d]: want=%s got=%s", i, want[i], children[i])
		}
	}
}
