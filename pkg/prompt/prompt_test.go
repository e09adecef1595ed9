package prompt

import (
	"testing"

	"tableflip.dev/taskboard/pkg/category"
)

func TestSearcher(t *testing.T) {
	all := category.Default().All()
	match := searcher(all)

	hits := func(input string) []category.Name {
		var out []category.Name
		for i := range all {
			if match(input, i) {
				out = append(out, all[i].Name)
			}
		}
		return out
	}

	if got := hits("clientw"); len(got) != 1 || got[0] != category.ClientWork {
		t.Fatalf("expected CLIENT WORK, got %v", got)
	}
	if got := hits("PRIORITY"); len(got) != 2 {
		t.Fatalf("expected both priority categories, got %v", got)
	}
	if got := hits(""); len(got) != len(all) {
		t.Fatalf("empty input should match everything, got %v", got)
	}
}
