package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMergeSumsElementWise(t *testing.T) {
	a := Snapshot{"qwer": {Left: [5]int{1, 0, 0, 0, 0}, TwoHanded: 2}}
	b := Snapshot{
		"qwer":   {Left: [5]int{2, 0, 0, 0, 0}, RightPress: [5]int{0, 1, 0, 0, 0}},
		"diktor": {Right: [5]int{0, 0, 0, 0, 7}},
	}
	got := Merge(a, b)
	if got["qwer"].Left != [5]int{3, 0, 0, 0, 0} {
		t.Fatalf("unexpected left: %v", got["qwer"].Left)
	}
	if got["qwer"].TwoHanded != 2 || got["qwer"].RightPress[1] != 1 {
		t.Fatalf("unexpected qwer totals: %+v", got["qwer"])
	}
	if got["diktor"].Load() != 7 {
		t.Fatalf("expected layout present in one part to survive, got %+v", got["diktor"])
	}
	if a["qwer"].Left[0] != 1 {
		t.Fatalf("merge modified its input")
	}
}

func TestMergeOrderIndependent(t *testing.T) {
	a := Snapshot{"ant": {Left: [5]int{1, 2, 3, 4, 5}, TwoHanded: 1}}
	b := Snapshot{"ant": {Right: [5]int{5, 4, 3, 2, 1}, LeftPress: [5]int{1, 1, 1, 1, 1}}}
	c := Snapshot{"ant": {TwoHanded: 9}}
	x := Merge(Merge(a, b), c)
	y := Merge(c, Merge(b, a))
	if x["ant"] != y["ant"] {
		t.Fatalf("merge is order dependent: %+v vs %+v", x["ant"], y["ant"])
	}
}

func TestSnapshotFieldNames(t *testing.T) {
	data, err := json.Marshal(Snapshot{"qwer": {}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"left"`, `"right"`, `"two_handed"`, `"left_press"`, `"right_press"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("missing %s in %s", key, data)
		}
	}
}
