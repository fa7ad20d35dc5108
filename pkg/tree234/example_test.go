package tree234

import (
	"fmt"
	"strings"
)

func ExampleTree() {
	t := New(strings.Compare)
	for _, s := range []string{"pearl", "loopy", "unruly", "rect", "tracks"} {
		t.Add(s)
	}

	t.ForEach(func(s string) bool {
		fmt.Println(s)
		return true
	})
	first, _ := t.Index(0)
	fmt.Println("first:", first)
	// Output:
	// loopy
	// pearl
	// rect
	// tracks
	// unruly
	// first: loopy
}

func ExampleTree_FindRel() {
	t := New(func(a, b int) int { return a - b })
	for _, n := range []int{10, 20, 30, 40} {
		t.Add(n)
	}

	below, _, _ := t.FindRel(25, Lt)
	above, _, _ := t.FindRel(25, Gt)
	fmt.Println(below, above)
	// Output:
	// 20 30
}
