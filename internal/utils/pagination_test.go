package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		page, size, def    int
		wantPage, wantSize int
	}{
		{1, 10, 50, 1, 10},
		{0, 0, 50, 1, 50},
		{-3, -1, 20, 1, 20},
		{2, 1000, 50, 2, MaxPageSize},
	}
	for _, tc := range cases {
		p, s := PageParams(tc.page, tc.size, tc.def)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("PageParams(%d,%d,%d) = (%d,%d); want (%d,%d)", tc.page, tc.size, tc.def, p, s, tc.wantPage, tc.wantSize)
		}
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	cases := []struct {
		page, size int
		want       []int
	}{
		{1, 2, []int{1, 2}},
		{2, 2, []int{3, 4}},
		{3, 2, []int{5}},
		{4, 2, []int{}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{0, 2, []int{}},
	}
	for _, tc := range cases {
		got, total := Paginate(items, tc.page, tc.size)
		if total != 5 {
			t.Fatalf("total = %d; want 5", total)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("Paginate(page=%d,size=%d) = %v; want %v", tc.page, tc.size, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("Paginate(page=%d,size=%d) = %v; want %v", tc.page, tc.size, got, tc.want)
			}
		}
	}
}
