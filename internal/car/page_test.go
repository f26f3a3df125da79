package car

import "testing"

func TestPageNormalized(t *testing.T) {
	p := Page{Number: -3, Size: 0}.Normalized()
	if p.Number != 0 || p.Size != defaultPageSize {
		t.Fatalf("got %+v", p)
	}

	p = Page{Number: 2, Size: 100000}.Normalized()
	if p.Size != maxPageSize {
		t.Fatalf("size not clamped: %+v", p)
	}
}

func TestPageOrderClause(t *testing.T) {
	cases := []struct {
		sort string
		want string
	}{
		{"", "id asc"},
		{"make", "make asc"},
		{"make,desc", "make desc"},
		{"manufactureYear,DESC", "manufacture_year desc"},
		{"version", "row_version asc"},
		{"row_version; DROP TABLE cars", "id asc"},
		{"unknown,desc", "id asc"},
	}
	for _, tc := range cases {
		if got := (Page{Sort: tc.sort}).orderClause(); got != tc.want {
			t.Errorf("orderClause(%q) = %q, want %q", tc.sort, got, tc.want)
		}
	}
}

func TestPageResultTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tc := range cases {
		pr := PageResult{TotalElements: tc.total, Size: tc.size}
		if got := pr.TotalPages(); got != tc.want {
			t.Errorf("TotalPages(total=%d size=%d) = %d, want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
