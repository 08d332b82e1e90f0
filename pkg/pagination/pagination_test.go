package pagination

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		page, limit int
		wantPage    int
		wantLimit   int
		wantOffset  int
	}{
		{1, 20, 1, 20, 0},
		{0, 0, DefaultPage, DefaultLimit, 0},
		{-5, -1, DefaultPage, DefaultLimit, 0},
		{3, 10, 3, 10, 20},
		{2, 500, 2, MaxLimit, MaxLimit},
	}
	for _, tc := range cases {
		got := Clamp(tc.page, tc.limit)
		if got.Page != tc.wantPage || got.Limit != tc.wantLimit || got.Offset != tc.wantOffset {
			t.Fatalf("Clamp(%d, %d) = %+v, want page=%d limit=%d offset=%d",
				tc.page, tc.limit, got, tc.wantPage, tc.wantLimit, tc.wantOffset)
		}
	}
}
