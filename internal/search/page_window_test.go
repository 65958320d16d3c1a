package search

import "testing"

import "github.com/stretchr/testify/assert"

func TestComputePageWindow(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		totalPages int
		want       []int
	}{
		{"zero total pages", 1, 0, nil},
		{"fewer pages than window", 2, 3, []int{1, 2, 3}},
		{"centered in the middle", 10, 20, []int{8, 9, 10, 11, 12}},
		{"clipped at the start", 1, 20, []int{1, 2, 3, 4, 5}},
		{"clipped at the end", 20, 20, []int{16, 17, 18, 19, 20}},
		{"single page", 1, 1, []int{1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, computePageWindow(tc.page, tc.totalPages))
		})
	}
}
