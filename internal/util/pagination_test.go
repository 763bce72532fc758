package util

import "testing"

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int64
		pageSize   uint
		want       int
	}{
		{"Empty", 0, 10, 1},
		{"Exact multiple", 20, 10, 2},
		{"With remainder", 21, 10, 3},
		{"Single item", 1, 10, 1},
		{"Zero page size falls back to default", 25, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateTotalPage(tt.totalItems, tt.pageSize); got != tt.want {
				t.Errorf("CalculateTotalPage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name         string
		page         uint
		pageSize     uint
		wantPage     uint
		wantPageSize uint
	}{
		{"Defaults applied", 0, 0, 1, 10},
		{"Within range untouched", 2, 25, 2, 25},
		{"Oversized page size clamped", 1, 1000, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, pageSize := NormalizePage(tt.page, tt.pageSize)
			if page != tt.wantPage || pageSize != tt.wantPageSize {
				t.Errorf("NormalizePage() = (%v, %v), want (%v, %v)", page, pageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}
