package server

import "testing"

func TestBuildPaginationData(t *testing.T) {
	data := buildPaginationData(2, 10, 35)
	if data.TotalPages != 4 {
		t.Fatalf("expected 4 pages, got %d", data.TotalPages)
	}
	if !data.HasPrev || data.PrevPage != 1 {
		t.Fatalf("expected prev page 1, got %+v", data)
	}
	if !data.HasNext || data.NextPage != 3 {
		t.Fatalf("expected next page 3, got %+v", data)
	}
}

func TestBuildPaginationDataClampsPage(t *testing.T) {
	data := buildPaginationData(99, 10, 35)
	if data.Page != 4 {
		t.Fatalf("page should clamp to the last page, got %d", data.Page)
	}
	if data.HasNext {
		t.Fatal("last page has no next")
	}
}

func TestBuildPaginationDataEmpty(t *testing.T) {
	data := buildPaginationData(1, 10, 0)
	if data.TotalPages != 1 || data.Page != 1 {
		t.Fatalf("empty set should still report one page, got %+v", data)
	}
	if data.HasPrev || data.HasNext {
		t.Fatalf("empty set has no neighbors, got %+v", data)
	}
}
