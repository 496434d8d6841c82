package tools

import (
	"bytes"
	"encoding/json"
	"math"
)

const notAvailable = "N/A"

// pageInfo is the paging metadata reported by a listing endpoint.
type pageInfo struct {
	PageNumber *int
	PageSize   *int
	PageCount  *int
	TotalHits  *int
}

// pagination is the pagination block of a listing response. Values are
// numbers, or "N/A" when the platform did not report them. The total is
// written under a tool-specific key.
type pagination struct {
	totalKey   string
	PageNumber any
	PageSize   any
	TotalPages any
	Total      any
}

// paginationSection builds the pagination block. A missing or zero page size
// means nothing about paging is known. Otherwise totalPages is the reported
// page count, or ceil(total/pageSize), or 1 when the total is unknown.
func paginationSection(totalKey string, p pageInfo) pagination {
	out := pagination{
		totalKey:   totalKey,
		PageNumber: notAvailable,
		PageSize:   notAvailable,
		TotalPages: notAvailable,
		Total:      notAvailable,
	}
	if p.PageSize == nil || *p.PageSize <= 0 {
		return out
	}

	out.PageSize = *p.PageSize
	if p.PageNumber != nil {
		out.PageNumber = *p.PageNumber
	}
	if p.TotalHits != nil {
		out.Total = *p.TotalHits
	}

	switch {
	case p.PageCount != nil:
		out.TotalPages = *p.PageCount
	case p.TotalHits == nil:
		out.TotalPages = 1
	default:
		out.TotalPages = int(math.Ceil(float64(*p.TotalHits) / float64(*p.PageSize)))
	}
	return out
}

func (p pagination) MarshalJSON() ([]byte, error) {
	fields := []struct {
		key   string
		value any
	}{
		{"pageNumber", p.PageNumber},
		{"pageSize", p.PageSize},
		{"totalPages", p.TotalPages},
		{p.totalKey, p.Total},
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func intPtr(n int) *int { return &n }
