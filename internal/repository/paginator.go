package repository

// Pagination describes the page of results returned by List alongside
// the total number of matching records.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// NewPagination computes pagination metadata for a listing response.
// TotalPages is ceil(total/limit); zero matching records means zero pages.
func NewPagination(total int64, page, limit int) Pagination {
	var totalPages int64
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
