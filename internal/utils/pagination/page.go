package pagination

// Page describes one slice of an in-memory list.
type Page struct {
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
}

// Window clamps page into [1, last] for total items of perPage each and returns the
// page meta with the half-open [from, to) bounds into the list.
// An empty list still has one (empty) page.
func Window(total, perPage, page int) (Page, int, int) {
	if perPage < 1 {
		perPage = 1
	}
	last := max(1, (total+perPage-1)/perPage)
	page = min(max(page, 1), last)

	from := min((page-1)*perPage, total)
	to := min(from+perPage, total)
	return Page{Total: total, CurrentPage: page, LastPage: last, PerPage: perPage}, from, to
}
