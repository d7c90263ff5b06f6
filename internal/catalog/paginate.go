package catalog

// Window is one slider page over a filtered product list.
type Window struct {
	Index   int
	Pages   int
	Start   int
	End     int
	HasPrev bool
	HasNext bool
}

// Paginate clamps index to the last page and returns the slice bounds of that page.
// perView below 1 is treated as 1.
func Paginate(total, perView, index int) Window {
	if perView < 1 {
		perView = 1
	}
	if total <= 0 {
		return Window{}
	}
	pages := (total + perView - 1) / perView
	index = max(0, min(index, pages-1))
	start := index * perView
	return Window{
		Index:   index,
		Pages:   pages,
		Start:   start,
		End:     min(start+perView, total),
		HasPrev: index > 0,
		HasNext: index < pages-1,
	}
}
