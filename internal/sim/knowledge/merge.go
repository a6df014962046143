package knowledge

import "fmt"

type MergeResult struct {
	// Adopted counts cells dst had not explored and took from src.
	Adopted int `json:"adopted"`
	// Conflicts counts cells both had explored where src was strictly newer.
	Conflicts int `json:"conflicts"`
}

// Merge folds src into dst with last-writer-wins per cell. Ties and
// dst-newer cells keep dst's record. src is not modified.
func Merge(dst, src *Grid) (MergeResult, error) {
	var res MergeResult
	if dst.size != src.size {
		return res, fmt.Errorf("knowledge: merge size mismatch %d vs %d", dst.size, src.size)
	}
	for i := range src.cells {
		s := src.cells[i]
		if !s.Explored {
			continue
		}
		d := &dst.cells[i]
		switch {
		case !d.Explored:
			*d = s
			res.Adopted++
		case s.Timestamp > d.Timestamp:
			*d = s
			res.Conflicts++
		}
	}
	return res, nil
}
