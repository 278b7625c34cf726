package dashboard

import "github.com/five82/kavita/internal/results"

// Band buckets an average percentage for colouring.
type Band int

const (
	BandNone Band = iota
	BandLow
	BandMid
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandMid:
		return "mid"
	case BandLow:
		return "low"
	default:
		return "none"
	}
}

// BandFor maps a percentage to its band: 80 and above is high, 50 and
// above is mid, anything else is low.
func BandFor(percent float64) Band {
	switch {
	case percent >= 80:
		return BandHigh
	case percent >= 50:
		return BandMid
	default:
		return BandLow
	}
}

// Cell is one class × chapter average.
type Cell struct {
	Average float64
	Count   int
	Band    Band
}

// Empty reports whether no record fell in the cell.
func (c Cell) Empty() bool { return c.Count == 0 }

// Grid is a class × chapter heatmap.
type Grid struct {
	Classes      []string
	ClassNames   []string
	Chapters     []string
	ChapterNames []string
	Cells        [][]Cell
}

// Heatmap averages every class and chapter pair. Rows and columns appear in
// first-seen order. The grid is built from whatever records are passed, so
// callers wanting the global view pass the unfiltered list.
func Heatmap(records []results.Record, names Names) Grid {
	var g Grid
	classIdx := map[string]int{}
	chapterIdx := map[string]int{}
	for _, r := range records {
		if _, ok := classIdx[r.ClassID]; !ok {
			classIdx[r.ClassID] = len(g.Classes)
			g.Classes = append(g.Classes, r.ClassID)
			g.ClassNames = append(g.ClassNames, names.Class(r.ClassID, r.ClassName))
		}
		if _, ok := chapterIdx[r.ChapterID]; !ok {
			chapterIdx[r.ChapterID] = len(g.Chapters)
			g.Chapters = append(g.Chapters, r.ChapterID)
			g.ChapterNames = append(g.ChapterNames, names.Chapter(r.ClassID, r.ChapterID, r.ChapterName))
		}
	}

	sums := make([][]float64, len(g.Classes))
	g.Cells = make([][]Cell, len(g.Classes))
	for i := range g.Cells {
		g.Cells[i] = make([]Cell, len(g.Chapters))
		sums[i] = make([]float64, len(g.Chapters))
	}
	for _, r := range records {
		i, j := classIdx[r.ClassID], chapterIdx[r.ChapterID]
		sums[i][j] += r.Percent()
		g.Cells[i][j].Count++
	}
	for i := range g.Cells {
		for j := range g.Cells[i] {
			cell := &g.Cells[i][j]
			if cell.Count == 0 {
				continue
			}
			cell.Average = sums[i][j] / float64(cell.Count)
			cell.Band = BandFor(cell.Average)
		}
	}
	return g
}
