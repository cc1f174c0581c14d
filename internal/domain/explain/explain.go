// Package explain ranks the factors holding a score back and attaches
// fixed improvement suggestions.
package explain

import (
	"fmt"
	"sort"

	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
)

// DefaultTopN is the number of deficits returned when the caller has no preference.
const DefaultTopN = 3

const scoreScale = 100.0

// Deficit is a factor ranked by how much score it leaves on the table.
type Deficit struct {
	Factor     model.Factor `json:"factor"`
	Current    float64      `json:"current"`
	GapToMax   float64      `json:"gap_to_max"`
	Potential  float64      `json:"potential"` // score points recoverable by closing the gap
	Suggestion string       `json:"suggestion"`
}

// Explain returns the topN factors ordered by weight*gap, largest first,
// ties by factor name. topN larger than the number of factors returns all.
func Explain(res scoring.Result, topN int) ([]Deficit, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: topN must be positive, got %d", model.ErrInvalidArgument, topN)
	}

	type ranked struct {
		d      Deficit
		impact float64
	}
	all := make([]ranked, 0, len(res.FactorContributions))
	for _, fc := range res.FactorContributions {
		gap := 1 - fc.Value
		impact := fc.Weight * gap
		all = append(all, ranked{
			d: Deficit{
				Factor:     fc.Factor,
				Current:    fc.Value,
				GapToMax:   gap,
				Potential:  impact * scoreScale,
				Suggestion: Suggestion(fc.Factor),
			},
			impact: impact,
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].impact != all[j].impact {
			return all[i].impact > all[j].impact
		}
		return all[i].d.Factor < all[j].d.Factor
	})

	if topN > len(all) {
		topN = len(all)
	}
	out := make([]Deficit, 0, topN)
	for _, r := range all[:topN] {
		out = append(out, r.d)
	}
	return out, nil
}
