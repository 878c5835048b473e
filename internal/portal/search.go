package portal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/models"
)

// ProgressBands are the progress ranges the map filter offers.
var ProgressBands = []string{"0-25", "25-50", "50-75", "75-100"}

// VillageQuery narrows a village listing. The zero value matches every
// village.
type VillageQuery struct {
	Name   string               // case-insensitive substring of the name
	Status models.VillageStatus // empty matches any status
	// MinProgress and MaxProgress bound the status progress percentage.
	// The lower bound is exclusive except at 0, so each status falls in
	// exactly one of ProgressBands. MaxProgress 0 means 100.
	MinProgress int
	MaxProgress int
}

// ParseVillageQuery builds a query from user-facing filter values. "all" or
// an empty string disables the status and progress filters.
func ParseVillageQuery(name, status, progress string) (VillageQuery, error) {
	q := VillageQuery{Name: strings.TrimSpace(name)}
	if s := strings.TrimSpace(status); s != "" && !strings.EqualFold(s, "all") {
		vs, err := lifecycle.ParseVillageStatus(s)
		if err != nil {
			return VillageQuery{}, err
		}
		q.Status = vs
	}
	if p := strings.TrimSpace(progress); p != "" && !strings.EqualFold(p, "all") {
		lo, hi, err := parseBand(p)
		if err != nil {
			return VillageQuery{}, err
		}
		q.MinProgress, q.MaxProgress = lo, hi
	}
	return q, nil
}

func parseBand(s string) (int, int, error) {
	bad := &lifecycle.ValidationError{Field: "progress", Reason: fmt.Sprintf("%q is not a range like 25-50", s)}
	lo, hi, ok := strings.Cut(strings.TrimSuffix(s, "%"), "-")
	if !ok {
		return 0, 0, bad
	}
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, bad
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil || from < 0 || to > 100 || from >= to {
		return 0, 0, bad
	}
	return from, to, nil
}

// Match reports whether v satisfies q.
func (q VillageQuery) Match(v models.Village) bool {
	if q.Name != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(q.Name)) {
		return false
	}
	if q.Status != "" && v.Status != q.Status {
		return false
	}
	hi := q.MaxProgress
	if hi == 0 {
		hi = 100
	}
	if q.MinProgress == 0 && hi == 100 {
		return true
	}
	pct := lifecycle.ProgressPercentage(string(v.Status), lifecycle.KindVillage)
	if pct > hi {
		return false
	}
	return pct > q.MinProgress || (q.MinProgress == 0 && pct == 0)
}

// FindVillages returns the villages matching q in registration order.
func (p *Portal) FindVillages(q VillageQuery) []models.Village {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []models.Village
	for _, v := range p.villages {
		if q.Match(v) {
			out = append(out, v)
		}
	}
	return out
}
