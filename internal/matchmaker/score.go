package matchmaker

import (
	"strings"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
)

// Weights are the points awarded per matching attribute.
type Weights struct {
	Campus  int
	Program int
	Year    int
	Tag     int
	TagCap  int
}

// WeightsFrom reads weights from configuration.
func WeightsFrom(cfg config.MatchmakingConfig) Weights {
	return Weights{
		Campus:  cfg.WeightCampus,
		Program: cfg.WeightProgram,
		Year:    cfg.WeightYear,
		Tag:     cfg.WeightTag,
		TagCap:  cfg.TagCap,
	}
}

// Score rates other for me in [0,100] and returns the shared tags in my spelling and order.
func Score(me, other *db.User, w Weights) (int, []string) {
	return newScorer(me, w).score(other)
}

type scorer struct {
	me     *db.User
	w      Weights
	myTags []string
}

func newScorer(me *db.User, w Weights) *scorer {
	return &scorer{me: me, w: w, myTags: me.AllTags()}
}

func (s *scorer) score(other *db.User) (int, []string) {
	total := 0
	if equalNonEmpty(s.me.Campus, other.Campus) {
		total += s.w.Campus
	}
	if equalNonEmpty(s.me.AcademicProgram, other.AcademicProgram) {
		total += s.w.Program
	}
	if equalNonEmpty(s.me.YearLevel, other.YearLevel) {
		total += s.w.Year
	}

	shared := sharedTags(s.myTags, other.AllTags())
	total += min(len(shared)*s.w.Tag, s.w.TagCap)

	return min(max(total, 0), 100), shared
}

// sharedTags intersects case-insensitively, keeping mine's spelling and order.
func sharedTags(mine, theirs []string) []string {
	if len(mine) == 0 || len(theirs) == 0 {
		return []string{}
	}
	set := make(map[string]struct{}, len(theirs))
	for _, t := range theirs {
		set[strings.ToLower(t)] = struct{}{}
	}
	out := []string{}
	for _, t := range mine {
		if _, ok := set[strings.ToLower(t)]; ok {
			out = append(out, t)
		}
	}
	return out
}

// equalNonEmpty is exact equality; two blank values are not a match.
func equalNonEmpty(a, b string) bool {
	return a != "" && a == b
}
