package proximity

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/oggyb/campus-match/internal/completion"
	"github.com/oggyb/campus-match/internal/db"
)

const (
	bioExcerptLen   = 200
	promptInterests = 15
)

const systemPrompt = "You help students on the same campus find the one person they are most likely to get along with. " +
	"You receive one profile and a numbered list of candidate profiles. Weigh shared interests, similar goals and " +
	"complementary personalities. Answer with the number of the single best candidate and nothing else, e.g. 1 or 2."

var (
	indexPattern = regexp.MustCompile(`\b([1-9]\d*)\b`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// pickBest never returns nil for a non-empty pool. The completer's answer is a hint:
// anything other than an in-range index falls back to the heuristic.
func (e *Engine) pickBest(ctx context.Context, user *db.User, candidates []db.User, trail *Trail) *db.User {
	if len(candidates) == 0 {
		return nil
	}

	if e.completer == nil {
		trail.CompletionError = ReasonMissingAPIKey
	} else {
		raw, err := e.completer.Complete(ctx, buildPrompt(user, candidates))
		trail.RawResponse = raw
		switch {
		case err != nil:
			trail.CompletionError = err.Error()
			e.logger.Warn("completion pick failed, using heuristic", "user", user.ID, "err", err)
		default:
			if idx, ok := ParseIndex(raw, len(candidates)); ok {
				trail.Source = SourceOpenAI
				trail.ChosenIndex = idx + 1
				return &candidates[idx]
			}
			trail.CompletionError = "unparseable response"
			e.logger.Warn("completion answer unusable, using heuristic", "user", user.ID, "raw", raw)
		}
	}

	idx, score := pickHeuristic(user, candidates)
	trail.Source = SourceHeuristic
	trail.ChosenIndex = idx + 1
	trail.HeuristicScore = &score
	return &candidates[idx]
}

// ParseIndex reads the first positive integer token of s as a 1-based index into a list of n
// and returns it 0-based. ok is false when there is no token or it is out of range.
func ParseIndex(s string, n int) (int, bool) {
	if n < 1 {
		return 0, false
	}
	m := indexPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	oneBased, err := strconv.Atoi(m[1])
	if err != nil || oneBased < 1 || oneBased > n {
		return 0, false
	}
	return oneBased - 1, true
}

// HeuristicScore is 10 per shared interest plus 20 for the same academic program.
func HeuristicScore(me, other *db.User) int {
	return heuristicScore(me, interestSet(me), other)
}

// pickHeuristic returns the index of the first best-scoring candidate.
func pickHeuristic(me *db.User, candidates []db.User) (int, int) {
	mine := interestSet(me)
	best, bestScore := 0, -1
	for i := range candidates {
		if s := heuristicScore(me, mine, &candidates[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

func heuristicScore(me *db.User, mine map[string]struct{}, other *db.User) int {
	shared := 0
	for t := range interestSet(other) {
		if _, ok := mine[t]; ok {
			shared++
		}
	}
	score := 10 * shared
	if me.AcademicProgram != "" && me.AcademicProgram == other.AcademicProgram {
		score += 20
	}
	return score
}

func interestSet(u *db.User) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range u.InterestTags() {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

func buildPrompt(user *db.User, candidates []db.User) completion.Prompt {
	var b strings.Builder
	b.WriteString("Profile looking for a match:\n")
	b.WriteString(profileSummary(user))
	b.WriteString("\n\nCandidates:\n")
	for i := range candidates {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Candidate %d: %s", i+1, profileSummary(&candidates[i]))
	}
	b.WriteString("\n\nAnswer with only the number of the best candidate.")
	return completion.Prompt{System: systemPrompt, User: b.String()}
}

func profileSummary(u *db.User) string {
	var parts []string
	if bio := excerpt(u.Bio, bioExcerptLen); bio != "" {
		parts = append(parts, "Bio: "+bio)
	}
	if interests := u.InterestTags(); len(interests) > 0 {
		parts = append(parts, "Interests: "+strings.Join(interests[:min(len(interests), promptInterests)], ", "))
	}
	if u.AcademicProgram != "" {
		parts = append(parts, "Program: "+u.AcademicProgram)
	}
	if len(parts) == 0 {
		return "(no profile details)"
	}
	return strings.Join(parts, ". ")
}

// excerpt collapses whitespace and cuts s to at most n runes, marking the cut with "...".
func excerpt(s string, n int) string {
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
