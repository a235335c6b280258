package db

import (
	"strings"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// Tags encodes a list of strings as a JSON column value.
func Tags(values ...string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

// DecodeTags reads a JSON string array column. Malformed or empty values decode to nil;
// entries are trimmed and blanks dropped.
func DecodeTags(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// AllTags returns the union of the user's five tag collections, keeping first-seen order
// and dropping case-insensitive duplicates.
func (u *User) AllTags() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, col := range []datatypes.JSON{
		u.Courses,
		u.ResearchInterests,
		u.ExtracurricularActivities,
		u.AcademicGoals,
		u.Interests,
	} {
		for _, tag := range DecodeTags(col) {
			key := strings.ToLower(tag)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// InterestTags returns the decoded interests column.
func (u *User) InterestTags() []string {
	return DecodeTags(u.Interests)
}
