package db

import "strings"

// Swipe intents. Dating, friend and study_buddy are likes; ignored is a pass.
const (
	IntentDating     = "dating"
	IntentFriend     = "friend"
	IntentStudyBuddy = "study_buddy"
	IntentIgnored    = "ignored"
)

// LikeIntents lists the like-class intents.
var LikeIntents = []string{IntentDating, IntentFriend, IntentStudyBuddy}

// IsLikeIntent reports whether intent counts as a like.
func IsLikeIntent(intent string) bool {
	switch intent {
	case IntentDating, IntentFriend, IntentStudyBuddy:
		return true
	}
	return false
}

// IsKnownIntent reports whether intent is one of the four recognised intents.
func IsKnownIntent(intent string) bool {
	return IsLikeIntent(intent) || intent == IntentIgnored
}

// NoGenderPreference is the sentinel stored when a user does not filter by gender.
const NoGenderPreference = "No preference"

// GenderFilter returns the gender candidates must have, or nil for no filter.
func (u *User) GenderFilter() *string {
	if u == nil || u.PreferredGender == nil {
		return nil
	}
	g := strings.TrimSpace(*u.PreferredGender)
	if g == "" || strings.EqualFold(g, NoGenderPreference) {
		return nil
	}
	return &g
}
