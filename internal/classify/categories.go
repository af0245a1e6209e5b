package classify

// DefaultCategories returns the built-in topical categories.
// Keyword lists define each category's prototype vector; exact-match
// triggers short-circuit vector scoring for high-signal words.
func DefaultCategories() []*Category {
	return []*Category{
		{
			Name: "entertainment",
			Keywords: []string{
				"movie", "film", "music", "game", "play", "fun", "dance", "sing",
				"concert", "theater", "show", "series", "comedy", "drama", "art",
				"entertainment", "performance", "actor", "actress", "celebrity",
			},
		},
		{
			Name: "politics",
			Keywords: []string{
				"politics", "election", "senate", "government", "policy", "debate",
				"campaign", "law", "vote", "congress", "minister", "president",
				"democracy", "party", "politician", "bill", "legislation", "political",
			},
			ExactMatches: []string{"trump", "biden", "election"},
		},
		{
			Name: "technology",
			Keywords: []string{
				"tech", "computer", "software", "programming", "code", "developer",
				"digital", "internet", "app", "gadget", "hardware", "ai", "data",
				"robot", "smart", "device", "innovation", "engineering", "science",
			},
		},
		{
			Name: "sports",
			Keywords: []string{
				"sports", "football", "basketball", "soccer", "baseball", "tennis",
				"game", "match", "player", "team", "score", "win", "championship",
				"league", "athlete", "fitness", "workout", "exercise",
			},
		},
		{
			Name: "gaming",
			Keywords: []string{
				"game", "gaming", "playthrough", "walkthrough", "stream", "console",
				"player", "minecraft", "fortnite", "gameplay", "gamer", "esports",
				"nintendo", "xbox", "playstation", "multiplayer", "rpg",
			},
		},
		{
			Name: "education",
			Keywords: []string{
				"learn", "study", "teach", "school", "university", "college",
				"education", "course", "tutorial", "guide", "lesson", "lecture",
				"professor", "student", "academic", "research", "knowledge",
			},
		},
	}
}
