package api

// PostSummary is a listing entry of the posts/v1 API.
type PostSummary struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"published_date"`
	Keywords      []string `json:"keywords"`
	Image         string   `json:"image,omitempty"`
	Audience      []string `json:"audience"`
	ReadingTime   string   `json:"reading_time"`
	Future        bool     `json:"future"`
}

// PostList is the body of GET posts/v1/.
type PostList struct {
	Posts    []PostSummary `json:"posts"`
	Unlocked bool          `json:"unlocked"`
}

// Post is the body of GET posts/v1/:postId. Everything but State and ID is
// omitted unless State is "rendered".
type Post struct {
	State       string       `json:"state"`
	ID          int          `json:"id"`
	Summary     *PostSummary `json:"summary,omitempty"`
	HTMLContent string       `json:"html_content,omitempty"`
	PreviousID  int          `json:"previous_id,omitempty"`
	NextID      int          `json:"next_id,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// UnlockResult is the body of POST posts/v1/unlock.
type UnlockResult struct {
	// Unlocked is true only on the activation that performed the unlock.
	Unlocked bool `json:"unlocked"`
	// Armed reports whether further activations still count.
	Armed     bool `json:"armed"`
	Remaining int  `json:"remaining"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status     string `json:"status"`
	Posts      int    `json:"posts"`
	LastSynced string `json:"last_synced,omitempty"`
}
