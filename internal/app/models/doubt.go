package models

import "time"

// DoubtStatus represents the lifecycle state of a doubt
type DoubtStatus string

const (
	DoubtStatusOpen       DoubtStatus = "open"
	DoubtStatusInProgress DoubtStatus = "in_progress"
	DoubtStatusResolved   DoubtStatus = "resolved"
	DoubtStatusClosed     DoubtStatus = "closed"
)

// DoubtPriority represents how urgent a doubt is
type DoubtPriority string

const (
	DoubtPriorityLow    DoubtPriority = "low"
	DoubtPriorityMedium DoubtPriority = "medium"
	DoubtPriorityHigh   DoubtPriority = "high"
	DoubtPriorityUrgent DoubtPriority = "urgent"
)

// ValidPriority reports whether p is one of the accepted priority levels
func ValidPriority(p DoubtPriority) bool {
	switch p {
	case DoubtPriorityLow, DoubtPriorityMedium, DoubtPriorityHigh, DoubtPriorityUrgent:
		return true
	}
	return false
}

// VoteType is the direction of a vote on a doubt
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// ValidVoteType reports whether v is one of the accepted vote directions
func ValidVoteType(v VoteType) bool {
	return v == VoteUp || v == VoteDown
}

// Doubt represents a user-submitted question awaiting responses.
// Responses and votes are sub-state of the doubt and are only mutated
// through DoubtRepository operations, which lock the owning row.
type Doubt struct {
	ID          int64         `json:"id" db:"id"`
	AuthorID    int64         `json:"authorId" db:"author_id"` // Immutable after creation
	Subject     string        `json:"subject" db:"subject" example:"Mathematics"`
	Title       string        `json:"title" db:"title" example:"Need help with limits"`
	Description string        `json:"description" db:"description"`
	Status      DoubtStatus   `json:"status" db:"status" example:"open"`
	Priority    DoubtPriority `json:"priority" db:"priority" example:"medium"`
	Tags        []string      `json:"tags" db:"tags"`
	Views       int           `json:"views" db:"views"` // Monotonic, incremented per non-author authenticated fetch
	SolvedByID  *int64        `json:"solvedBy,omitempty" db:"solved_by"`
	SolvedAt    *time.Time    `json:"solvedAt,omitempty" db:"solved_at"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`

	// ResponseCount is populated by list queries that skip loading the
	// embedded responses themselves
	ResponseCount int `json:"-"`

	// Related entities
	Author    *User      `json:"author,omitempty"`
	Responses []Response `json:"responses"`
	Upvotes   []int64    `json:"upvotes"`   // User ids; disjoint from Downvotes
	Downvotes []int64    `json:"downvotes"` // User ids; disjoint from Upvotes
}

// Response is an answer embedded in a doubt. It is never addressed
// independently of its owning doubt.
type Response struct {
	ID         int64      `json:"id" db:"id"`
	DoubtID    int64      `json:"doubtId" db:"doubt_id"`
	UserID     int64      `json:"userId" db:"user_id"`
	Content    string     `json:"content" db:"content"`
	IsAccepted bool       `json:"isAccepted" db:"is_accepted"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`

	// Related entities
	User *User `json:"user,omitempty"`
}

// VoteScore returns upvotes minus downvotes
func (d *Doubt) VoteScore() int {
	return len(d.Upvotes) - len(d.Downvotes)
}

// ResponseByID returns the embedded response with the given id, or nil
func (d *Doubt) ResponseByID(responseID int64) *Response {
	for i := range d.Responses {
		if d.Responses[i].ID == responseID {
			return &d.Responses[i]
		}
	}
	return nil
}
