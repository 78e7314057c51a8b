package api

import (
	"time"

	"github.com/lib/pq"
)

// MaxCalls is the lifetime quota of protected calls per token.
const MaxCalls = 20

type Token struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	Token     string         `gorm:"uniqueIndex;not null" json:"token"`
	CallIDs   pq.StringArray `gorm:"type:text[]" json:"-"`
	CreatedAt time.Time      `json:"-"`
}

// Call is an immutable log entry of one protected-API invocation.
// Referenced, never owned, by a Token's CallIDs.
type Call struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	RequestType string    `json:"request_type"`
	RequestBody string    `json:"request_body"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Token) TableName() string { return "api.tokens" }
func (Call) TableName() string  { return "api.calls" }
