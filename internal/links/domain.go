package links

import (
	"time"

	"github.com/loslc/loslc-links/internal/shared"
)

const linkIDSize = 10

// Link is a labelled short link owned by a user.
type Link struct {
	ID          string    `json:"id"`
	UserID      string    `json:"author_id"`
	Label       string    `json:"label"`
	URL         string    `json:"url"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewLink builds a not yet persisted link for a user.
func NewLink(userID, label, url string, description *string) Link {
	return Link{
		ID:          shared.NewID(linkIDSize),
		UserID:      userID,
		Label:       label,
		URL:         url,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}
