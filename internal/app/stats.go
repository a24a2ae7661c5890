package app

import (
	"context"
	"time"

	"github.com/dkeye/WatchTogether/internal/domain"
)

type RoomSummary struct {
	ID          domain.RoomID `json:"id"`
	Name        string        `json:"name"`
	MemberCount int           `json:"memberCount"`
	IsPublic    bool          `json:"isPublic"`
	HasPassword bool          `json:"hasPassword"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type Stats struct {
	TotalRooms   int           `json:"totalRooms"`
	TotalMembers int           `json:"totalMembers"`
	Rooms        []RoomSummary `json:"rooms"`
}

// Stats reports aggregate counts for operators.
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := c.call(ctx, "stats", "", func() {
		st.TotalRooms, st.TotalMembers = c.store.Counts()
		rooms := c.store.Rooms()
		st.Rooms = make([]RoomSummary, 0, len(rooms))
		for _, r := range rooms {
			st.Rooms = append(st.Rooms, RoomSummary{
				ID:          r.ID,
				Name:        r.Name,
				MemberCount: r.MemberCount,
				IsPublic:    r.IsPublic,
				HasPassword: r.HasPassword(),
				CreatedAt:   r.CreatedAt,
			})
		}
	})
	return st, err
}
