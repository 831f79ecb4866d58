package reservation

import (
	"github.com/simp-lee/ruelucas/internal/collection"
	"github.com/simp-lee/ruelucas/internal/display"
	"github.com/simp-lee/ruelucas/internal/domain"
)

// ScreenResponse is the JSON view of a session's reservations screen.
type ScreenResponse struct {
	Page     int                                   `json:"page"`
	Search   string                                `json:"search"`
	Status   string                                `json:"status"`
	PageSize int                                   `json:"page_size"`
	Loaded   bool                                  `json:"loaded"`
	Error    string                                `json:"error,omitempty"`
	Result   domain.PageResult[domain.Reservation] `json:"result"`
	Counts   display.ReservationCounts             `json:"counts"`
}

func newScreenResponse(st collection.State[domain.Reservation]) ScreenResponse {
	resp := ScreenResponse{
		Page:     st.Query.Page,
		Search:   st.Query.Search,
		Status:   st.Query.Status,
		PageSize: st.PageSize,
		Loaded:   st.Loaded,
		Result:   st.View,
		Counts:   display.CountReservations(st.View),
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	if resp.Result.Items == nil {
		resp.Result.Items = []domain.Reservation{}
	}
	return resp
}
