package review

import (
	"time"

	"github.com/simp-lee/ruelucas/internal/collection"
	"github.com/simp-lee/ruelucas/internal/display"
	"github.com/simp-lee/ruelucas/internal/domain"
)

// ScreenResponse is the JSON view of a session's reviews screen.
type ScreenResponse struct {
	Page     int                              `json:"page"`
	Search   string                           `json:"search"`
	Status   string                           `json:"status"`
	PageSize int                              `json:"page_size"`
	Loaded   bool                             `json:"loaded"`
	Error    string                           `json:"error,omitempty"`
	Result   domain.PageResult[domain.Review] `json:"result"`
	Stats    StatsResponse                    `json:"stats"`
}

// StatsResponse summarizes the reviews of the current page.
type StatsResponse struct {
	Average   float64     `json:"average"`
	Excellent int         `json:"excellent"`
	ThisMonth int         `json:"this_month"`
	Histogram map[int]int `json:"histogram"`
}

func newScreenResponse(st collection.State[domain.Review], now time.Time) ScreenResponse {
	stats := display.SummarizeReviews(st.View.Items, st.View.Total, now)
	hist := make(map[int]int, len(stats.Histogram))
	for _, bar := range stats.Histogram {
		hist[bar.Rating] = bar.Count
	}

	resp := ScreenResponse{
		Page:     st.Query.Page,
		Search:   st.Query.Search,
		Status:   st.Query.Status,
		PageSize: st.PageSize,
		Loaded:   st.Loaded,
		Result:   st.View,
		Stats: StatsResponse{
			Average:   stats.Average,
			Excellent: stats.Excellent,
			ThisMonth: stats.ThisMonth,
			Histogram: hist,
		},
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	if resp.Result.Items == nil {
		resp.Result.Items = []domain.Review{}
	}
	return resp
}
