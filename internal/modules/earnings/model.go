// README: Earning records; one per delivered order, immutable except status.
package earnings

import (
	"time"

	"gasline/internal/types"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusPaid      Status = "PAID"
)

// statusRank orders the monotonic PENDING → COMPLETED → PAID progression.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusCompleted: 1,
	StatusPaid:      2,
}

// CanProgress reports whether status may move from -> to (strictly forward).
func CanProgress(from, to Status) bool {
	fr, ok1 := statusRank[from]
	tr, ok2 := statusRank[to]
	return ok1 && ok2 && tr == fr+1
}

type Earning struct {
	ID          types.ID  `json:"id"`
	OrderID     types.ID  `json:"order_id"`
	RiderID     types.ID  `json:"rider_id"`
	BaseFee     int64     `json:"base_fee"`
	Commission  int64     `json:"commission"`
	NetEarnings int64     `json:"net_earnings"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Period filters for the earnings summary.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

type Summary struct {
	TotalEarnings   int64 `json:"totalEarnings"`
	TotalDeliveries int   `json:"totalDeliveries"`
	TotalCommission int64 `json:"totalCommission"`
	TotalBaseFees   int64 `json:"totalBaseFees"`
	AverageEarning  int64 `json:"averageEarning"`
}

// Summarize folds a record set into the dashboard aggregate.
// averageEarning is floor(total/deliveries), 0 when there are none.
func Summarize(records []Earning) Summary {
	var sum Summary
	for _, e := range records {
		sum.TotalEarnings += e.NetEarnings
		sum.TotalCommission += e.Commission
		sum.TotalBaseFees += e.BaseFee
		sum.TotalDeliveries++
	}
	if sum.TotalDeliveries > 0 {
		avg := sum.TotalEarnings / int64(sum.TotalDeliveries)
		if sum.TotalEarnings < 0 && sum.TotalEarnings%int64(sum.TotalDeliveries) != 0 {
			avg-- // floor, not truncation
		}
		sum.AverageEarning = avg
	}
	return sum
}
