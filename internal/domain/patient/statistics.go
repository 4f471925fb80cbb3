package patient

import (
	"fmt"
	"iter"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	chartTitle    = "Статистика по вирусу COVID-19"
	chartBarWidth = 40
)

var chartLabels = map[Status]string{
	StatusInfected:  "Заражено",
	StatusRecovered: "Выздоровело",
	StatusDeceased:  "Умерло",
}

// Statistics is a tally of patients by status.
type Statistics struct {
	counts map[Status]int
	total  int
}

// Tally counts the patients of seq by status.
func Tally(seq iter.Seq[*Patient]) Statistics {
	s := Statistics{counts: make(map[Status]int, len(Statuses))}
	for p := range seq {
		s.counts[p.Status()]++
		s.total++
	}
	return s
}

func (s Statistics) Total() int              { return s.total }
func (s Statistics) Count(status Status) int { return s.counts[status] }

// Percent returns the share of patients with the given status, in percent
// rounded to one decimal place. It is zero when there are no patients.
func (s Statistics) Percent(status Status) decimal.Decimal {
	if s.total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.counts[status])).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.total))).
		Round(1)
}

// Chart renders the tally as a text bar chart, one line per status.
func (s Statistics) Chart() string {
	var b strings.Builder
	b.WriteString(chartTitle)
	b.WriteByte('\n')
	for _, status := range Statuses {
		bar := 0
		if s.total > 0 {
			bar = int(decimal.NewFromInt(int64(s.counts[status] * chartBarWidth)).
				Div(decimal.NewFromInt(int64(s.total))).
				Round(0).
				IntPart())
		}
		fmt.Fprintf(&b, "%-12s %-*s %5s%% (%d)\n",
			chartLabels[status],
			chartBarWidth, strings.Repeat("#", bar),
			s.Percent(status).StringFixed(1),
			s.counts[status],
		)
	}
	return b.String()
}
