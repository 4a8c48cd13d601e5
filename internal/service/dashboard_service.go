package service

import (
	"fmt"
	"time"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/pkg/dateutil"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

const maxCashFlowDays = 366

type DashboardService interface {
	Summary(actor Actor, from, to string) (*SummaryResponse, error)
	CashFlow(actor Actor, days int) ([]CashFlowPoint, error)
}

type SummaryResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
	repository.Summary
	Balance decimal.Decimal `json:"balance"` // received - paid out
}

// CashFlowPoint is the money that actually moved on one day
type CashFlowPoint struct {
	Date     string          `json:"date"`
	Received decimal.Decimal `json:"received"`
	PaidOut  decimal.Decimal `json:"paid_out"`
	Net      decimal.Decimal `json:"net"`
}

type dashboardService struct {
	txRepo repository.TransactionRepository
	loc    *time.Location
}

func NewDashboardService(txRepo repository.TransactionRepository, loc *time.Location) DashboardService {
	return &dashboardService{txRepo: txRepo, loc: loc}
}

// Summary defaults to the current month when from or to is empty
func (s *dashboardService) Summary(actor Actor, from, to string) (*SummaryResponse, error) {
	month := now.With(today(s.loc))
	start, end := month.BeginningOfMonth(), dateutil.Midnight(month.EndOfMonth())

	var err error
	if from != "" {
		if start, err = dateutil.ParseDateIn(from, s.loc); err != nil {
			return nil, fmt.Errorf("%w: from: %v", ErrInvalidQuery, err)
		}
	}
	if to != "" {
		if end, err = dateutil.ParseDateIn(to, s.loc); err != nil {
			return nil, fmt.Errorf("%w: to: %v", ErrInvalidQuery, err)
		}
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: to is before from", ErrInvalidQuery)
	}

	stats, err := s.txRepo.GetSummary(actor.CompanyID, start, end, today(s.loc))
	if err != nil {
		return nil, err
	}
	return &SummaryResponse{
		From:    dateutil.FormatISO(start),
		To:      dateutil.FormatISO(end),
		Summary: *stats,
		Balance: stats.Received.Sub(stats.PaidOut),
	}, nil
}

// CashFlow returns one point per day for the last days days, today included
func (s *dashboardService) CashFlow(actor Actor, days int) ([]CashFlowPoint, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxCashFlowDays {
		days = maxCashFlowDays
	}

	end := today(s.loc)
	start := end.AddDate(0, 0, -(days - 1))

	flows, err := s.txRepo.GetPaymentFlows(actor.CompanyID, start, end)
	if err != nil {
		return nil, err
	}

	points := make([]CashFlowPoint, days)
	index := make(map[string]int, days)
	for i := range points {
		key := dateutil.FormatISO(start.AddDate(0, 0, i))
		points[i] = CashFlowPoint{Date: key, Received: decimal.Zero, PaidOut: decimal.Zero, Net: decimal.Zero}
		index[key] = i
	}

	for _, f := range flows {
		i, ok := index[dateutil.FormatISO(f.PaymentDate)]
		if !ok {
			continue
		}
		amount := f.Amount.Add(f.Interest)
		if f.Kind == model.KindIncome {
			points[i].Received = points[i].Received.Add(amount)
		} else {
			points[i].PaidOut = points[i].PaidOut.Add(amount)
		}
		points[i].Net = points[i].Received.Sub(points[i].PaidOut)
	}
	return points, nil
}
