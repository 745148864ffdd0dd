package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"campaign-dashboard/models"
	"campaign-dashboard/rowindex"
)

// CRMService serves the read-only CRM reporting views: manual efforts,
// worklogs, strategy tickets and newsletter insights.
type CRMService struct {
	db *sql.DB
}

// NewCRMService creates a CRM reporting service on an existing connection.
func NewCRMService(db *sql.DB) *CRMService {
	return &CRMService{db: db}
}

// GetEfforts returns manual-effort lines, optionally filtered to one month
// (YYYY-MM, same convention as the campaign month index).
func (s *CRMService) GetEfforts(ctx context.Context, month string, limit int) ([]models.EffortReport, error) {
	month = rowindex.Normalize(month)

	query := `
		SELECT partner, month, task, hours, cost
		FROM manual_efforts
		WHERE (? = '' OR month = ?)
		ORDER BY month DESC, partner ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, month, month, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query efforts: %w", err)
	}
	defer rows.Close()

	var efforts []models.EffortReport
	for rows.Next() {
		var e models.EffortReport
		var hours, cost string
		if err := rows.Scan(&e.Partner, &e.Month, &e.Task, &hours, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan effort: %w", err)
		}
		e.Hours, _ = decimal.NewFromString(hours)
		e.Cost, _ = decimal.NewFromString(cost)
		efforts = append(efforts, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating efforts: %w", err)
	}
	return efforts, nil
}

// GetWorklogs returns the most recent worklogs, optionally for one partner.
func (s *CRMService) GetWorklogs(ctx context.Context, partner string, limit int) ([]models.Worklog, error) {
	partner = rowindex.Normalize(partner)

	query := `
		SELECT id, author, partner, summary, minutes, created_at
		FROM worklogs
		WHERE (? = '' OR partner = ?)
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, partner, partner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query worklogs: %w", err)
	}
	defer rows.Close()

	var logs []models.Worklog
	for rows.Next() {
		var w models.Worklog
		var createdAt time.Time
		if err := rows.Scan(&w.ID, &w.Author, &w.Partner, &w.Summary, &w.Minutes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan worklog: %w", err)
		}
		w.CreatedAt = createdAt.Format(time.RFC3339)
		logs = append(logs, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating worklogs: %w", err)
	}
	return logs, nil
}

// GetTickets returns strategy tickets, newest first.
func (s *CRMService) GetTickets(ctx context.Context, status string, limit int) ([]models.StrategyTicket, error) {
	status = rowindex.Normalize(status)

	query := `
		SELECT id, partner, title, status, owner, created_at, closed_at
		FROM strategy_tickets
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, status, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.StrategyTicket
	for rows.Next() {
		var tk models.StrategyTicket
		var createdAt time.Time
		var closedAt sql.NullTime
		if err := rows.Scan(&tk.ID, &tk.Partner, &tk.Title, &tk.Status, &tk.Owner, &createdAt, &closedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tk.CreatedAt = createdAt.Format(time.RFC3339)
		if closedAt.Valid {
			tk.ClosedAt = closedAt.Time.Format(time.RFC3339)
		}
		tickets = append(tickets, tk)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

// GetTicketSummary aggregates strategy tickets by status.
func (s *CRMService) GetTicketSummary(ctx context.Context) ([]models.TicketSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM strategy_tickets
		GROUP BY status
		ORDER BY status ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket summary: %w", err)
	}
	defer rows.Close()

	var summary []models.TicketSummary
	for rows.Next() {
		var ts models.TicketSummary
		if err := rows.Scan(&ts.Status, &ts.Count); err != nil {
			return nil, fmt.Errorf("failed to scan ticket summary: %w", err)
		}
		summary = append(summary, ts)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket summary: %w", err)
	}
	return summary, nil
}

// GetNewsletterInsights returns per-newsletter engagement for a month, with
// open/click rates computed here so the dashboard never divides by zero.
func (s *CRMService) GetNewsletterInsights(ctx context.Context, month string, limit int) ([]models.NewsletterInsight, error) {
	month = rowindex.Normalize(month)

	query := `
		SELECT newsletter, month, sends, opens, clicks
		FROM newsletter_stats
		WHERE (? = '' OR month = ?)
		ORDER BY month DESC, sends DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, month, month, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query newsletter insights: %w", err)
	}
	defer rows.Close()

	var insights []models.NewsletterInsight
	for rows.Next() {
		var n models.NewsletterInsight
		if err := rows.Scan(&n.Newsletter, &n.Month, &n.Sends, &n.Opens, &n.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan newsletter insight: %w", err)
		}
		if n.Sends > 0 {
			sends := decimal.NewFromInt(n.Sends)
			n.OpenRate = decimal.NewFromInt(n.Opens).Div(sends).Round(4)
			n.ClickRate = decimal.NewFromInt(n.Clicks).Div(sends).Round(4)
		} else {
			n.OpenRate = decimal.Zero
			n.ClickRate = decimal.Zero
		}
		insights = append(insights, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating newsletter insights: %w", err)
	}
	return insights, nil
}

// MonthlyOverview is the combined CRM view for one month. The three report
// sections are independent queries, fetched concurrently.
type MonthlyOverview struct {
	Month      string                     `json:"month"`
	Efforts    []models.EffortReport      `json:"efforts"`
	Tickets    []models.TicketSummary     `json:"tickets"`
	Newsletter []models.NewsletterInsight `json:"newsletter"`
}

// GetMonthlyOverview fetches efforts, ticket summary and newsletter insights
// for one month in parallel.
func (s *CRMService) GetMonthlyOverview(ctx context.Context, month string) (*MonthlyOverview, error) {
	out := &MonthlyOverview{Month: rowindex.Normalize(month)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		efforts, err := s.GetEfforts(ctx, month, 500)
		if err != nil {
			return err
		}
		out.Efforts = efforts
		return nil
	})
	g.Go(func() error {
		tickets, err := s.GetTicketSummary(ctx)
		if err != nil {
			return err
		}
		out.Tickets = tickets
		return nil
	})
	g.Go(func() error {
		insights, err := s.GetNewsletterInsights(ctx, month, 500)
		if err != nil {
			return err
		}
		out.Newsletter = insights
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
