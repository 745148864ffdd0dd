package services

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEffortsFiltersByMonth(t *testing.T) {
	it(func() {
		svc := NewCRMService(db)

		mock.ExpectQuery("SELECT partner, month, task, hours, cost").
			WithArgs("2026-03", "2026-03", 200).
			WillReturnRows(sqlmock.NewRows([]string{"partner", "month", "task", "hours", "cost"}).
				AddRow("Acme", "2026-03", "Segmentation review", "4.5", "360.00"))

		efforts, err := svc.GetEfforts(context.Background(), " 2026-03 ", 200)
		require.NoError(t, err)
		require.Len(t, efforts, 1)
		assert.Equal(t, "Acme", efforts[0].Partner)
		assert.Equal(t, "4.5", efforts[0].Hours.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTicketSummary(t *testing.T) {
	it(func() {
		svc := NewCRMService(db)

		mock.ExpectQuery("SELECT status, COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
				AddRow("closed", 12).
				AddRow("open", 4))

		summary, err := svc.GetTicketSummary(context.Background())
		require.NoError(t, err)
		require.Len(t, summary, 2)
		assert.Equal(t, "closed", summary[0].Status)
		assert.Equal(t, 12, summary[0].Count)
	})
}

func TestGetNewsletterInsightsComputesRates(t *testing.T) {
	it(func() {
		svc := NewCRMService(db)

		mock.ExpectQuery("SELECT newsletter, month, sends, opens, clicks").
			WithArgs("2026-03", "2026-03", 200).
			WillReturnRows(sqlmock.NewRows([]string{"newsletter", "month", "sends", "opens", "clicks"}).
				AddRow("weekly-deals", "2026-03", 1000, 250, 50).
				AddRow("new-list", "2026-03", 0, 0, 0))

		insights, err := svc.GetNewsletterInsights(context.Background(), "2026-03", 200)
		require.NoError(t, err)
		require.Len(t, insights, 2)

		assert.Equal(t, "0.25", insights[0].OpenRate.String())
		assert.Equal(t, "0.05", insights[0].ClickRate.String())

		// Zero sends must not divide by zero.
		assert.True(t, insights[1].OpenRate.IsZero())
		assert.True(t, insights[1].ClickRate.IsZero())
	})
}

func TestGetWorklogs(t *testing.T) {
	it(func() {
		svc := NewCRMService(db)

		created := time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT id, author, partner, summary, minutes, created_at").
			WithArgs("acme", "acme", 100).
			WillReturnRows(sqlmock.NewRows([]string{"id", "author", "partner", "summary", "minutes", "created_at"}).
				AddRow(1, "jo", "acme", "Monthly plan call", 45, created))

		logs, err := svc.GetWorklogs(context.Background(), "Acme", 100)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "2026-03-12T09:30:00Z", logs[0].CreatedAt)
	})
}
