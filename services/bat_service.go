package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"

	"campaign-dashboard/doctorsender"
	"campaign-dashboard/email"
	"campaign-dashboard/metrics"
	"campaign-dashboard/models"
)

// EventPublisher is the slice of the RabbitMQ publisher the workflow needs.
type EventPublisher interface {
	Publish(message interface{}) error
}

// BatService drives the campaign delivery workflow:
//
//	draft → bat_sent → approved → scheduled
//
// with a reject path from bat_sent back to draft. Every transition is
// persisted, mirrored to DoctorSender where applicable, and announced on the
// campaign-events exchange.
type BatService struct {
	db        *sql.DB
	ds        *doctorsender.Client
	notifier  *email.Notifier
	publisher EventPublisher
}

// NewBatService wires the workflow service. notifier and publisher may be
// nil when SendGrid / RabbitMQ are not configured; transitions still work,
// only the side notifications are skipped.
func NewBatService(db *sql.DB, ds *doctorsender.Client, notifier *email.Notifier, publisher EventPublisher) *BatService {
	return &BatService{db: db, ds: ds, notifier: notifier, publisher: publisher}
}

// ValidTransition reports whether the workflow allows moving a campaign from
// one status to another.
func ValidTransition(from, to string) bool {
	switch from {
	case models.CampaignStatusDraft:
		return to == models.CampaignStatusBatSent
	case models.CampaignStatusBatSent:
		return to == models.CampaignStatusApproved || to == models.CampaignStatusDraft
	case models.CampaignStatusApproved:
		return to == models.CampaignStatusScheduled
	}
	return false
}

type campaignState struct {
	name         string
	status       string
	dsCampaignID sql.NullString
}

func (s *BatService) loadState(ctx context.Context, campaignID int64) (*campaignState, error) {
	var st campaignState
	err := s.db.QueryRowContext(ctx,
		"SELECT name, status, ds_campaign_id FROM campaigns WHERE id = ?",
		campaignID).Scan(&st.name, &st.status, &st.dsCampaignID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("campaign %d not found", campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign %d: %w", campaignID, err)
	}
	return &st, nil
}

func (s *BatService) transition(ctx context.Context, campaignID int64, from, to, actor string) error {
	if !ValidTransition(from, to) {
		return fmt.Errorf("invalid transition %s → %s for campaign %d", from, to, campaignID)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE campaigns SET status = ? WHERE id = ? AND status = ?",
		to, campaignID, from)
	if err != nil {
		return fmt.Errorf("failed to update campaign status: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows != 1 {
		return fmt.Errorf("campaign %d is no longer in status %s", campaignID, from)
	}

	metrics.BatTransitionsTotal.WithLabelValues(to).Inc()

	if s.publisher != nil {
		event := models.CampaignEvent{
			CampaignID: campaignID,
			FromStatus: from,
			ToStatus:   to,
			Actor:      actor,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.publisher.Publish(event); err != nil {
			// The transition itself is committed; the event stream is
			// best-effort.
			log.Warnf("Failed to publish campaign event for %d: %v", campaignID, err)
		}
	}
	return nil
}

// SendBat creates the campaign on DoctorSender if needed, triggers a BAT
// test send to the reviewers, and moves the campaign to bat_sent.
func (s *BatService) SendBat(ctx context.Context, campaignID int64, recipients []string, actor string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one BAT recipient is required")
	}

	st, err := s.loadState(ctx, campaignID)
	if err != nil {
		return err
	}
	if !ValidTransition(st.status, models.CampaignStatusBatSent) {
		return fmt.Errorf("campaign %d is in status %s, cannot send BAT", campaignID, st.status)
	}

	dsID := st.dsCampaignID.String
	if dsID == "" {
		resp, err := s.ds.CreateCampaign(ctx, doctorsender.CampaignRequest{
			Name: st.name,
		})
		if err != nil {
			return fmt.Errorf("failed to create DoctorSender campaign: %w", err)
		}
		dsID = resp.CampaignID

		if _, err := s.db.ExecContext(ctx,
			"UPDATE campaigns SET ds_campaign_id = ? WHERE id = ?",
			dsID, campaignID); err != nil {
			return fmt.Errorf("failed to store DoctorSender campaign id: %w", err)
		}
	}

	if err := s.ds.SendBat(ctx, dsID, recipients); err != nil {
		return fmt.Errorf("failed to send BAT: %w", err)
	}

	if err := s.transition(ctx, campaignID, st.status, models.CampaignStatusBatSent, actor); err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyBatSent(recipients, st.name, dsID); err != nil {
			log.Warnf("Failed to notify BAT reviewers for campaign %d: %v", campaignID, err)
		}
	}

	log.Infof("BAT sent for campaign %d (%s) to %d reviewers", campaignID, st.name, len(recipients))
	return nil
}

// Approve moves a campaign from bat_sent to approved.
func (s *BatService) Approve(ctx context.Context, campaignID int64, actor string) error {
	st, err := s.loadState(ctx, campaignID)
	if err != nil {
		return err
	}
	return s.transition(ctx, campaignID, st.status, models.CampaignStatusApproved, actor)
}

// Reject sends a campaign from bat_sent back to draft for rework.
func (s *BatService) Reject(ctx context.Context, campaignID int64, actor string) error {
	st, err := s.loadState(ctx, campaignID)
	if err != nil {
		return err
	}
	if st.status != models.CampaignStatusBatSent {
		return fmt.Errorf("campaign %d is in status %s, cannot reject", campaignID, st.status)
	}
	return s.transition(ctx, campaignID, st.status, models.CampaignStatusDraft, actor)
}

// Schedule schedules an approved campaign for delivery on DoctorSender and
// moves it to scheduled. notify lists addresses to confirm to; may be empty.
func (s *BatService) Schedule(ctx context.Context, campaignID int64, sendAt time.Time, notify []string, actor string) error {
	st, err := s.loadState(ctx, campaignID)
	if err != nil {
		return err
	}
	if !ValidTransition(st.status, models.CampaignStatusScheduled) {
		return fmt.Errorf("campaign %d is in status %s, cannot schedule", campaignID, st.status)
	}
	if st.dsCampaignID.String == "" {
		return fmt.Errorf("campaign %d has no DoctorSender campaign", campaignID)
	}
	if !sendAt.After(time.Now()) {
		return fmt.Errorf("send_at must be in the future")
	}

	if _, err := s.ds.ScheduleCampaign(ctx, st.dsCampaignID.String, sendAt); err != nil {
		return fmt.Errorf("failed to schedule on DoctorSender: %w", err)
	}

	if err := s.transition(ctx, campaignID, st.status, models.CampaignStatusScheduled, actor); err != nil {
		return err
	}

	if s.notifier != nil && len(notify) > 0 {
		if err := s.notifier.NotifyScheduled(notify, st.name, sendAt.UTC().Format(time.RFC3339)); err != nil {
			log.Warnf("Failed to send schedule confirmation for campaign %d: %v", campaignID, err)
		}
	}

	log.Infof("Campaign %d scheduled for %s", campaignID, sendAt.UTC().Format(time.RFC3339))
	return nil
}
