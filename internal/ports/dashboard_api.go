package ports

import (
	"context"
	"io"

	"github.com/bnema/wadash/internal/domain"
)

type CampaignUpload struct {
	FileName     string
	Name         string
	TemplateName string
	Content      io.Reader
}

// StatsSource fetches the aggregate counters shown on the dashboard home.
type StatsSource interface {
	RealtimeStats(ctx context.Context, clientID string) (domain.RealtimeStats, error)
}

type DashboardAPI interface {
	EntitySource
	StatsSource

	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
	SendMessage(ctx context.Context, conversationID, content string) (domain.Message, error)
	Takeover(ctx context.Context, conversationID string) error
	Release(ctx context.Context, conversationID string) error

	DeleteAppointment(ctx context.Context, id string) error
	LeadDetails(ctx context.Context, id string) (domain.LeadDetails, error)

	DailyStats(ctx context.Context, days int) ([]domain.DailyStats, error)

	UploadCampaign(ctx context.Context, upload CampaignUpload) (domain.Campaign, error)
	StartCampaign(ctx context.Context, campaignID, templateType string) error
}
