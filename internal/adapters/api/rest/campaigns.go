package rest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

const defaultTemplateName = "unspecified"

var ErrCampaignFileRequired = errors.New("campaign file is required")

type campaignResponse struct {
	ID           string `json:"_id"`
	AltID        string `json:"id"`
	Name         string `json:"name"`
	TemplateName string `json:"templateName"`
	Recipients   int    `json:"recipients"`
	AudienceSize int    `json:"audienceCount"`
	Status       string `json:"status"`
}

func (r campaignResponse) campaign() domain.Campaign {
	out := domain.Campaign{
		ID:           r.ID,
		Name:         r.Name,
		TemplateName: r.TemplateName,
		Recipients:   r.Recipients,
		Status:       r.Status,
	}
	if out.ID == "" {
		out.ID = r.AltID
	}
	if out.Recipients == 0 {
		out.Recipients = r.AudienceSize
	}
	return out
}

// UploadCampaign posts a recipient CSV as multipart form data. The campaign
// name defaults to the file name without its .csv extension.
func (c *Client) UploadCampaign(ctx context.Context, upload ports.CampaignUpload) (domain.Campaign, error) {
	if upload.Content == nil || strings.TrimSpace(upload.FileName) == "" {
		return domain.Campaign{}, ErrCampaignFileRequired
	}

	fileName := filepath.Base(upload.FileName)
	name := upload.Name
	if name == "" {
		name = strings.TrimSuffix(fileName, ".csv")
	}
	templateName := upload.TemplateName
	if templateName == "" {
		templateName = defaultTemplateName
	}

	req, err := c.request(ctx)
	if err != nil {
		return domain.Campaign{}, err
	}

	var body campaignResponse
	resp, err := req.
		SetFileReader("file", fileName, upload.Content).
		SetFormData(map[string]string{
			"name":         name,
			"templateName": templateName,
		}).
		Post("/campaigns")
	if err := c.check(ctx, resp, err); err != nil {
		return domain.Campaign{}, fmt.Errorf("upload campaign %s: %w", fileName, err)
	}
	if err := decodeBody(resp.Body(), &body); err != nil {
		return domain.Campaign{}, fmt.Errorf("decode campaign %s: %w", fileName, err)
	}
	return body.campaign(), nil
}

type startCampaignRequest struct {
	CampaignID   string `json:"campaignId"`
	TemplateType string `json:"templateType"`
}

func (c *Client) StartCampaign(ctx context.Context, campaignID, templateType string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetBody(startCampaignRequest{CampaignID: campaignID, TemplateType: templateType}).
		Post("/campaigns/start")
	if err := c.check(ctx, resp, err); err != nil {
		return fmt.Errorf("start campaign %s: %w", campaignID, err)
	}
	return nil
}
