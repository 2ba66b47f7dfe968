package domain

import (
	"strings"
	"time"
)

const (
	BusinessEcommerce = "ecommerce"
	BusinessService   = "service"
)

type Profile struct {
	Email        string
	Name         string
	ClientID     string
	BusinessType string
	TokenRef     string
	LoggedInAt   time.Time
}

func (p Profile) IsEcommerce() bool {
	return p.BusinessType == BusinessEcommerce
}

func (p Profile) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.Email
}

// ClassifyBusinessType resolves the dashboard flavour for an account. A few
// addresses are pinned to ecommerce regardless of what the server reports.
func ClassifyBusinessType(email, serverValue string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "admin@delitech.com" ||
		strings.HasPrefix(normalized, "ecom@") ||
		strings.HasSuffix(normalized, "@ecom.com") {
		return BusinessEcommerce
	}

	switch value := strings.ToLower(strings.TrimSpace(serverValue)); value {
	case "":
		return BusinessService
	default:
		return value
	}
}

func TokenRefForEmail(email string) string {
	return "wadash/token/" + strings.ToLower(strings.TrimSpace(email))
}
