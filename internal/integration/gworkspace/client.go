package gworkspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

// Config 服务账号 + 域范围委派，Subject 为代发邮箱
type Config struct {
	CredentialsFile string
	Subject         string
	CalendarID      string
}

// HTTPClient 以 Subject 身份签发的 OAuth2 客户端
func HTTPClient(ctx context.Context, cfg Config) (*http.Client, error) {
	if cfg.CredentialsFile == "" {
		return nil, errors.New("google: credentials file is required")
	}
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(b, gmail.GmailSendScope, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	conf.Subject = cfg.Subject
	return conf.Client(ctx), nil
}
