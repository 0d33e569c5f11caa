package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/salih12s/trucksbus-pwa/internal/platform"
)

// BackendPush implements platform.PushService against the push backend:
// it exchanges the VAPID public key for a delivery endpoint credential.
type BackendPush struct {
	client  *resty.Client
	baseURL string
	device  string
}

type subscribeResponse struct {
	Endpoint string            `json:"endpoint"`
	Keys     map[string]string `json:"keys"`
}

// NewBackendPush creates a push client for the given backend base URL.
func NewBackendPush(baseURL string) *BackendPush {
	return &BackendPush{
		client:  resty.New().SetTimeout(15 * time.Second),
		baseURL: baseURL,
		device:  uuid.New().String(),
	}
}

// Subscribe registers this installation with the push backend.
func (b *BackendPush) Subscribe(ctx context.Context, vapidKey string) (*platform.PushSubscription, error) {
	if b.baseURL == "" {
		return nil, platform.ErrUnavailable
	}
	if vapidKey == "" {
		return nil, fmt.Errorf("vapid public key not configured")
	}

	var out subscribeResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"application_server_key": vapidKey,
			"device_id":              b.device,
		}).
		SetResult(&out).
		Post(b.baseURL + "/push/subscribe")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("push backend refused subscription: %s", resp.Status())
	}
	if out.Endpoint == "" {
		return nil, fmt.Errorf("push backend returned no endpoint")
	}

	return &platform.PushSubscription{
		Endpoint:  out.Endpoint,
		Keys:      out.Keys,
		CreatedAt: time.Now(),
	}, nil
}
