package turnstile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"blog-backend/internal/config"
	"blog-backend/internal/logutil"
)

// Error codes produced locally, without calling the service
const (
	CodeMissingInputResponse = "missing-input-response"
	CodeSecretNotSet         = "turnstile secret key not set"
	CodeAPIError             = "turnstile API error"
)

// ResponseField is the form field the widget fills in
const ResponseField = "cf-turnstile-response"

// Outcome is the result of one verification
type Outcome struct {
	Success    bool
	ErrorCodes []string
}

func failure(codes ...string) Outcome {
	return Outcome{Success: false, ErrorCodes: codes}
}

// Reason joins the error codes for display
func (o Outcome) Reason() string {
	return strings.Join(o.ErrorCodes, ", ")
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
	Action     string   `json:"action"`
}

// Verifier checks challenge responses against the siteverify endpoint
type Verifier struct {
	verifyURL  string
	widgets    map[string]config.Widget
	httpClient *http.Client
}

// NewVerifier creates a verifier with an explicit request timeout
func NewVerifier(cfg config.Turnstile) *Verifier {
	widgets := make(map[string]config.Widget, len(cfg.Widgets))
	for name, w := range cfg.Widgets {
		widgets[name] = w
	}
	return &Verifier{
		verifyURL: cfg.VerifyURL,
		widgets:   widgets,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SiteKey returns the public key of a widget, empty if unknown
func (v *Verifier) SiteKey(widget string) string {
	if widget == "" {
		widget = config.DefaultWidget
	}
	return v.widgets[widget].SiteKey
}

// Verify checks response for the named widget. It never returns an error:
// transport and protocol failures become a failed Outcome with a diagnostic.
func (v *Verifier) Verify(ctx context.Context, widget, response, remoteIP string) Outcome {
	if response == "" {
		return failure(CodeMissingInputResponse)
	}

	if widget == "" {
		widget = config.DefaultWidget
	}
	w, ok := v.widgets[widget]
	if !ok || w.SecretKey == "" {
		return failure(CodeSecretNotSet)
	}

	log := logutil.GetOrDefault(ctx)
	result, err := v.siteverify(ctx, w.SecretKey, response, remoteIP)
	if err != nil {
		log.Warn().Err(err).Str("widget", widget).Msg("Challenge verification call failed")
		return failure(err.Error())
	}

	if !result.Success {
		if len(result.ErrorCodes) == 0 {
			return failure(CodeAPIError)
		}
		log.Info().Strs("error_codes", result.ErrorCodes).Str("widget", widget).Msg("Challenge rejected")
		return failure(result.ErrorCodes...)
	}
	return Outcome{Success: true, ErrorCodes: result.ErrorCodes}
}

func (v *Verifier) siteverify(ctx context.Context, secret, response, remoteIP string) (*siteverifyResponse, error) {
	form := url.Values{}
	form.Set("secret", secret)
	form.Set("response", response)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var result siteverifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
