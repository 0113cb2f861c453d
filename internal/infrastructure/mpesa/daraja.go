package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

const (
	provider = "mpesa"

	SandboxURL    = "https://sandbox.safaricom.co.ke"
	ProductionURL = "https://api.safaricom.co.ke"

	callbackPath    = "/api/mpesa/callback"
	transactionType = "CustomerPayBillOnline"
	defaultTimeout  = 15 * time.Second
)

// eat is the timezone Daraja expects request timestamps in.
var eat = time.FixedZone("EAT", 3*60*60)

// Config holds the Daraja app credentials and Lipa na M-Pesa settings.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
	// CallbackBaseURL is the public origin of this API.
	CallbackBaseURL string
	Timeout         time.Duration
}

// Client implements ports.PaymentGateway over the Daraja STK push API.
// Access tokens are cached and refreshed by the oauth2 transport.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func NewClient(ctx context.Context, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	base := &http.Client{Timeout: cfg.Timeout}
	src := &tokenSource{
		ctx:    ctx,
		client: base,
		url:    cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials",
		key:    cfg.ConsumerKey,
		secret: cfg.ConsumerSecret,
		now:    time.Now,
	}

	hc := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), src)
	hc.Timeout = cfg.Timeout

	return &Client{cfg: cfg, http: hc, now: time.Now}
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkQueryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type errorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// STKPush prompts req.PhoneNumber (254XXXXXXXXX) to authorise a payment.
func (c *Client) STKPush(ctx context.Context, req ports.STKPushRequest) (*ports.STKPushResponse, error) {
	ts := c.timestamp()
	body := stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.PassKey, ts),
		Timestamp:         ts,
		TransactionType:   transactionType,
		Amount:            req.Amount,
		PartyA:            req.PhoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       strings.TrimRight(c.cfg.CallbackBaseURL, "/") + callbackPath,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Description,
	}

	var out ports.STKPushResponse
	if err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryStatus asks Daraja for the state of a pushed request.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (*ports.STKQueryResponse, error) {
	ts := c.timestamp()
	body := stkQueryRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.PassKey, ts),
		Timestamp:         ts,
		CheckoutRequestID: checkoutRequestID,
	}

	var out ports.STKQueryResponse
	if err := c.post(ctx, "/mpesa/stkpushquery/v1/query", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		var te *domain.TransportError
		if errors.As(err, &te) {
			return te
		}
		return &domain.TransportError{Provider: provider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &domain.TransportError{Provider: provider, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.ErrorMessage != "" {
			msg = e.ErrorMessage
		}
		return &domain.TransportError{Provider: provider, Code: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) timestamp() string {
	return c.now().In(eat).Format("20060102150405")
}

// Password builds the Lipa na M-Pesa password: base64(shortcode+passkey+timestamp).
func Password(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}
