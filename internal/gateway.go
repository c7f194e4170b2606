package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"paybridge/config"
	"paybridge/entity"
	"paybridge/services"
	"strings"
	"time"
)

const providerName = "mollie"

// Gateway is the HTTP client of the provider order API.
// Every call leaves one provider log record, whatever the outcome.
type Gateway struct {
	baseUrl    string
	httpClient *http.Client
	database   services.Database
	logger     services.LogHandler
}

// NewGateway creates the order API client with a pooled transport and a request timeout.
func NewGateway(conf *config.Config) *Gateway {
	timeout := conf.Mollie.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		baseUrl: strings.TrimRight(conf.Mollie.BaseUrl, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (g *Gateway) SetDatabase(database services.Database) {
	g.database = database
}

func (g *Gateway) SetLogger(logger services.LogHandler) {
	g.logger = logger
}

func (g *Gateway) CreateOrder(ctx context.Context, call services.ProviderCall, request *entity.OrderRequest) (*entity.OrderSnapshot, error) {
	endpoint := g.baseUrl + "/orders"
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, g.rejected(ctx, call, http.MethodPost, endpoint, &UnexpectedError{Err: fmt.Errorf("encode order request: %w", err)})
	}
	return g.do(ctx, call, http.MethodPost, endpoint, payload)
}

func (g *Gateway) FetchOrder(ctx context.Context, call services.ProviderCall, orderId string) (*entity.OrderSnapshot, error) {
	endpoint := g.baseUrl + "/orders/" + url.PathEscape(orderId)
	if orderId == "" {
		return nil, g.rejected(ctx, call, http.MethodGet, endpoint, &CorrelationMiss{InvoiceNumber: call.InvoiceNumber, Reason: "no provider order id"})
	}
	return g.do(ctx, call, http.MethodGet, endpoint, nil)
}

// rejected logs a call that failed before reaching the provider and returns err.
func (g *Gateway) rejected(ctx context.Context, call services.ProviderCall, method, endpoint string, err error) error {
	record := newProviderLog(call, endpoint, nil)
	record.Error = err.Error()
	g.writeLog(context.WithoutCancel(ctx), method, record)
	return err
}

func (g *Gateway) do(ctx context.Context, call services.ProviderCall, method, endpoint string, payload []byte) (snapshot *entity.OrderSnapshot, err error) {
	record := newProviderLog(call, endpoint, payload)
	defer func() {
		if err != nil {
			record.Error = err.Error()
		}
		g.writeLog(context.WithoutCancel(ctx), method, record)
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("create http request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+call.ApiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	response, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ProviderError{Err: fmt.Errorf("request timeout or cancelled: %w", ctx.Err())}
		}
		return nil, &ProviderError{Err: err}
	}
	defer func(Body io.ReadCloser) {
		if e := Body.Close(); e != nil && g.logger != nil {
			g.logger.Error("close response body", e)
		}
	}(response.Body)

	record.StatusCode = response.StatusCode
	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &ProviderError{StatusCode: response.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}
	record.ResponseBody = string(responseBody)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, newProviderError(response.StatusCode, responseBody)
	}

	var order entity.OrderSnapshot
	if err = json.Unmarshal(responseBody, &order); err != nil {
		return nil, &ProviderError{StatusCode: response.StatusCode, Body: string(responseBody), Err: fmt.Errorf("decode order: %w", err)}
	}
	if order.Id == "" {
		return nil, &ProviderError{StatusCode: response.StatusCode, Body: string(responseBody), Err: fmt.Errorf("order without id")}
	}
	return &order, nil
}

func newProviderLog(call services.ProviderCall, endpoint string, payload []byte) *entity.ProviderLog {
	return &entity.ProviderLog{
		Provider:      providerName,
		InvoiceNumber: call.InvoiceNumber,
		Url:           endpoint,
		RequestBody:   string(payload),
		Time:          time.Now(),
	}
}

func (g *Gateway) writeLog(ctx context.Context, method string, record *entity.ProviderLog) {
	if g.logger != nil {
		text := fmt.Sprintf("%s %s: invoice %s; status %d", method, record.Url, record.InvoiceNumber, record.StatusCode)
		if record.Error != "" {
			g.logger.Warn(fmt.Sprintf("%s; error: %s", text, record.Error))
		} else {
			g.logger.Info(text)
		}
		g.logger.Debug(fmt.Sprintf("response body: %s", record.ResponseBody))
	}
	if g.database == nil {
		return
	}
	if err := g.database.WriteLogMessage(ctx, record); err != nil && g.logger != nil {
		g.logger.Error("write provider log", err)
	}
}
