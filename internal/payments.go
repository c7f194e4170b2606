package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"paybridge/config"
	"paybridge/entity"
	"paybridge/services"
	"strings"
	"sync"
	"time"
)

const (
	statusPaid    = "paid"
	statusPending = "pending"
	statusError   = "error"
)

// Payments reconciles baskets with provider orders through three independent entry points:
// payment request, webhook and browser return.
// The struct holds no per-request state; everything about one invocation lives in a paymentCall.
type Payments struct {
	conf     *config.Config
	database services.Database
	logger   services.LogHandler
	pricing  services.Pricing
	gateway  services.OrderGateway
	locks    invoiceLocks
}

// paymentCall is the request-scoped state of one entry point invocation.
type paymentCall struct {
	invoiceNumber string
	statusCode    int
	url           string
	responseBody  string
	err           error
	incoming      bool
}

func (c *paymentCall) fail(statusCode int, err error) {
	c.statusCode = statusCode
	c.err = err
}

func NewPayments(conf *config.Config) *Payments {
	return &Payments{
		conf: conf,
	}
}

func (p *Payments) SetDatabase(database services.Database) {
	p.database = database
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
}

func (p *Payments) SetPricing(pricing services.Pricing) {
	p.pricing = pricing
}

func (p *Payments) SetGateway(gateway services.OrderGateway) {
	p.gateway = gateway
}

// LoadCheckout collects the baskets, user details and payment method of an invoice.
func (p *Payments) LoadCheckout(ctx context.Context, invoiceNumber, externalName, acceptLanguage string) (*services.Checkout, error) {
	if p.database == nil {
		return nil, fmt.Errorf("database not set")
	}
	baskets, err := p.database.GetOrdersByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("get baskets: %w", err)
	}
	if len(baskets) == 0 {
		return nil, &CorrelationMiss{InvoiceNumber: invoiceNumber, Reason: "unknown invoice number"}
	}
	userDetails, err := p.database.GetUserDetails(ctx, baskets[0].Main.GetDetailValue(entity.UserIdProperty))
	if err != nil {
		return nil, fmt.Errorf("get user details: %w", err)
	}
	method, err := p.GetPaymentMethodSettings(ctx, externalName)
	if err != nil {
		return nil, err
	}
	return &services.Checkout{
		Baskets:        baskets,
		UserDetails:    userDetails,
		PaymentMethod:  method,
		InvoiceNumber:  invoiceNumber,
		AcceptLanguage: acceptLanguage,
	}, nil
}

func (p *Payments) GetPaymentMethodSettings(ctx context.Context, externalName string) (*entity.PaymentMethodSettings, error) {
	return NewSettingsLoader(p.conf, p.database).GetPaymentMethodSettings(ctx, externalName)
}

// HandlePaymentRequest creates the provider order for the checkout and returns the redirect to the hosted checkout.
func (p *Payments) HandlePaymentRequest(ctx context.Context, checkout *services.Checkout) (result *entity.PaymentRequestResult) {
	call := &paymentCall{invoiceNumber: checkout.InvoiceNumber, url: "orders"}
	failUrl := redirectsOf(checkout.PaymentMethod).FailUrl
	defer p.finish(ctx, call)
	defer func() {
		if r := recover(); r != nil {
			err := &UnexpectedError{Err: fmt.Errorf("panic: %v", r)}
			p.logger.Error("panic in payment request", err)
			call.fail(http.StatusInternalServerError, err)
			result = p.requestFailed(failUrl, err)
		}
	}()

	settings, err := mollieSettings(checkout.PaymentMethod)
	if err != nil {
		p.logger.Error(fmt.Sprintf("payment request %s", checkout.InvoiceNumber), err)
		call.fail(0, err)
		return &entity.PaymentRequestResult{Action: entity.ActionRedirect, ActionData: failUrl}
	}

	p.logger.Info(fmt.Sprintf("payment request %s: %d basket(s), method %s", checkout.InvoiceNumber, len(checkout.Baskets), checkout.PaymentMethod.ExternalName))

	settings.Locale = NewLocaleResolver(p.database, p.logger).Resolve(ctx, checkout.AcceptLanguage)

	request, err := NewOrderBuilder(p.pricing).BuildOrderRequest(ctx, checkout, settings)
	if err != nil {
		p.logger.Error(fmt.Sprintf("build order request %s", checkout.InvoiceNumber), err)
		call.fail(http.StatusInternalServerError, err)
		return p.requestFailed(failUrl, err)
	}

	order, err := p.gateway.CreateOrder(ctx, services.ProviderCall{ApiKey: settings.ApiKey, InvoiceNumber: checkout.InvoiceNumber}, request)
	if err != nil {
		p.logger.Error(fmt.Sprintf("create order %s", checkout.InvoiceNumber), err)
		call.fail(http.StatusInternalServerError, err)
		return p.requestFailed(failUrl, err)
	}
	call.responseBody = snapshotJson(order)

	checkoutUrl := order.CheckoutUrl()
	if checkoutUrl == "" {
		err = &ProviderError{StatusCode: http.StatusOK, Err: fmt.Errorf("order %s has no checkout link", order.Id)}
		call.fail(http.StatusInternalServerError, err)
		return p.requestFailed(failUrl, err)
	}

	if err = p.recordStatus(ctx, checkout.InvoiceNumber, checkout.Baskets, order); err != nil {
		p.logger.Error(fmt.Sprintf("record order %s", order.Id), err)
		call.fail(http.StatusInternalServerError, err)
		return p.requestFailed(failUrl, err)
	}

	call.statusCode = http.StatusOK
	return &entity.PaymentRequestResult{
		Successful: true,
		Action:     entity.ActionRedirect,
		ActionData: checkoutUrl,
	}
}

func (p *Payments) requestFailed(failUrl string, err error) *entity.PaymentRequestResult {
	return &entity.PaymentRequestResult{
		Action:       entity.ActionRedirect,
		ActionData:   failUrl,
		ErrorMessage: errorMessage(err),
	}
}

// ProcessStatusUpdate handles the provider webhook. The posted form carries only the provider order id;
// the status is always fetched from the provider.
func (p *Payments) ProcessStatusUpdate(ctx context.Context, method *entity.PaymentMethodSettings, form url.Values) (result *entity.StatusUpdateResult) {
	call := &paymentCall{incoming: true, url: "webhook", invoiceNumber: strings.TrimSpace(form.Get(InvoiceNumberParameter))}
	defer p.finish(ctx, call)
	defer func() {
		if r := recover(); r != nil {
			err := &UnexpectedError{Err: fmt.Errorf("panic: %v", r)}
			p.logger.Error("panic in status update", err)
			call.fail(http.StatusInternalServerError, err)
			result = &entity.StatusUpdateResult{Status: statusError, StatusCode: http.StatusInternalServerError}
		}
	}()

	settings, err := mollieSettings(method)
	if err != nil {
		p.logger.Error("status update", err)
		// redelivered by the provider once the settings are fixed
		call.fail(http.StatusInternalServerError, err)
		return &entity.StatusUpdateResult{Status: statusError, StatusCode: http.StatusInternalServerError}
	}

	orderId := strings.TrimSpace(form.Get("id"))
	if orderId == "" {
		err = &CorrelationMiss{Reason: "no id found in request"}
		p.logger.Warn("status update: " + err.Error())
		call.fail(0, err)
		return &entity.StatusUpdateResult{Status: statusError}
	}

	order, err := p.gateway.FetchOrder(ctx, services.ProviderCall{ApiKey: settings.ApiKey, InvoiceNumber: call.invoiceNumber}, orderId)
	if err != nil {
		p.logger.Error(fmt.Sprintf("status update: fetch order %s", orderId), err)
		call.fail(http.StatusInternalServerError, err)
		return &entity.StatusUpdateResult{Status: statusError, StatusCode: http.StatusInternalServerError}
	}

	// metadata is the primary channel; the webhook url query is the fallback
	if invoiceNumber := order.Metadata(); invoiceNumber != "" {
		call.invoiceNumber = invoiceNumber
	}
	call.statusCode = http.StatusOK
	call.responseBody = snapshotJson(order)

	if err = p.reconcile(ctx, call.invoiceNumber, order); err != nil {
		var miss *CorrelationMiss
		if !errors.As(err, &miss) {
			p.logger.Error(fmt.Sprintf("status update: reconcile %s", call.invoiceNumber), err)
			call.fail(http.StatusInternalServerError, err)
			return &entity.StatusUpdateResult{Status: order.Status, StatusCode: http.StatusInternalServerError}
		}
		p.logger.Warn("status update: " + err.Error())
	}

	return &entity.StatusUpdateResult{
		Successful: strings.EqualFold(order.Status, statusPaid),
		Status:     order.Status,
		StatusCode: http.StatusOK,
	}
}

// HandlePaymentReturn decides where to send the customer after checkout, based on the provider's current status.
func (p *Payments) HandlePaymentReturn(ctx context.Context, method *entity.PaymentMethodSettings, values url.Values) (result *entity.PaymentReturnResult) {
	call := &paymentCall{incoming: true, url: "return", invoiceNumber: strings.TrimSpace(values.Get(InvoiceNumberParameter))}
	redirects := redirectsOf(method)
	failed := &entity.PaymentReturnResult{Action: entity.ActionRedirect, ActionData: redirects.FailUrl}

	defer p.finish(ctx, call)
	defer func() {
		if r := recover(); r != nil {
			err := &UnexpectedError{Err: fmt.Errorf("panic: %v", r)}
			p.logger.Error("panic in payment return", err)
			call.fail(http.StatusInternalServerError, err)
			result = failed
		}
	}()

	settings, err := mollieSettings(method)
	if err != nil {
		p.logger.Error("payment return", err)
		call.fail(0, err)
		return failed
	}

	if call.invoiceNumber == "" {
		call.fail(0, &CorrelationMiss{Reason: "no invoice number in request"})
		p.logger.Warn("payment return: " + call.err.Error())
		return failed
	}

	baskets, err := p.database.GetOrdersByInvoiceNumber(ctx, call.invoiceNumber)
	if err != nil {
		p.logger.Error(fmt.Sprintf("payment return: get baskets %s", call.invoiceNumber), err)
		call.fail(http.StatusInternalServerError, &UnexpectedError{Err: err})
		return failed
	}
	if len(baskets) == 0 {
		call.fail(0, &CorrelationMiss{InvoiceNumber: call.invoiceNumber, Reason: "unknown invoice number"})
		p.logger.Warn("payment return: " + call.err.Error())
		return failed
	}

	// all baskets of one invoice share one provider order
	orderId := baskets[0].Main.GetDetailValue(entity.TransactionIdProperty)
	order, err := p.gateway.FetchOrder(ctx, services.ProviderCall{ApiKey: settings.ApiKey, InvoiceNumber: call.invoiceNumber}, orderId)
	if err != nil {
		p.logger.Error(fmt.Sprintf("payment return: fetch order %s", orderId), err)
		statusCode := 0
		var providerError *ProviderError
		if errors.As(err, &providerError) {
			statusCode = providerError.StatusCode
		}
		call.fail(statusCode, err)
		return failed
	}
	call.statusCode = http.StatusOK
	call.responseBody = snapshotJson(order)

	if err = p.reconcile(ctx, call.invoiceNumber, order); err != nil {
		p.logger.Error(fmt.Sprintf("payment return: reconcile %s", call.invoiceNumber), err)
	}

	pendingUrl := redirects.PendingUrl
	if pendingUrl == "" {
		pendingUrl = redirects.SuccessUrl
	}
	switch strings.ToLower(order.Status) {
	case statusPaid:
		return &entity.PaymentReturnResult{Successful: true, Action: entity.ActionRedirect, ActionData: redirects.SuccessUrl}
	case statusPending:
		return &entity.PaymentReturnResult{Successful: true, Action: entity.ActionRedirect, ActionData: pendingUrl}
	}
	return failed
}

// GetInvoiceNumberFromRequest reads the invoice number posted or appended to a callback.
func (p *Payments) GetInvoiceNumberFromRequest(values url.Values) (string, error) {
	invoiceNumber := strings.TrimSpace(values.Get(InvoiceNumberParameter))
	if invoiceNumber == "" {
		err := &CorrelationMiss{Reason: "no invoice number found in request"}
		p.logger.Warn("get invoice number from request: " + err.Error())
		return "", err
	}
	return invoiceNumber, nil
}

// recordStatus stores the order created for the checkout on each of its baskets.
func (p *Payments) recordStatus(ctx context.Context, invoiceNumber string, baskets []*entity.Basket, order *entity.OrderSnapshot) error {
	unlock := p.locks.lock(invoiceNumber)
	defer unlock()

	audit := NewAuditTrail(p.database)
	for _, basket := range baskets {
		if err := audit.AppendStatus(ctx, basket, order.Id, order.Status); err != nil {
			return err
		}
	}
	return nil
}

// reconcile appends the provider status to the baskets of the invoice when it differs from what they hold.
func (p *Payments) reconcile(ctx context.Context, invoiceNumber string, order *entity.OrderSnapshot) error {
	if invoiceNumber == "" {
		return &CorrelationMiss{Reason: fmt.Sprintf("order %s carries no invoice number", order.Id)}
	}
	unlock := p.locks.lock(invoiceNumber)
	defer unlock()

	baskets, err := p.database.GetOrdersByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return fmt.Errorf("get baskets: %w", err)
	}
	if len(baskets) == 0 {
		return &CorrelationMiss{InvoiceNumber: invoiceNumber, Reason: "unknown invoice number"}
	}

	audit := NewAuditTrail(p.database)
	for _, basket := range baskets {
		if basket.Main.GetDetailValue(entity.TransactionIdProperty) == order.Id &&
			basket.Main.GetDetailValue(entity.TransactionStatusProperty) == order.Status {
			continue
		}
		if err = audit.AppendStatus(ctx, basket, order.Id, order.Status); err != nil {
			return err
		}
		p.logger.Info(fmt.Sprintf("basket %s: order %s is %s", basket.Main.Id, order.Id, order.Status))
	}
	return nil
}

// finish writes the single log record of an entry point invocation.
func (p *Payments) finish(ctx context.Context, call *paymentCall) {
	record := &entity.ProviderLog{
		Provider:      providerName,
		InvoiceNumber: call.invoiceNumber,
		StatusCode:    call.statusCode,
		Url:           call.url,
		ResponseBody:  call.responseBody,
		IsIncoming:    call.incoming,
		Time:          time.Now(),
	}
	if call.err != nil {
		record.Error = call.err.Error()
	}
	if p.database == nil {
		return
	}
	if err := p.database.WriteLogMessage(context.WithoutCancel(ctx), record); err != nil {
		p.logger.Error("write payment log", err)
	}
}

func redirectsOf(method *entity.PaymentMethodSettings) entity.RedirectUrls {
	if method == nil || method.Provider == nil {
		return entity.RedirectUrls{}
	}
	return method.Provider.Redirects()
}

// mollieSettings resolves the provider payload once per entry point and returns a copy the caller may modify.
func mollieSettings(method *entity.PaymentMethodSettings) (*entity.MollieSettings, error) {
	if method == nil || method.Provider == nil {
		return nil, &ValidationError{Reason: "no payment provider settings"}
	}
	settings, ok := method.Provider.(*entity.MollieSettings)
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unsupported payment provider %s", method.Provider.ProviderName())}
	}
	copied := *settings
	var invalid []string
	if strings.TrimSpace(copied.ApiKey) == "" {
		invalid = append(invalid, "ApiKey")
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{Fields: invalid}
	}
	return &copied, nil
}

func snapshotJson(order *entity.OrderSnapshot) string {
	data, err := json.Marshal(order)
	if err != nil {
		return ""
	}
	return string(data)
}

// invoiceLocks serializes basket updates per invoice number within this process.
type invoiceLocks struct {
	mutex sync.Mutex
	locks map[string]*invoiceLock
}

type invoiceLock struct {
	sync.Mutex
	refs int
}

func (l *invoiceLocks) lock(key string) func() {
	l.mutex.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*invoiceLock)
	}
	entry, ok := l.locks[key]
	if !ok {
		entry = &invoiceLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mutex.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mutex.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mutex.Unlock()
	}
}
