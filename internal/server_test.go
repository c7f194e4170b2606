package internal

import (
	"context"
	"errors"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"net/url"
	"paybridge/config"
	"paybridge/entity"
	"paybridge/services"
	"strings"
	"testing"
	"time"
)

type fakePayments struct {
	checkoutErr    error
	requestResult  *entity.PaymentRequestResult
	statusResult   *entity.StatusUpdateResult
	returnResult   *entity.PaymentReturnResult
	invoiceNumber  string
	lookups        int
	externalName   string
	acceptLanguage string
	form           url.Values
	values         url.Values
}

func (f *fakePayments) LoadCheckout(_ context.Context, invoiceNumber, externalName, acceptLanguage string) (*services.Checkout, error) {
	f.invoiceNumber = invoiceNumber
	f.externalName = externalName
	f.acceptLanguage = acceptLanguage
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &services.Checkout{InvoiceNumber: invoiceNumber}, nil
}

func (f *fakePayments) HandlePaymentRequest(_ context.Context, _ *services.Checkout) *entity.PaymentRequestResult {
	return f.requestResult
}

func (f *fakePayments) ProcessStatusUpdate(_ context.Context, _ *entity.PaymentMethodSettings, form url.Values) *entity.StatusUpdateResult {
	f.form = form
	return f.statusResult
}

func (f *fakePayments) HandlePaymentReturn(_ context.Context, _ *entity.PaymentMethodSettings, values url.Values) *entity.PaymentReturnResult {
	f.values = values
	return f.returnResult
}

func (f *fakePayments) GetInvoiceNumberFromRequest(values url.Values) (string, error) {
	f.lookups++
	return values.Get(InvoiceNumberParameter), nil
}

func (f *fakePayments) GetPaymentMethodSettings(_ context.Context, externalName string) (*entity.PaymentMethodSettings, error) {
	return &entity.PaymentMethodSettings{ExternalName: externalName, Provider: testMollieSettings()}, nil
}

func testRouter(payments services.Payments) *httprouter.Router {
	server := NewServer(&config.Config{})
	server.SetPaymentsService(payments)
	server.SetLogger(nopLogger{})
	router := httprouter.New()
	server.Register(router)
	return router
}

func TestServerPayInvoice(t *testing.T) {
	payments := &fakePayments{requestResult: &entity.PaymentRequestResult{
		Successful: true,
		Action:     entity.ActionRedirect,
		ActionData: "https://pay.example.com/ord_1",
	}}
	router := testRouter(payments)

	req := httptest.NewRequest(http.MethodPost, "/pay/INV-1", strings.NewReader("method=ideal"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept-Language", "nl-NL")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://pay.example.com/ord_1", rec.Header().Get("Location"))
	assert.Equal(t, "INV-1", payments.invoiceNumber)
	assert.Equal(t, "ideal", payments.externalName)
	assert.Equal(t, "nl-NL", payments.acceptLanguage)
}

func TestServerPayInvoiceFailures(t *testing.T) {
	tests := []struct {
		name     string
		payments *fakePayments
		code     int
		location string
	}{
		{
			name:     "unknown invoice",
			payments: &fakePayments{checkoutErr: &CorrelationMiss{InvoiceNumber: "INV-1", Reason: "unknown invoice number"}},
			code:     http.StatusNotFound,
		},
		{
			name:     "store error",
			payments: &fakePayments{checkoutErr: errors.New("connection refused")},
			code:     http.StatusInternalServerError,
		},
		{
			name:     "failed with fail url",
			payments: &fakePayments{requestResult: &entity.PaymentRequestResult{Action: entity.ActionRedirect, ActionData: "https://shop.example.com/fail", ErrorMessage: "Unknown error"}},
			code:     http.StatusSeeOther,
			location: "https://shop.example.com/fail",
		},
		{
			name:     "failed without fail url",
			payments: &fakePayments{requestResult: &entity.PaymentRequestResult{Action: entity.ActionRedirect, ErrorMessage: "Unknown error"}},
			code:     http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			testRouter(tt.payments).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pay/INV-1?method=ideal", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestServerPaymentNotify(t *testing.T) {
	payments := &fakePayments{statusResult: &entity.StatusUpdateResult{Successful: true, Status: "paid", StatusCode: http.StatusOK}}
	router := testRouter(payments)

	req := httptest.NewRequest(http.MethodPost, "/webhook?invoice_number=INV-1", strings.NewReader("id=ord_1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ord_1", payments.form.Get("id"))
	assert.Equal(t, "INV-1", payments.form.Get(InvoiceNumberParameter))
}

func TestServerPaymentNotifyWithoutInvoiceNumber(t *testing.T) {
	payments := &fakePayments{statusResult: &entity.StatusUpdateResult{Successful: true, Status: "paid", StatusCode: http.StatusOK}}

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("id=ord_1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	testRouter(payments).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ord_1", payments.form.Get("id"))
	// the engine reads the invoice number itself; the handler only logs it
	assert.Zero(t, payments.lookups)
}

func TestServerPaymentNotifyStatusCodes(t *testing.T) {
	for _, tt := range []struct {
		result *entity.StatusUpdateResult
		code   int
	}{
		{&entity.StatusUpdateResult{Status: statusError}, http.StatusOK},
		{&entity.StatusUpdateResult{Status: "canceled", StatusCode: http.StatusOK}, http.StatusOK},
		{&entity.StatusUpdateResult{Status: statusError, StatusCode: http.StatusInternalServerError}, http.StatusInternalServerError},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("id=ord_1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		testRouter(&fakePayments{statusResult: tt.result}).ServeHTTP(rec, req)
		assert.Equal(t, tt.code, rec.Code, "status %s", tt.result.Status)
	}
}

func TestServerPaymentReturn(t *testing.T) {
	payments := &fakePayments{returnResult: &entity.PaymentReturnResult{Successful: true, Action: entity.ActionRedirect, ActionData: "https://shop.example.com/success"}}
	rec := httptest.NewRecorder()
	testRouter(payments).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/return?invoice_number=INV-1", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.example.com/success", rec.Header().Get("Location"))
	assert.Equal(t, "INV-1", payments.values.Get(InvoiceNumberParameter))

	rec = httptest.NewRecorder()
	testRouter(&fakePayments{returnResult: &entity.PaymentReturnResult{Action: entity.ActionRedirect}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/return", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(&fakePayments{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerStartWithoutConfig(t *testing.T) {
	server := NewServer(nil)
	assert.Error(t, server.Start())
}

func TestServerShutdown(t *testing.T) {
	conf := &config.Config{}
	conf.Listen.BindIP = "127.0.0.1"
	conf.Listen.Port = "0"
	server := NewServer(conf)
	server.SetLogger(nopLogger{})

	done := make(chan error, 1)
	go func() {
		done <- server.Start()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
