package internal

import (
	"context"
	"errors"
	"fmt"
	"github.com/julienschmidt/httprouter"
	"net"
	"net/http"
	"paybridge/config"
	"paybridge/services"
	"time"
)

const (
	payInvoice    = "/pay/:invoice_number"
	paymentNotify = "/webhook"
	paymentReturn = "/return"
	health        = "/health"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	payments   services.Payments
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}

	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(payInvoice, s.payInvoice)
	router.POST(paymentNotify, s.paymentNotify)
	router.GET(paymentReturn, s.paymentReturn)
	router.GET(health, s.health)
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for running handlers until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) payInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, reqID := requestScope(w, r)

	invoiceNumber := ps.ByName("invoice_number")
	if invoiceNumber == "" {
		s.logger.Warn(fmt.Sprintf("[%s] empty invoice number", reqID))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] pay %s: parse form: %v", reqID, invoiceNumber, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	checkout, err := s.payments.LoadCheckout(ctx, invoiceNumber, r.Form.Get("method"), r.Header.Get("Accept-Language"))
	if err != nil {
		var miss *CorrelationMiss
		if errors.As(err, &miss) {
			s.logger.Warn(fmt.Sprintf("[%s] pay: %v", reqID, err))
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.logger.Error(fmt.Sprintf("[%s] pay %s: load checkout", reqID, invoiceNumber), err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	result := s.payments.HandlePaymentRequest(ctx, checkout)
	if !result.Successful {
		s.logger.Warn(fmt.Sprintf("[%s] pay %s failed: %s", reqID, invoiceNumber, result.ErrorMessage))
	}
	if result.ActionData == "" {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, result.ActionData, http.StatusSeeOther)
}

func (s *Server) paymentNotify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, reqID := requestScope(w, r)

	// the form holds the posted order id and the invoice number from the webhook url query
	if err := r.ParseForm(); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment notify: parse form", reqID), err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	method, err := s.payments.GetPaymentMethodSettings(ctx, "")
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment notify: settings", reqID), err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	invoiceNumber := r.Form.Get(InvoiceNumberParameter)
	result := s.payments.ProcessStatusUpdate(ctx, method, r.Form)
	s.logger.Info(fmt.Sprintf("[%s] payment notify: invoice %s; status %s; successful %v", reqID, invoiceNumber, result.Status, result.Successful))
	if result.StatusCode >= http.StatusInternalServerError {
		// the provider retries failed deliveries
		w.WriteHeader(result.StatusCode)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) paymentReturn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, reqID := requestScope(w, r)

	method, err := s.payments.GetPaymentMethodSettings(ctx, "")
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment return: settings", reqID), err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	result := s.payments.HandlePaymentReturn(ctx, method, r.URL.Query())
	if result.ActionData == "" {
		s.logger.Warn(fmt.Sprintf("[%s] payment return: no redirect url", reqID))
		w.WriteHeader(http.StatusNotFound)
		return
	}
	http.Redirect(w, r, result.ActionData, http.StatusFound)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}
