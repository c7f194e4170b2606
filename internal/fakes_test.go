package internal

import (
	"context"
	"fmt"
	"github.com/shopspring/decimal"
	"paybridge/entity"
	"paybridge/services"
	"sync"
)

type fakeDatabase struct {
	mu            sync.Mutex
	baskets       map[string][]*entity.Basket
	users         map[string]*entity.Item
	record        *entity.ProviderSettingsRecord
	recordErr     error
	systemObjects map[string]string
	logs          []services.Data
	saved         int
	saveErr       error
	getErr        error
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		baskets:       make(map[string][]*entity.Basket),
		users:         make(map[string]*entity.Item),
		systemObjects: make(map[string]string),
	}
}

func (f *fakeDatabase) addBasket(basket *entity.Basket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invoiceNumber := basket.InvoiceNumber()
	f.baskets[invoiceNumber] = append(f.baskets[invoiceNumber], basket)
}

func (f *fakeDatabase) WriteLogMessage(_ context.Context, data services.Data) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, data)
	return nil
}

func (f *fakeDatabase) providerLogs() []*entity.ProviderLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var logs []*entity.ProviderLog
	for _, data := range f.logs {
		if record, ok := data.(*entity.ProviderLog); ok {
			logs = append(logs, record)
		}
	}
	return logs
}

func (f *fakeDatabase) GetOrdersByInvoiceNumber(_ context.Context, invoiceNumber string) ([]*entity.Basket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.baskets[invoiceNumber], nil
}

func (f *fakeDatabase) SaveBasket(_ context.Context, _ *entity.Basket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved++
	return nil
}

func (f *fakeDatabase) GetUserDetails(_ context.Context, userId string) (*entity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userId]; ok {
		return user, nil
	}
	return &entity.Item{Id: userId}, nil
}

func (f *fakeDatabase) GetProviderSettingsRecord(_ context.Context, _ string) (*entity.ProviderSettingsRecord, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	if f.record == nil {
		return nil, ErrSettingsNotFound
	}
	return f.record, nil
}

func (f *fakeDatabase) FindSystemObjectByDomainName(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.systemObjects[key], nil
}

// linePrices are the figures a fakePricing returns for one line.
type linePrices struct {
	inVat    string
	vatOnly  string
	discount string
}

type fakePricing struct {
	settings entity.BasketSettings
	lines    map[string]linePrices
}

func newFakePricing() *fakePricing {
	return &fakePricing{
		settings: entity.BasketSettings{QuantityPropertyName: "quantity", PricesIncludeVat: true, DefaultVatRate: 21},
		lines:    make(map[string]linePrices),
	}
}

func (f *fakePricing) GetSettings(_ context.Context) (*entity.BasketSettings, error) {
	settings := f.settings
	return &settings, nil
}

func (f *fakePricing) GetPrice(ctx context.Context, basket *entity.Basket, settings *entity.BasketSettings, priceType entity.PriceType) (decimal.Decimal, error) {
	total := decimal.Zero
	for i := range basket.Lines {
		price, err := f.GetLinePrice(ctx, basket, &basket.Lines[i], settings, priceType)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(price)
	}
	return total, nil
}

func (f *fakePricing) GetLinePrice(_ context.Context, _ *entity.Basket, line *entity.Item, _ *entity.BasketSettings, priceType entity.PriceType) (decimal.Decimal, error) {
	prices, ok := f.lines[line.Id]
	if !ok {
		return decimal.Zero, fmt.Errorf("no prices for line %s", line.Id)
	}
	value := prices.inVat
	switch priceType {
	case entity.PriceVatOnly:
		value = prices.vatOnly
	case entity.PriceDiscountInVat:
		value = prices.discount
	}
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.RequireFromString(value), nil
}

func (f *fakePricing) GetVatFactorByRate(_ context.Context, _ *entity.Basket, _ *entity.BasketSettings, rate int) (decimal.Decimal, error) {
	return decimal.NewFromInt(int64(rate)).Div(hundred), nil
}

type fakeGateway struct {
	mu       sync.Mutex
	order    *entity.OrderSnapshot
	err      error
	panics   bool
	creates  int
	fetches  int
	request  *entity.OrderRequest
	calls    []services.ProviderCall
	orderIds []string
}

func (f *fakeGateway) CreateOrder(_ context.Context, call services.ProviderCall, request *entity.OrderRequest) (*entity.OrderSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("gateway exploded")
	}
	f.creates++
	f.request = request
	f.calls = append(f.calls, call)
	return f.order, f.err
}

func (f *fakeGateway) FetchOrder(_ context.Context, call services.ProviderCall, orderId string) (*entity.OrderSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("gateway exploded")
	}
	f.fetches++
	f.calls = append(f.calls, call)
	f.orderIds = append(f.orderIds, orderId)
	return f.order, f.err
}

type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(string, error) {}

func newBasket(id, invoiceNumber string, lines ...entity.Item) *entity.Basket {
	return &entity.Basket{
		Main: entity.Item{
			Id:         id,
			EntityType: "basket",
			Details: map[string]string{
				entity.InvoiceNumberProperty: invoiceNumber,
				entity.UserIdProperty:        "user-1",
			},
		},
		Lines: lines,
	}
}

func newLine(id, title string, details map[string]string) entity.Item {
	if details == nil {
		details = make(map[string]string)
	}
	if title != "" {
		details["title"] = title
	}
	return entity.Item{Id: id, EntityType: "basketline", Details: details}
}
