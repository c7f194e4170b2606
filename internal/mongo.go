package internal

import (
	"context"
	"errors"
	"fmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"log"
	"paybridge/config"
	"paybridge/entity"
	"paybridge/services"
)

const (
	collectionPaymentLog    = "payment_log"
	collectionSysLog        = "sys_log"
	collectionBaskets       = "baskets"
	collectionUserDetails   = "user_details"
	collectionProviders     = "payment_providers"
	collectionSystemObjects = "system_objects"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client, nil
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	err := connection.Disconnect(ctx)
	if err != nil {
		log.Println("mongodb disconnect error", err)
	}
}

func (m *MongoDB) WriteLogMessage(ctx context.Context, data services.Data) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	name := collectionSysLog
	if data.DataType() == (&entity.ProviderLog{}).DataType() {
		name = collectionPaymentLog
	}
	collection := connection.Database(m.database).Collection(name)
	_, err = collection.InsertOne(ctx, data)
	return err
}

func (m *MongoDB) GetOrdersByInvoiceNumber(ctx context.Context, invoiceNumber string) ([]*entity.Basket, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionBaskets)
	filter := bson.D{{Key: "main.details." + entity.InvoiceNumberProperty, Value: invoiceNumber}}
	cursor, err := collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "main.id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var baskets []*entity.Basket
	if err = cursor.All(ctx, &baskets); err != nil {
		return nil, err
	}
	return baskets, nil
}

// SaveBasket replaces the whole basket document, main record and lines in one write.
func (m *MongoDB) SaveBasket(ctx context.Context, basket *entity.Basket) error {
	if basket.Main.Id == "" {
		return fmt.Errorf("basket without id")
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "main.id", Value: basket.Main.Id}}
	collection := connection.Database(m.database).Collection(collectionBaskets)
	_, err = collection.ReplaceOne(ctx, filter, basket, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoDB) GetUserDetails(ctx context.Context, userId string) (*entity.Item, error) {
	if userId == "" {
		return &entity.Item{}, nil
	}
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "id", Value: userId}}
	collection := connection.Database(m.database).Collection(collectionUserDetails)
	var userDetails entity.Item
	err = collection.FindOne(ctx, filter).Decode(&userDetails)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &entity.Item{Id: userId}, nil
	}
	if err != nil {
		return nil, err
	}
	return &userDetails, nil
}

func (m *MongoDB) GetProviderSettingsRecord(ctx context.Context, id string) (*entity.ProviderSettingsRecord, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "id", Value: id}}
	collection := connection.Database(m.database).Collection(collectionProviders)
	var record entity.ProviderSettingsRecord
	err = collection.FindOne(ctx, filter).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *MongoDB) FindSystemObjectByDomainName(ctx context.Context, key string) (string, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return "", err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "key", Value: key}}
	collection := connection.Database(m.database).Collection(collectionSystemObjects)
	var object struct {
		Key   string `bson:"key"`
		Value string `bson:"value"`
	}
	err = collection.FindOne(ctx, filter).Decode(&object)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return object.Value, nil
}
