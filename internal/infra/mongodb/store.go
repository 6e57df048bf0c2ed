// Package mongodb provides a Store on MongoDB. Clients embed their weekly
// sales; sales live in their own collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/resilience"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	clientsCollection = "clients"
	salesCollection   = "sales"
)

// Store implements port.Store on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	guard  *resilience.Guard
}

// Open creates a MongoDB store without contacting the server. The driver
// selects a server on first use.
func Open(ctx context.Context, uri, dbName string, guard *resilience.Guard) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return &Store{
		client: client,
		db:     client.Database(dbName),
		guard:  guard,
	}, nil
}

// Connect creates a MongoDB store and verifies connectivity.
func Connect(ctx context.Context, uri, dbName string, guard *resilience.Guard) (*Store, error) {
	store, err := Open(ctx, uri, dbName, guard)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return store, nil
}

// Name implements port.Store.
func (s *Store) Name() string { return "mongodb" }

// Ping implements port.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		if mongo.IsDuplicateKeyError(err) {
			return &domain.ErrValidation{Field: "id", Message: "already exists"}
		}
		return err
	})
	if err == nil || resilience.IsAnswer(err) || errors.Is(err, context.Canceled) {
		return err
	}
	var timeout *domain.ErrTimeout
	var open *domain.ErrCircuitOpen
	if errors.As(err, &timeout) || errors.As(err, &open) {
		return err
	}
	return &domain.ErrExternalService{Service: "mongodb/" + op, Err: err}
}

// ============================================================
// Documents
// ============================================================

type weeklySaleDoc struct {
	ID        string    `bson:"id"`
	WeekStart time.Time `bson:"week_start"`
	WeekEnd   time.Time `bson:"week_end"`
	Sold      bool      `bson:"sold"`
	Notes     string    `bson:"notes,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type clientDoc struct {
	ID              string          `bson:"_id"`
	Name            string          `bson:"name"`
	Phone           string          `bson:"phone"`
	BusinessType    string          `bson:"business_type"`
	City            string          `bson:"city"`
	Location        string          `bson:"location"`
	ImportanceLevel string          `bson:"importance_level"`
	CreatedAt       time.Time       `bson:"created_at"`
	WeeklySales     []weeklySaleDoc `bson:"weekly_sales"`
}

// saleDoc keeps value as a decimal string so cents never pass through float64.
type saleDoc struct {
	ID         string    `bson:"_id"`
	Value      string    `bson:"value"`
	ClientName string    `bson:"client_name"`
	City       string    `bson:"city"`
	Date       time.Time `bson:"date"`
	CreatedAt  time.Time `bson:"created_at"`
}

func toClientDoc(c *domain.Client) clientDoc {
	weekly := make([]weeklySaleDoc, 0, len(c.WeeklySales))
	for _, ws := range c.WeeklySales {
		weekly = append(weekly, weeklySaleDoc(ws))
	}
	return clientDoc{
		ID:              c.ID,
		Name:            c.Name,
		Phone:           c.Phone,
		BusinessType:    string(c.BusinessType),
		City:            c.City,
		Location:        c.Location,
		ImportanceLevel: string(c.ImportanceLevel),
		CreatedAt:       c.CreatedAt,
		WeeklySales:     weekly,
	}
}

func (d clientDoc) toDomain() domain.Client {
	weekly := make([]domain.WeeklySale, 0, len(d.WeeklySales))
	for _, ws := range d.WeeklySales {
		weekly = append(weekly, domain.WeeklySale(ws))
	}
	return domain.Client{
		ID:              d.ID,
		Name:            d.Name,
		Phone:           d.Phone,
		BusinessType:    domain.BusinessType(d.BusinessType),
		City:            d.City,
		Location:        d.Location,
		ImportanceLevel: domain.ImportanceLevel(d.ImportanceLevel),
		CreatedAt:       d.CreatedAt,
		WeeklySales:     weekly,
	}
}

func toSaleDoc(s *domain.Sale) saleDoc {
	return saleDoc{
		ID:         s.ID,
		Value:      s.Value.String(),
		ClientName: s.ClientName,
		City:       s.City,
		Date:       s.Date,
		CreatedAt:  s.CreatedAt,
	}
}

func (d saleDoc) toDomain() (domain.Sale, error) {
	v, err := decimal.NewFromString(d.Value)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("failed to parse value %q: %w", d.Value, err)
	}
	return domain.Sale{
		ID:         d.ID,
		Value:      v,
		ClientName: d.ClientName,
		City:       d.City,
		Date:       d.Date,
		CreatedAt:  d.CreatedAt,
	}, nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

// ============================================================
// Clients
// ============================================================

// ListClients returns every client, newest first.
func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	err := s.run(ctx, clientsCollection, func(ctx context.Context) error {
		cur, err := s.db.Collection(clientsCollection).Find(ctx, bson.D{}, newestFirst)
		if err != nil {
			return err
		}
		var docs []clientDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		clients = make([]domain.Client, 0, len(docs))
		for _, d := range docs {
			clients = append(clients, d.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClient fetches a single client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	var client domain.Client
	err := s.run(ctx, clientsCollection, func(ctx context.Context) error {
		var doc clientDoc
		err := s.db.Collection(clientsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		if err != nil {
			return err
		}
		client = doc.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// CreateClient inserts a client. The caller assigns ID.
func (s *Store) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	if client.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "is required"}
	}
	doc := toClientDoc(client)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	err := s.run(ctx, clientsCollection, func(ctx context.Context) error {
		_, err := s.db.Collection(clientsCollection).InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := doc.toDomain()
	return &out, nil
}

// UpdateClient replaces every field of the stored client except created_at.
func (s *Store) UpdateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	doc := toClientDoc(client)
	update := bson.M{"$set": bson.M{
		"name":             doc.Name,
		"phone":            doc.Phone,
		"business_type":    doc.BusinessType,
		"city":             doc.City,
		"location":         doc.Location,
		"importance_level": doc.ImportanceLevel,
		"weekly_sales":     doc.WeeklySales,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Client
	err := s.run(ctx, clientsCollection, func(ctx context.Context) error {
		var out clientDoc
		err := s.db.Collection(clientsCollection).FindOneAndUpdate(ctx, bson.M{"_id": client.ID}, update, opts).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.ErrNotFound{Resource: "client", ID: client.ID}
		}
		if err != nil {
			return err
		}
		updated = out.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteClient removes a client.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.run(ctx, clientsCollection, func(ctx context.Context) error {
		res, err := s.db.Collection(clientsCollection).DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		return nil
	})
}

// ============================================================
// Sales
// ============================================================

// ListSales returns every sale, newest first.
func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var sales []domain.Sale
	err := s.run(ctx, salesCollection, func(ctx context.Context) error {
		cur, err := s.db.Collection(salesCollection).Find(ctx, bson.D{}, newestFirst)
		if err != nil {
			return err
		}
		var docs []saleDoc
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		sales = make([]domain.Sale, 0, len(docs))
		for _, d := range docs {
			sale, err := d.toDomain()
			if err != nil {
				return err
			}
			sales = append(sales, sale)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// GetSale fetches a single sale by ID.
func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.run(ctx, salesCollection, func(ctx context.Context) error {
		var doc saleDoc
		err := s.db.Collection(salesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.ErrNotFound{Resource: "sale", ID: id}
		}
		if err != nil {
			return err
		}
		sale, err = doc.toDomain()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// CreateSale inserts a sale. The caller assigns ID.
func (s *Store) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "is required"}
	}
	doc := toSaleDoc(sale)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	err := s.run(ctx, salesCollection, func(ctx context.Context) error {
		_, err := s.db.Collection(salesCollection).InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	out, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSale replaces the editable fields of a sale.
func (s *Store) UpdateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	doc := toSaleDoc(sale)
	update := bson.M{"$set": bson.M{
		"value":       doc.Value,
		"client_name": doc.ClientName,
		"city":        doc.City,
		"date":        doc.Date,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Sale
	err := s.run(ctx, salesCollection, func(ctx context.Context) error {
		var out saleDoc
		err := s.db.Collection(salesCollection).FindOneAndUpdate(ctx, bson.M{"_id": sale.ID}, update, opts).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.ErrNotFound{Resource: "sale", ID: sale.ID}
		}
		if err != nil {
			return err
		}
		updated, err = out.toDomain()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSale removes a sale.
func (s *Store) DeleteSale(ctx context.Context, id string) error {
	return s.run(ctx, salesCollection, func(ctx context.Context) error {
		res, err := s.db.Collection(salesCollection).DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return &domain.ErrNotFound{Resource: "sale", ID: id}
		}
		return nil
	})
}
