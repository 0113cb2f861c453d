package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

const collectionOrders = "orders"

// OrderRepository implements ports.OrderRepository. Orders are addressed by
// their parcel number ("id"), never by the Mongo _id.
type OrderRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders), now: time.Now}
}

// Create inserts a new order document.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if o.Notifications == nil {
		o.Notifications = []domain.NotificationLogEntry{}
	}
	if _, err := r.col.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateOrderID
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *OrderRepository) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"mpesaCheckoutRequestId": checkoutRequestID})
}

func (r *OrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *OrderRepository) ListByIdentifier(ctx context.Context, identifier string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"email": identifier},
		bson.M{"phone": identifier},
	}})
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": r.now().UTC(),
	}})
}

// UpdatePayment writes the non-nil fields of u. Confirming a payment stamps
// the verification date; unconfirming clears the verification details.
func (r *OrderRepository) UpdatePayment(ctx context.Context, id string, u ports.PaymentUpdate) (*domain.Order, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	unset := bson.M{}

	if u.Confirmed != nil {
		set["paymentConfirmed"] = *u.Confirmed
		if *u.Confirmed {
			set["paymentVerificationDate"] = r.now().UTC()
		} else {
			unset["paymentVerificationDate"] = ""
		}
	}
	if u.Status != nil {
		set["paymentStatus"] = *u.Status
	}
	if u.ConfirmationMessage != nil {
		set["mpesaConfirmationMessage"] = *u.ConfirmationMessage
	}
	if u.VerifiedBy != nil {
		if *u.VerifiedBy == "" {
			unset["paymentVerifiedBy"] = ""
		} else {
			set["paymentVerifiedBy"] = *u.VerifiedBy
		}
	}
	if u.MpesaCheckoutRequestID != nil {
		set["mpesaCheckoutRequestId"] = *u.MpesaCheckoutRequestID
	}
	if u.MpesaReceiptNumber != nil {
		set["mpesaReceiptNumber"] = *u.MpesaReceiptNumber
	}
	if u.MpesaTransactionDate != nil {
		set["mpesaTransactionDate"] = *u.MpesaTransactionDate
	}
	if u.Message != nil {
		set["paymentMessage"] = *u.Message
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return r.findOneAndUpdate(ctx, id, update)
}

// AppendNotification pushes entry onto the order's notification log.
func (r *OrderRepository) AppendNotification(ctx context.Context, id string, entry domain.NotificationLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$push": bson.M{"notifications": entry},
	})
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// EnsureIndexes creates the unique parcel number index and the lookup
// indexes used by tracking and payment callbacks.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "mpesaCheckoutRequestId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var o domain.Order
	if err := r.col.FindOne(ctx, filter).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cur.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o domain.Order
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return &o, nil
}
