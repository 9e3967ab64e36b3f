package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leadpilot/models"
)

// MongoLeadStore implements LeadStore on a MongoDB collection.
type MongoLeadStore struct {
	Collection *mongo.Collection
}

func NewMongoLeadStore(db *mongo.Database) *MongoLeadStore {
	return &MongoLeadStore{Collection: db.Collection("leads")}
}

func (s *MongoLeadStore) FindAll(ctx context.Context) ([]models.Lead, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	leads := []models.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *MongoLeadStore) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	objID, ok := parseObjectID(id)
	if !ok {
		return nil, nil
	}

	var lead models.Lead
	err := s.Collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *MongoLeadStore) Insert(ctx context.Context, lead *models.Lead) error {
	result, err := s.Collection.InsertOne(ctx, lead)
	if err != nil {
		return err
	}
	lead.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoLeadStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Lead, error) {
	objID, ok := parseObjectID(id)
	if !ok {
		return nil, nil
	}

	update := bson.M{}
	for key, value := range fields {
		update[key] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var lead models.Lead
	err := s.Collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": update}, opts).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *MongoLeadStore) ReplaceConversations(ctx context.Context, id string, conversations []models.Conversation, updatedAt time.Time) (*models.Lead, error) {
	objID, ok := parseObjectID(id)
	if !ok {
		return nil, nil
	}

	update := bson.M{"$set": bson.M{
		"conversations": conversations,
		"updatedAt":     updatedAt,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var lead models.Lead
	err := s.Collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *MongoLeadStore) SetConversationReminder(ctx context.Context, id, conversationID string, date *time.Time, updatedAt time.Time) (*models.Lead, error) {
	objID, ok := parseObjectID(id)
	if !ok {
		return nil, nil
	}

	// The embedded conversation is addressed by its id via an array filter,
	// never by index, so concurrent reorderings cannot redirect the write.
	filter := bson.M{"_id": objID, "conversations.id": conversationID}
	update := bson.M{"$set": bson.M{
		"conversations.$[c].followUpReminderDate": date,
		"updatedAt":                               updatedAt,
	}}
	if date == nil {
		update = bson.M{
			"$unset": bson.M{"conversations.$[c].followUpReminderDate": ""},
			"$set":   bson.M{"updatedAt": updatedAt},
		}
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"c.id": conversationID}}})

	var lead models.Lead
	err := s.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *MongoLeadStore) Delete(ctx context.Context, id string) (bool, error) {
	objID, ok := parseObjectID(id)
	if !ok {
		return false, nil
	}

	result, err := s.Collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount == 1, nil
}

// MongoActivityStore implements ActivityStore on a MongoDB collection.
type MongoActivityStore struct {
	Collection *mongo.Collection
}

func NewMongoActivityStore(db *mongo.Database) *MongoActivityStore {
	return &MongoActivityStore{Collection: db.Collection("activities")}
}

func (s *MongoActivityStore) Insert(ctx context.Context, activity *models.Activity) error {
	result, err := s.Collection.InsertOne(ctx, activity)
	if err != nil {
		return err
	}
	activity.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoActivityStore) FindAll(ctx context.Context) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := s.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func parseObjectID(id string) (primitive.ObjectID, bool) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return objID, true
}
