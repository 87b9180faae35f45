package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/raphaelgruber/chatroom-go/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type roomDocument struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Title string             `bson:"title"`
	Users []models.Member    `bson:"users"`
	Chats []models.Chat      `bson:"chats"`
}

func (d roomDocument) toRoom() models.Room {
	room := models.Room{ID: d.ID.Hex(), Title: d.Title, Users: d.Users, Chats: d.Chats}
	if room.Users == nil {
		room.Users = []models.Member{}
	}
	if room.Chats == nil {
		room.Chats = []models.Chat{}
	}
	return room
}

// objectID parses a room id; anything that is not an ObjectID hex string cannot exist.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.NotFound(id)
	}
	return oid, nil
}

// List returns rooms in insertion order, filtered by member id when userID is set.
func (s *Store) List(ctx context.Context, userID string) ([]models.Room, error) {
	defer s.observe(metrics.OpStoreRead, time.Now())

	filter := bson.M{}
	if userID != "" {
		filter["users.id"] = userID
	}

	cursor, err := s.rooms.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, store.Unavailable("list rooms", err)
	}
	defer cursor.Close(ctx)

	var docs []roomDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.Unavailable("list rooms", err)
	}

	rooms := make([]models.Room, 0, len(docs))
	for _, d := range docs {
		rooms = append(rooms, d.toRoom())
	}
	return rooms, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Room, error) {
	defer s.observe(metrics.OpStoreRead, time.Now())

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc roomDocument
	if err := s.rooms.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapError("get room", id, err)
	}
	room := doc.toRoom()
	return &room, nil
}

func (s *Store) Create(ctx context.Context, in models.RoomInput) (string, error) {
	defer s.observe(metrics.OpStoreWrite, time.Now())

	doc := roomDocument{
		ID:    primitive.NewObjectID(),
		Title: in.Title,
		Users: in.Users,
		Chats: []models.Chat{},
	}
	if doc.Users == nil {
		doc.Users = []models.Member{}
	}

	if _, err := s.rooms.InsertOne(ctx, doc); err != nil {
		return "", store.Unavailable("create room", err)
	}
	return doc.ID.Hex(), nil
}

// Update applies $set to title/users only and returns the document after the update.
func (s *Store) Update(ctx context.Context, id string, patch models.RoomPatch) (*models.Room, error) {
	defer s.observe(metrics.OpStoreWrite, time.Now())

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Users != nil {
		set["users"] = *patch.Users
	}
	if len(set) == 0 {
		return s.Get(ctx, id)
	}

	var doc roomDocument
	err = s.rooms.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapError("update room", id, err)
	}
	room := doc.toRoom()
	return &room, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	defer s.observe(metrics.OpStoreWrite, time.Now())

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.rooms.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return store.Unavailable("remove room", err)
	}
	if res.DeletedCount == 0 {
		return store.NotFound(id)
	}
	return nil
}

// AppendChat uses $push with $sort so the embedded array stays ordered by
// created_at even when concurrent appends land out of order.
func (s *Store) AppendChat(ctx context.Context, roomID string, in models.ChatInput) (*models.Chat, error) {
	defer s.observe(metrics.OpStoreAppend, time.Now())

	oid, err := objectID(roomID)
	if err != nil {
		return nil, err
	}

	chat := models.Chat{
		RoomID:    roomID,
		UserID:    in.UserID,
		Message:   in.Message,
		Sentiment: in.Sentiment,
		CreatedAt: s.clock.Now(),
	}

	res, err := s.rooms.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$push": bson.M{
			"chats": bson.M{
				"$each": []models.Chat{chat},
				"$sort": bson.M{"created_at": 1},
			},
		},
	})
	if err != nil {
		return nil, store.Unavailable("append chat", err)
	}
	if res.MatchedCount == 0 {
		return nil, store.NotFound(roomID)
	}
	return &chat, nil
}

func mapError(op, id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.NotFound(id)
	}
	return store.Unavailable(op, err)
}
