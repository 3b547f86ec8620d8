package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lawconnect/internal/models"
	"lawconnect/internal/storage"
)

const chatRoomsCollection = "chatrooms"

// mongoChatRoom 每個聊天室一份文件，訊息內嵌在 messages 陣列
type mongoChatRoom struct {
	ID        string               `bson:"_id"`
	Messages  []models.ChatMessage `bson:"messages"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

type mongoChatRepository struct {
	coll *mongo.Collection
}

func NewMongoChatRepository(db *storage.MongoDB) ChatRepository {
	return &mongoChatRepository{coll: db.Database.Collection(chatRoomsCollection)}
}

func (r *mongoChatRepository) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	now := time.Now().UTC()
	update := bson.M{
		"$push":        bson.M{"messages": msg},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	filter := bson.M{"_id": msg.ChatRoomID}
	opts := options.Update().SetUpsert(true)

	_, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// 兩個 upsert 同時插入新房間時只有一個成功，另一個重試後會走更新
		_, err = r.coll.UpdateOne(ctx, filter, update, opts)
	}
	return err
}

func (r *mongoChatRepository) FindMessages(ctx context.Context, chatRoomID string) ([]models.ChatMessage, error) {
	var room mongoChatRoom
	err := r.coll.FindOne(ctx, bson.M{"_id": chatRoomID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []models.ChatMessage{}, nil
		}
		return nil, err
	}

	messages := room.Messages
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	for i := range messages {
		messages[i].ChatRoomID = chatRoomID
	}
	return messages, nil
}

func (r *mongoChatRepository) ClearMessages(ctx context.Context, chatRoomID string) (int64, error) {
	var before mongoChatRoom
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": chatRoomID},
		bson.M{"$set": bson.M{"messages": bson.A{}, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return int64(len(before.Messages)), nil
}
