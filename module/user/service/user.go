package service

import (
	"context"

	usermodel "RoomieChat/module/user/model"
	"RoomieChat/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Directory is the identity lookup the chat core depends on: existence
// checks before writes, display attributes at read time.
type Directory interface {
	Resolve(ctx context.Context, id int64) (*usermodel.UserProfile, error)
	ResolveMany(ctx context.Context, ids []int64) (map[int64]*usermodel.UserProfile, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type mongoDirectory struct {
	coll *mongo.Collection
}

func NewDirectory(db *mongo.Database) Directory {
	return &mongoDirectory{coll: db.Collection(usermodel.UserTableName)}
}

func (d *mongoDirectory) Resolve(ctx context.Context, id int64) (*usermodel.UserProfile, error) {
	var u usermodel.UserProfile
	err := d.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, errs.WrapStorage(err, "resolve user")
	}
	return &u, nil
}

func (d *mongoDirectory) ResolveMany(ctx context.Context, ids []int64) (map[int64]*usermodel.UserProfile, error) {
	out := make(map[int64]*usermodel.UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := d.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errs.WrapStorage(err, "resolve users")
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u usermodel.UserProfile
		if err := cur.Decode(&u); err != nil {
			return nil, errs.WrapStorage(err, "decode user")
		}
		out[u.ID] = &u
	}
	return out, cur.Err()
}

func (d *mongoDirectory) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := d.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, errs.WrapStorage(err, "count user")
	}
	return n > 0, nil
}
