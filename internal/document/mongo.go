package document

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection is the collection ingested records are stored in.
const DefaultCollection = "csv_records"

// MongoStore persists records in a MongoDB collection.
//
// Each record is stored with its fields as nested {type, value} documents,
// so a filter or sort on a named field addresses "fields.<name>.value".
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store backed by the given database and collection.
// An empty collection name falls back to DefaultCollection.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{coll: db.Collection(collection)}
}

// BulkInsert implements Store using an ordered InsertMany, which MongoDB
// applies as a single bulk write.
func (s *MongoStore) BulkInsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = recordToBSON(r)
	}

	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("bulk insert %d records: %w", len(records), err)
	}
	return nil
}

// DeleteByFileID implements Store.
func (s *MongoStore) DeleteByFileID(ctx context.Context, fileID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"fileId": fileID})
	if err != nil {
		return 0, fmt.Errorf("delete records for file %s: %w", fileID, err)
	}
	return res.DeletedCount, nil
}

// Find implements Store.
func (s *MongoStore) Find(ctx context.Context, filter Filter, sort Sort, skip, limit int64) ([]Record, error) {
	query, err := buildQuery(filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if sort.Field != "" {
		dir := 1
		if sort.Order == SortDesc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: "fields." + sort.Field + ".value", Value: dir}})
	}

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []Record
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, recordFromBSON(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Count implements Store.
func (s *MongoStore) Count(ctx context.Context, filter Filter) (int64, error) {
	query, err := buildQuery(filter)
	if err != nil {
		return 0, err
	}
	n, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// buildQuery translates a Filter into a MongoDB query document.
func buildQuery(filter Filter) (bson.M, error) {
	query := bson.M{}
	if filter.FileID != "" {
		query["fileId"] = filter.FileID
	}
	if filter.Field != "" && filter.Pattern != "" {
		// Validate up front so a bad pattern surfaces as a client error
		// instead of a server-side query failure.
		if _, err := regexp.Compile("(?i)" + filter.Pattern); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, filter.Pattern, err)
		}
		query["fields."+filter.Field+".value"] = primitive.Regex{
			Pattern: filter.Pattern,
			Options: "i",
		}
	}
	return query, nil
}

func recordToBSON(r Record) bson.M {
	fields := bson.M{}
	for name, tv := range r.Fields {
		fields[name] = bson.M{"type": string(tv.Kind), "value": tv.Value}
	}
	doc := bson.M{
		"fileId":     r.FileID,
		"filename":   r.Filename,
		"fields":     fields,
		"uploadedAt": r.UploadedAt,
	}
	if r.ID != "" {
		doc["_id"] = r.ID
	}
	return doc
}

func recordFromBSON(doc bson.M) Record {
	r := Record{Fields: FieldMap{}}

	switch id := doc["_id"].(type) {
	case string:
		r.ID = id
	case primitive.ObjectID:
		r.ID = id.Hex()
	}
	r.FileID, _ = doc["fileId"].(string)
	r.Filename, _ = doc["filename"].(string)
	switch t := doc["uploadedAt"].(type) {
	case primitive.DateTime:
		r.UploadedAt = t.Time()
	case time.Time:
		r.UploadedAt = t
	}

	fields, _ := doc["fields"].(bson.M)
	for name, raw := range fields {
		entry, ok := raw.(bson.M)
		if !ok {
			continue
		}
		kind, _ := entry["type"].(string)
		r.Fields[name] = fieldFromBSON(Kind(kind), entry["value"])
	}
	return r
}

// fieldFromBSON converts a decoded BSON value back into the native
// representation its kind promises.
func fieldFromBSON(kind Kind, value any) TypedValue {
	switch kind {
	case KindNull:
		return Null()
	case KindNumber:
		switch v := value.(type) {
		case float64:
			return Number(v)
		case int32:
			return Number(float64(v))
		case int64:
			return Number(float64(v))
		}
	case KindBoolean:
		if v, ok := value.(bool); ok {
			return Boolean(v)
		}
	case KindDate:
		switch v := value.(type) {
		case primitive.DateTime:
			return Date(v.Time())
		case time.Time:
			return Date(v)
		}
	case KindString:
		if v, ok := value.(string); ok {
			return String(v)
		}
	case KindList:
		if arr, ok := value.(primitive.A); ok {
			list := make([]map[string]any, 0, len(arr))
			for _, item := range arr {
				if m, ok := item.(bson.M); ok {
					list = append(list, map[string]any(m))
				}
			}
			return List(list)
		}
	}
	// Unknown tag or mismatched payload: surface whatever is stored as-is.
	return TypedValue{Kind: kind, Value: value}
}
