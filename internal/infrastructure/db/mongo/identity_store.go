package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogstack/auth-service/internal/core/domain"
	"github.com/blogstack/auth-service/internal/core/ports"
)

const usersCollection = "users"

// Unique index names. Duplicate key errors are mapped back to a field by name.
const (
	indexUsername    = "uniq_username"
	indexEmail       = "uniq_email"
	indexFederatedID = "uniq_google_id"
)

// IdentityStore implements ports.IdentityStore on the users collection.
type IdentityStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewIdentityStore(db *mongo.Database) *IdentityStore {
	return &IdentityStore{coll: db.Collection(usersCollection), now: time.Now}
}

// userDocument keeps the field names of existing user records.
type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty"`
	Role           string             `bson:"role"`
	GoogleID       string             `bson:"googleId,omitempty"`
	AuthProvider   string             `bson:"authProvider"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func toDocument(u *domain.UserIdentity) userDocument {
	return userDocument{
		Username:       u.Username,
		Email:          domain.NormalizeEmail(u.Email),
		Password:       u.PasswordHash,
		ProfilePicture: u.ProfilePictureURL,
		Role:           string(u.Role),
		GoogleID:       u.FederatedID,
		AuthProvider:   string(u.AuthProvider),
	}
}

func (d userDocument) toDomain() *domain.UserIdentity {
	role := domain.Role(d.Role)
	if !role.Valid() {
		role = domain.RoleUser
	}
	picture := d.ProfilePicture
	if picture == "" {
		picture = domain.DefaultProfilePicture
	}
	return &domain.UserIdentity{
		ID:                d.ID.Hex(),
		Username:          d.Username,
		Email:             d.Email,
		PasswordHash:      d.Password,
		ProfilePictureURL: picture,
		Role:              role,
		FederatedID:       d.GoogleID,
		AuthProvider:      domain.ParseAuthProvider(d.AuthProvider),
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*domain.UserIdentity, error) {
	return s.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (s *IdentityStore) FindByUsername(ctx context.Context, username string) (*domain.UserIdentity, error) {
	return s.findOne(ctx, bson.M{"username": strings.TrimSpace(username)})
}

func (s *IdentityStore) FindByID(ctx context.Context, id string) (*domain.UserIdentity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidUserID
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *IdentityStore) FindByFederatedID(ctx context.Context, federatedID string) (*domain.UserIdentity, error) {
	if federatedID == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"googleId": federatedID})
}

func (s *IdentityStore) findOne(ctx context.Context, filter bson.M) (*domain.UserIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Insert creates the identity. Uniqueness is enforced by the indexes created
// in EnsureIndexes.
func (s *IdentityStore) Insert(ctx context.Context, user *domain.UserIdentity) (*domain.UserIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(user)
	now := s.now().UTC().Truncate(time.Millisecond)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if conflict := duplicateKeyConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

// Update applies patch atomically and returns the updated identity.
func (s *IdentityStore) Update(ctx context.Context, id string, patch domain.IdentityPatch) (*domain.UserIdentity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidUserID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := patchToSet(patch)
	set["updatedAt"] = s.now().UTC().Truncate(time.Millisecond)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		if conflict := duplicateKeyConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

func patchToSet(patch domain.IdentityPatch) bson.M {
	set := bson.M{}
	if patch.Username != nil {
		set["username"] = strings.TrimSpace(*patch.Username)
	}
	if patch.ProfilePictureURL != nil {
		set["profilePicture"] = *patch.ProfilePictureURL
	}
	if patch.FederatedID != nil {
		set["googleId"] = *patch.FederatedID
	}
	if patch.AuthProvider != nil {
		set["authProvider"] = string(*patch.AuthProvider)
	}
	return set
}

// List returns identities ordered by creation time, newest first.
func (s *IdentityStore) List(ctx context.Context, filter ports.ListFilter) ([]*domain.UserIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Role != "" {
		query["role"] = string(filter.Role)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"password": 0})

	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list users: decode: %w", err)
	}

	users := make([]*domain.UserIdentity, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

// EnsureIndexes creates the unique indexes the store relies on. googleId is
// sparse so that any number of local accounts may omit it.
func (s *IdentityStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexUsername).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetName(indexFederatedID).SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}

	_, err := s.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// duplicateKeyConflict maps a duplicate key error to the conflict for the
// violated index, or returns nil for any other error.
func duplicateKeyConflict(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	switch index := duplicateIndex(err); {
	case index == indexUsername, strings.HasPrefix(index, "username_"):
		return domain.ErrUsernameTaken
	case index == indexEmail, strings.HasPrefix(index, "email_"):
		return domain.ErrEmailTaken
	case index == indexFederatedID, strings.HasPrefix(index, "googleId_"):
		return domain.ErrFederatedIDTaken
	default:
		return &domain.Error{Kind: domain.KindConflict, Message: "user already exists", Err: err}
	}
}

// duplicateIndex extracts the index name from an E11000 server message:
// "E11000 duplicate key error collection: db.users index: <name> dup key: { ... }".
// The dup key document is never inspected since it echoes user input.
func duplicateIndex(err error) string {
	var messages []string
	var we mongo.WriteException
	var ce mongo.CommandError
	switch {
	case errors.As(err, &we):
		for _, e := range we.WriteErrors {
			messages = append(messages, e.Message)
		}
	case errors.As(err, &ce):
		messages = append(messages, ce.Message)
	default:
		messages = append(messages, err.Error())
	}

	for _, msg := range messages {
		_, rest, ok := strings.Cut(msg, "index: ")
		if !ok {
			continue
		}
		if fields := strings.Fields(rest); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}
