package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// loginRecordDocument is one entry of the embedded loginHistory array.
type loginRecordDocument struct {
	IP        string    `bson:"ip"`
	UserAgent string    `bson:"userAgent"`
	Timestamp time.Time `bson:"timestamp"`
}

// userDocument is the stored shape of a user.
type userDocument struct {
	ID                     primitive.ObjectID    `bson:"_id,omitempty"`
	UserName               string                `bson:"userName"`
	FullName               string                `bson:"fullName"`
	Email                  string                `bson:"email"`
	Password               *string               `bson:"password,omitempty"`
	IsVerified             bool                  `bson:"isVerified"`
	Role                   string                `bson:"role"`
	AuthProvider           string                `bson:"authProvider"`
	Avatar                 string                `bson:"avatar,omitempty"`
	LoginHistory           []loginRecordDocument `bson:"loginHistory"`
	LastLogin              *time.Time            `bson:"lastLogin,omitempty"`
	PasswordResetTokenHash string                `bson:"passwordResetToken,omitempty"`
	PasswordResetExpiresAt *time.Time            `bson:"passwordResetExpires,omitempty"`
	CreatedAt              time.Time             `bson:"createdAt"`
	UpdatedAt              time.Time             `bson:"updatedAt"`
}

type MongoUserRepository struct {
	coll *mongo.Collection
}

func newMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

// Ensure MongoUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*MongoUserRepository)(nil)

// EnsureIndexes creates the unique indexes that back email and username uniqueness.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "userName", Value: 1}}, Options: options.Index().SetUnique(true).SetName("userName_unique")},
		{Keys: bson.D{{Key: "passwordResetToken", Value: 1}}, Options: options.Index().SetSparse(true).SetName("passwordResetToken_sparse")},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func toUserDocument(d domain.User) userDocument {
	doc := userDocument{
		UserName:               d.Username,
		FullName:               d.FullName,
		Email:                  d.Email,
		Password:               d.PasswordHash,
		IsVerified:             d.IsVerified,
		Role:                   string(d.Role),
		AuthProvider:           string(d.AuthProvider),
		Avatar:                 d.AvatarURL,
		LoginHistory:           make([]loginRecordDocument, 0, len(d.LoginHistory)),
		LastLogin:              d.LastLoginAt,
		PasswordResetTokenHash: d.PasswordResetTokenHash,
		PasswordResetExpiresAt: d.PasswordResetExpiresAt,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
	if id, err := primitive.ObjectIDFromHex(d.UserID); err == nil {
		doc.ID = id
	}
	for _, rec := range d.LoginHistory {
		doc.LoginHistory = append(doc.LoginHistory, toLoginDocument(rec))
	}
	return doc
}

func toLoginDocument(rec domain.LoginRecord) loginRecordDocument {
	return loginRecordDocument{IP: rec.Address, UserAgent: rec.UserAgent, Timestamp: rec.Timestamp}
}

func toDomainUser(doc userDocument) domain.User {
	d := domain.User{
		UserID:                 doc.ID.Hex(),
		Username:               doc.UserName,
		FullName:               doc.FullName,
		Email:                  doc.Email,
		PasswordHash:           doc.Password,
		IsVerified:             doc.IsVerified,
		Role:                   domain.UserRole(doc.Role),
		AuthProvider:           domain.AuthProvider(doc.AuthProvider),
		AvatarURL:              doc.Avatar,
		LastLoginAt:            doc.LastLogin,
		PasswordResetTokenHash: doc.PasswordResetTokenHash,
		PasswordResetExpiresAt: doc.PasswordResetExpiresAt,
		CreatedAt:              doc.CreatedAt,
		UpdatedAt:              doc.UpdatedAt,
	}
	for _, rec := range doc.LoginHistory {
		d.LoginHistory = append(d.LoginHistory, domain.LoginRecord{Address: rec.IP, UserAgent: rec.UserAgent, Timestamp: rec.Timestamp})
	}
	return d
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user := toDomainUser(doc)
	return &user, nil
}

func (r *MongoUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"userName": username})
}

func (r *MongoUserRepository) FindUserByPasswordResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"passwordResetToken": tokenHash})
}

func (r *MongoUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, toDomainUser(doc))
	}
	return users, nil
}

func (r *MongoUserRepository) SaveUser(ctx context.Context, user *domain.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	doc := toUserDocument(*user)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user email or username already exists: %w", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	user.UserID = doc.ID.Hex()
	return nil
}

func (r *MongoUserRepository) updateByID(ctx context.Context, userID string, update bson.M) error {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, apperrors.ErrNotFound)
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

// RecordLogin pushes the record and keeps only the newest MaxLoginHistory entries.
func (r *MongoUserRepository) RecordLogin(ctx context.Context, userID string, record domain.LoginRecord) error {
	return r.updateByID(ctx, userID, bson.M{
		"$push": bson.M{
			"loginHistory": bson.M{
				"$each":  bson.A{toLoginDocument(record)},
				"$slice": -domain.MaxLoginHistory,
			},
		},
		"$set": bson.M{"lastLogin": record.Timestamp, "updatedAt": time.Now()},
	})
}

func (r *MongoUserRepository) SetPasswordResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	return r.updateByID(ctx, userID, bson.M{
		"$set": bson.M{
			"passwordResetToken":   tokenHash,
			"passwordResetExpires": expiresAt,
			"updatedAt":            time.Now(),
		},
	})
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	return r.updateByID(ctx, userID, bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": time.Now()},
		"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""},
	})
}
