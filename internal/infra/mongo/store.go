// Package mongo stores quizzes, results and user profiles as MongoDB documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quiz-grading-service/internal/domain"
)

const (
	quizzesCollection = "quizzes"
	resultsCollection = "results"
	usersCollection   = "users"
)

// Store implements app.QuizStore, app.ResultStore and app.UserDirectory on top
// of a Mongo database. It has no cascade transaction: the catalog deletes the
// quiz first and then its results.
type Store struct {
	db    *mongo.Database
	clock func() time.Time
}

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db, clock: time.Now}
}

// Connect dials uri and verifies the deployment is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the lookup indexes used by result listings.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.results().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "quiz", Value: 1}, {Key: "submittedAt", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "submittedAt", Value: 1}}},
	})
	return err
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if _, err := s.quizzes().InsertOne(ctx, quiz); err != nil {
		return domain.NewInternalError("insert quiz", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.quizzes().FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.NewInternalError("find quiz", err)
	}
	return normalizeTimes(quiz), nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.quizzes().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, domain.NewInternalError("list quizzes", err)
	}
	var quizzes []domain.Quiz
	if err := cursor.All(ctx, &quizzes); err != nil {
		return nil, domain.NewInternalError("decode quizzes", err)
	}
	for i := range quizzes {
		quizzes[i] = normalizeTimes(quizzes[i])
	}
	return quizzes, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	res, err := s.quizzes().ReplaceOne(ctx, bson.M{"_id": quiz.ID}, quiz)
	if err != nil {
		return domain.NewInternalError("replace quiz", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.quizzes().DeleteOne(ctx, bson.M{"_id": quizID})
	if err != nil {
		return domain.NewInternalError("delete quiz", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// SaveResult checks the quiz still exists immediately before inserting.
// A delete landing between the two calls leaves one orphaned result, which
// listings report with a nil quiz projection.
func (s *Store) SaveResult(ctx context.Context, result domain.Result) (domain.Result, error) {
	n, err := s.quizzes().CountDocuments(ctx, bson.M{"_id": result.QuizID}, options.Count().SetLimit(1))
	if err != nil {
		return domain.Result{}, domain.NewInternalError("check quiz", err)
	}
	if n == 0 {
		return domain.Result{}, domain.ErrQuizNotFound
	}

	result.ID = domain.NewID()
	result.SubmittedAt = s.clock().UTC().Truncate(time.Millisecond)
	if result.Answers == nil {
		result.Answers = []domain.AnswerOutcome{}
	}
	if _, err := s.results().InsertOne(ctx, result); err != nil {
		return domain.Result{}, domain.NewInternalError("insert result", err)
	}
	return result, nil
}

func (s *Store) ListResults(ctx context.Context) ([]domain.Result, error) {
	return s.findResults(ctx, bson.M{})
}

func (s *Store) ListResultsByQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	return s.findResults(ctx, bson.M{"quiz": quizID})
}

func (s *Store) ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	return s.findResults(ctx, bson.M{"user": userID})
}

func (s *Store) DeleteResultsByQuiz(ctx context.Context, quizID string) (int, error) {
	res, err := s.results().DeleteMany(ctx, bson.M{"quiz": quizID})
	if err != nil {
		return 0, domain.NewInternalError(fmt.Sprintf("delete results of quiz %s", quizID), err)
	}
	return int(res.DeletedCount), nil
}

func (s *Store) LookupUsers(ctx context.Context, userIDs []string) (map[string]domain.UserProfile, error) {
	out := make(map[string]domain.UserProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cursor, err := s.users().Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, domain.NewInternalError("find users", err)
	}
	var profiles []domain.UserProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, domain.NewInternalError("decode users", err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// UpsertUser records a directory profile.
func (s *Store) UpsertUser(ctx context.Context, profile domain.UserProfile) error {
	_, err := s.users().ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile, options.Replace().SetUpsert(true))
	if err != nil {
		return domain.NewInternalError("upsert user", err)
	}
	return nil
}

func (s *Store) findResults(ctx context.Context, filter bson.M) ([]domain.Result, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.results().Find(ctx, filter, opts)
	if err != nil {
		return nil, domain.NewInternalError("find results", err)
	}
	results := make([]domain.Result, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, domain.NewInternalError("decode results", err)
	}
	for i := range results {
		results[i].SubmittedAt = results[i].SubmittedAt.UTC()
	}
	return results, nil
}

func (s *Store) quizzes() *mongo.Collection { return s.db.Collection(quizzesCollection) }
func (s *Store) results() *mongo.Collection { return s.db.Collection(resultsCollection) }
func (s *Store) users() *mongo.Collection   { return s.db.Collection(usersCollection) }

// normalizeTimes drops the local zone the driver attaches when decoding dates.
func normalizeTimes(q domain.Quiz) domain.Quiz {
	q.CreatedAt = q.CreatedAt.UTC()
	q.UpdatedAt = q.UpdatedAt.UTC()
	return q
}
