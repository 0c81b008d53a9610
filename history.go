package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	historyDatabase   = "back_your_boy_db"
	historyCollection = "game_history"
)

// RoundRecord is the persisted shape of one completed round. The
// downstream analytics job keys off vote_duration and round_score;
// everything else is context.
type RoundRecord struct {
	ID           string    `bson:"_id"`
	RoomCode     string    `bson:"room_code"`
	Round        int       `bson:"round"`
	ActiveTeam   Team      `bson:"active_team"`
	Target       int       `bson:"target"`
	Submitted    int       `bson:"submitted"`
	Winner       Team      `bson:"winner"`
	VoteDuration float64   `bson:"vote_duration"`
	RoundScore   int       `bson:"round_score"`
	FinishedAt   time.Time `bson:"finished_at"`
}

// HistorySink receives completed rounds. Implementations must be safe
// for concurrent use; rooms write to it from their own goroutines.
type HistorySink interface {
	SaveRound(ctx context.Context, rec RoundRecord) error
	Close(ctx context.Context) error
}

type mongoHistory struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func newMongoHistory(ctx context.Context, uri string) (HistorySink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &mongoHistory{
		client: client,
		coll:   client.Database(historyDatabase).Collection(historyCollection),
	}, nil
}

func (h *mongoHistory) SaveRound(ctx context.Context, rec RoundRecord) error {
	_, err := h.coll.InsertOne(ctx, rec)
	return err
}

func (h *mongoHistory) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}

// noopHistory is used when --history=false, for offline play.
type noopHistory struct{}

func (noopHistory) SaveRound(context.Context, RoundRecord) error { return nil }

func (noopHistory) Close(context.Context) error { return nil }

// newRoundRecord stamps a RoundSummary with identity and timing for the
// analytics consumer. RoundScore is the number of answers that survived
// validation; rounds that never reached validation score zero.
func newRoundRecord(roomCode string, summary RoundSummary, voteDuration time.Duration) RoundRecord {
	return RoundRecord{
		ID:           uuid.NewString(),
		RoomCode:     roomCode,
		Round:        summary.Round,
		ActiveTeam:   summary.ActiveTeam,
		Target:       summary.Target,
		Submitted:    summary.Submitted,
		Winner:       summary.Winner,
		VoteDuration: voteDuration.Seconds(),
		RoundScore:   summary.ValidCount,
		FinishedAt:   time.Now().UTC(),
	}
}
