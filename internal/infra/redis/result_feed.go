package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"quiz-grading-service/internal/domain"
)

// ResultFeed fans results out through Redis Pub/Sub so every instance's
// websocket viewers see results graded anywhere.
// Results are published as: PUBLISH quiz:{quizID}:results {json}
type ResultFeed struct {
	client *redis.Client
}

func NewResultFeed(client *redis.Client) *ResultFeed {
	return &ResultFeed{client: client}
}

func (f *ResultFeed) Publish(ctx context.Context, result domain.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.channel(result.QuizID), raw).Err()
}

// Subscribe blocks until Redis confirms the subscription, then relays results
// until cancel is called or ctx ends.
func (f *ResultFeed) Subscribe(ctx context.Context, quizID string) (<-chan domain.Result, func(), error) {
	pubsub := f.client.Subscribe(ctx, f.channel(quizID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan domain.Result, 8)
	done := make(chan struct{})
	go func() {
		defer close(out)
		messages := pubsub.Channel()
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var result domain.Result
				if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
					log.Printf("decode result on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- result:
				case <-done:
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

func (f *ResultFeed) channel(quizID string) string {
	return "quiz:" + quizID + ":results"
}
