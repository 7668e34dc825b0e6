package memory

import (
	"context"
	"testing"

	"quiz-grading-service/internal/domain"
)

func TestResultFeedDeliversPerQuiz(t *testing.T) {
	ctx := context.Background()
	feed := NewResultFeed()

	ch, cancel, err := feed.Subscribe(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	_ = feed.Publish(ctx, domain.Result{ID: "r-other", QuizID: "quiz-2"})
	_ = feed.Publish(ctx, domain.Result{ID: "r1", QuizID: "quiz-1"})

	got := <-ch
	if got.ID != "r1" {
		t.Fatalf("expected r1, got %+v", got)
	}
}

func TestResultFeedCancelClosesChannel(t *testing.T) {
	feed := NewResultFeed()
	ch, cancel, _ := feed.Subscribe(context.Background(), "quiz-1")

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if err := feed.Publish(context.Background(), domain.Result{QuizID: "quiz-1"}); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestResultFeedDropsOldestForSlowSubscribers(t *testing.T) {
	ctx := context.Background()
	feed := NewResultFeed()
	ch, cancel, _ := feed.Subscribe(ctx, "quiz-1")
	defer cancel()

	for i := 0; i < 20; i++ {
		_ = feed.Publish(ctx, domain.Result{QuizID: "quiz-1", Score: i})
	}

	var last domain.Result
	for len(ch) > 0 {
		last = <-ch
	}
	if last.Score != 19 {
		t.Fatalf("expected newest result retained, got score %d", last.Score)
	}
}
