package memory

import (
	"context"
	"sync"

	"quiz-grading-service/internal/domain"
)

// ResultFeed is an in-process implementation of app.ResultFeed.
type ResultFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Result]struct{}
}

func NewResultFeed() *ResultFeed {
	return &ResultFeed{subscribers: make(map[string]map[chan domain.Result]struct{})}
}

// Publish delivers the result to every subscriber of its quiz without blocking.
func (f *ResultFeed) Publish(_ context.Context, result domain.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[result.QuizID] {
		select {
		case ch <- result:
		default:
			// drop the oldest pending result so slow viewers never block grading
			select {
			case <-ch:
			default:
			}
			ch <- result
		}
	}
	return nil
}

func (f *ResultFeed) Subscribe(_ context.Context, quizID string) (<-chan domain.Result, func(), error) {
	ch := make(chan domain.Result, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.Result]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subscribers[quizID]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, quizID)
		}
	}
	return ch, cancel, nil
}
