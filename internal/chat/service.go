package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"pagesmith-backend/internal/ai"
)

// DedupWindow is how long an identical (user, prompt) pair counts as a retry
// of the same submission rather than a new conversation turn.
const DedupWindow = 5 * time.Second

const persistTimeout = 10 * time.Second

var (
	ErrEmptyTurns      = errors.New("chat: turn list is empty")
	ErrLastTurnNotUser = errors.New("chat: last turn must be from user")
	ErrNoStreaming     = errors.New("chat: provider does not support streaming")
)

// ValidateTurns rejects a submission before any provider call or store access.
func ValidateTurns(turns []Turn) error {
	if len(turns) == 0 {
		return ErrEmptyTurns
	}
	if turns[len(turns)-1].Role != ai.RoleUser {
		return ErrLastTurnNotUser
	}
	return nil
}

// DedupMarker is an advisory fast path in front of the row-based window
// check. Errors and misses fall through to the database.
type DedupMarker interface {
	SeenGeneration(ctx context.Context, userID uint64, prompt string) (bool, error)
	MarkGeneration(ctx context.Context, userID uint64, prompt string, ttl time.Duration) error
}

// EventPublisher receives a best-effort record of every finished generation.
type EventPublisher interface {
	PublishGeneration(ctx context.Context, ev GenerationEvent) error
}

type GenerationEvent struct {
	EventID    string `json:"event_id"`
	MessageID  uint64 `json:"message_id"`
	UserID     uint64 `json:"user_id"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
}

const (
	EventSaved        = "saved"
	EventSaveFailed   = "save_failed"
	EventDeduplicated = "deduplicated"
)

type Service struct {
	repo     *Repo
	provider ai.Provider
	dedup    DedupMarker    // optional
	events   EventPublisher // optional
	newID    func() (string, error)
}

func NewService(repo *Repo, provider ai.Provider, dedup DedupMarker, events EventPublisher, newID func() (string, error)) *Service {
	if newID == nil {
		newID = func() (string, error) { return "", nil }
	}
	return &Service{repo: repo, provider: provider, dedup: dedup, events: events, newID: newID}
}

// seenRecently reports whether an identical prompt from this user started a
// generation inside the dedup window. The marker is consulted first; the
// newest matching row remains authoritative.
func (s *Service) seenRecently(ctx context.Context, userID uint64, prompt string) bool {
	if s.dedup != nil {
		if seen, err := s.dedup.SeenGeneration(ctx, userID, prompt); err == nil && seen {
			return true
		}
	}
	last, err := s.repo.LatestByUserAndPrompt(ctx, userID, prompt)
	if err != nil || last == nil {
		return false
	}
	return time.Since(last.CreatedAt) < DedupWindow
}

func (s *Service) publish(ctx context.Context, messageID, userID uint64, status string, started time.Time) {
	if s.events == nil {
		return
	}
	id, err := s.newID()
	if err != nil {
		return
	}
	ev := GenerationEvent{
		EventID:    id,
		MessageID:  messageID,
		UserID:     userID,
		Status:     status,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if err := s.events.PublishGeneration(ctx, ev); err != nil {
		log.Printf("chat: publish generation event failed message_id=%d err=%v", messageID, err)
	}
}

// GenerateStream runs one chat turn and streams the assistant response.
//
// A non-duplicate submission inserts a Message row with an empty response
// before the first chunk is forwarded, then overwrites that row's response
// exactly once after the provider signals end-of-stream. A submission whose
// prompt matches a row younger than DedupWindow still gets a fresh
// completion but creates and updates no row.
//
// The provider call and the final write run on a context detached from the
// caller's: a client disconnect does not abort generation or persistence
// (the row was already created, so finishing keeps history consistent). The
// caller must drain chunks until the channel closes.
//
// saved is closed once any persistence attempt has finished (or been skipped)
// and carries the updated message ID on success; the HTTP handler ignores it,
// tests synchronize on it. errs carries at most one error; on a mid-stream
// provider failure the accumulated partial text is discarded.
func (s *Service) GenerateStream(ctx context.Context, userID uint64, turns []Turn) (chunks <-chan string, saved <-chan uint64, errs <-chan error) {
	out := make(chan string, 16)
	outSaved := make(chan uint64, 1)
	outErrs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(outErrs)

		started := time.Now()

		if err := ValidateTurns(turns); err != nil {
			close(outSaved)
			outErrs <- err
			return
		}
		prompt := turns[len(turns)-1].Content

		sp, ok := s.provider.(ai.StreamProvider)
		if !ok {
			close(outSaved)
			outErrs <- ErrNoStreaming
			return
		}

		genCtx := context.WithoutCancel(ctx)

		dup := s.seenRecently(ctx, userID, prompt)

		var msgID uint64
		if !dup {
			m := &Message{UserID: userID, Prompt: prompt, Response: ""}
			if err := s.repo.InsertMessage(genCtx, m); err != nil {
				close(outSaved)
				outErrs <- err
				return
			}
			msgID = m.ID
			if s.dedup != nil {
				if err := s.dedup.MarkGeneration(ctx, userID, prompt, DedupWindow); err != nil {
					log.Printf("chat: dedup mark failed user_id=%d err=%v", userID, err)
				}
			}
		}

		pChunks, pErrs := sp.StreamChat(genCtx, []ai.Message{
			{Role: ai.RoleSystem, Content: ai.HTMLCSSSystemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		})

		var b strings.Builder
		for c := range pChunks {
			b.WriteString(c)
			out <- c
		}

		select {
		case err := <-pErrs:
			if err != nil {
				// the row (if any) keeps its empty response; partial text is
				// never recorded as a finished generation
				close(outSaved)
				outErrs <- err
				return
			}
		default:
		}

		if dup {
			close(outSaved)
			s.publish(genCtx, 0, userID, EventDeduplicated, started)
			return
		}

		full := b.String()
		go func() {
			defer close(outSaved)
			uctx, cancel := context.WithTimeout(genCtx, persistTimeout)
			defer cancel()
			if err := s.repo.UpdateResponse(uctx, msgID, full); err != nil {
				log.Printf("chat: persist response failed message_id=%d err=%v", msgID, err)
				s.publish(uctx, msgID, userID, EventSaveFailed, started)
				return
			}
			outSaved <- msgID
			s.publish(uctx, msgID, userID, EventSaved, started)
		}()
	}()

	return out, outSaved, outErrs
}

// ListMessages pages through a user's history, newest first.
func (s *Service) ListMessages(ctx context.Context, userID uint64, search string, page, limit int) ([]Message, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.ListByUser(ctx, userID, search, page, limit)
}

// DeleteMessage removes an owned message; false means no such row for this user.
func (s *Service) DeleteMessage(ctx context.Context, userID, id uint64) (bool, error) {
	return s.repo.DeleteByIDAndOwner(ctx, id, userID)
}
