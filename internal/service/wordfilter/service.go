// internal/service/wordfilter/service.go
package wordfilter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"amayalert-service/internal/domain/wordfilter"
	xerrors "amayalert-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type Store interface {
	List(ctx context.Context) ([]*wordfilter.WordFilter, error)
	Create(ctx context.Context, f *wordfilter.WordFilter) error
	Delete(ctx context.Context, id int64) error
}

// Auditor records admin actions.
type Auditor interface {
	Record(ctx context.Context, actorID, action, content string)
}

type Service struct {
	store   Store
	auditor Auditor
	logger  *zap.Logger
}

func NewService(store Store, auditor Auditor, logger *zap.Logger) *Service {
	return &Service{store: store, auditor: auditor, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]*wordfilter.WordFilter, error) {
	return s.store.List(ctx)
}

// Create stores the trimmed, lower-cased word.
func (s *Service) Create(ctx context.Context, word, actorID string) (*wordfilter.WordFilter, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, xerrors.Required("word", "Word")
	}

	f := &wordfilter.WordFilter{Word: word}
	if err := s.store.Create(ctx, f); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, fmt.Errorf("word %q is already filtered: %w", word, xerrors.ErrConflict)
		}
		return nil, err
	}

	s.auditor.Record(ctx, actorID, "create", fmt.Sprintf("Added word filter %q", word))
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id int64, actorID string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, actorID, "delete", fmt.Sprintf("Removed word filter #%d", id))
	return nil
}

// Mask replaces each whole-word, case-insensitive match with asterisks of
// the same length.
func (s *Service) Mask(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	filters, err := s.store.List(ctx)
	if err != nil {
		return text, fmt.Errorf("failed to load word filters: %w", err)
	}

	words := make([]string, 0, len(filters))
	for _, f := range filters {
		words = append(words, f.Word)
	}
	return MaskWords(text, words), nil
}

// MaskWords is the pure form of Mask.
func MaskWords(text string, words []string) string {
	for _, w := range words {
		if w == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			return strings.Repeat("*", len([]rune(m)))
		})
	}
	return text
}
