// Package clipboard copies text to a clipboard after screening it for
// sensitive data, and clears sensitive content after a delay.
package clipboard

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"scandeck/internal/domain"
	"scandeck/internal/domain/models"
	"scandeck/internal/domain/services"
)

// Board is the clipboard being written to
type Board interface {
	Write(text string) error
	Read() (string, error)
	Clear() error
}

var (
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)
	ibanPattern  = regexp.MustCompile(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){2,7}(?: ?[A-Z0-9]{1,4})?\b`)
	emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}[ .-]?)?\(?\d{3}\)?[ .-]?\d{3}[ .-]?\d{4}\b`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
)

type clipboardService struct {
	board     Board
	autoClear time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewService creates a clipboard service. Sensitive copies are cleared
// after autoClear; zero disables clearing.
func NewService(board Board, autoClear time.Duration, logger *slog.Logger) services.ClipboardService {
	return &clipboardService{board: board, autoClear: autoClear, logger: logger}
}

// CopyToClipboard writes text. When text looks sensitive, onSensitive decides
// whether to continue; a declined copy returns Success=false and no error.
func (s *clipboardService) CopyToClipboard(_ context.Context, text string, onSensitive services.SensitiveDataPrompt) (*models.ClipboardResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.E(domain.KindValidation, "clipboard.copy", "nothing to copy", domain.ErrValidation)
	}

	kinds := Detect(text)
	if len(kinds) > 0 && onSensitive != nil && !onSensitive(kinds) {
		return &models.ClipboardResult{Success: false, Detected: kinds}, nil
	}

	if err := s.board.Write(text); err != nil {
		return nil, domain.E(domain.KindIOFailure, "clipboard.copy", "clipboard unavailable", err)
	}

	result := &models.ClipboardResult{Success: true, Detected: kinds}
	if len(kinds) > 0 && s.autoClear > 0 {
		s.scheduleClear(text)
		result.WillAutoClear = true
		result.AutoClearDuration = s.autoClear
	}

	s.logger.Debug("text copied", "length", len(text), "sensitive", len(kinds) > 0)
	return result, nil
}

// scheduleClear clears the board after the delay if it still holds text
func (s *clipboardService) scheduleClear(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.autoClear, func() {
		current, err := s.board.Read()
		if err != nil || current != text {
			return
		}
		if err := s.board.Clear(); err != nil {
			s.logger.Debug("auto-clear failed", "error", err)
		}
	})
}

// Detect reports which kinds of sensitive data text appears to contain
func Detect(text string) []models.SensitiveKind {
	var kinds []models.SensitiveKind

	for _, m := range cardPattern.FindAllString(text, -1) {
		if luhn(m) {
			kinds = append(kinds, models.SensitiveCardNumber)
			break
		}
	}
	if ibanPattern.MatchString(text) {
		kinds = append(kinds, models.SensitiveIBAN)
	}
	if ssnPattern.MatchString(text) {
		kinds = append(kinds, models.SensitiveSSN)
	}
	if emailPattern.MatchString(text) {
		kinds = append(kinds, models.SensitiveEmail)
	}
	if phonePattern.MatchString(ssnPattern.ReplaceAllString(text, "")) {
		kinds = append(kinds, models.SensitivePhone)
	}
	return kinds
}

// luhn validates the check digit of a card number, ignoring separators
func luhn(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 {
		return false
	}

	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if (len(digits)-1-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// MemoryBoard is an in-process clipboard. The HTTP surface hands its
// contents back to the client.
type MemoryBoard struct {
	mu   sync.Mutex
	text string
}

func (b *MemoryBoard) Write(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	return nil
}

func (b *MemoryBoard) Read() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, nil
}

func (b *MemoryBoard) Clear() error {
	return b.Write("")
}
