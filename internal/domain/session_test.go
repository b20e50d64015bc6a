package domain

import (
	"strings"
	"testing"
	"time"
)

func TestAppendKeepsTimestampOrder(t *testing.T) {
	var s ConversationSession
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	s.Append(RoleUser, "first", base)
	s.Append(RoleAssistant, "second", base.Add(-time.Minute))

	if s.Turns[1].Timestamp.Before(s.Turns[0].Timestamp) {
		t.Errorf("turn timestamps out of order: %v then %v", s.Turns[0].Timestamp, s.Turns[1].Timestamp)
	}
	if !s.UpdatedAt.Equal(s.Turns[1].Timestamp) {
		t.Errorf("UpdatedAt = %v, want the last turn's timestamp", s.UpdatedAt)
	}
}

func TestDeriveTitleStripsSeedFraming(t *testing.T) {
	var s ConversationSession
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.Append(RoleUser, "Original text to summary:\n\nA short article about bees.", now)

	if got := s.DeriveTitle(now); got != "A short article about bees." {
		t.Errorf("DeriveTitle() = %q", got)
	}
}

func TestDeriveTitleTruncatesLongText(t *testing.T) {
	var s ConversationSession
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	long := strings.Repeat("word ", 30)
	s.Append(RoleUser, long, now)

	got := s.DeriveTitle(now)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("DeriveTitle() = %q, want ellipsis suffix", got)
	}
	if n := len([]rune(got)); n != titleMaxRunes+3 {
		t.Errorf("title length = %d runes, want %d", n, titleMaxRunes+3)
	}
}

func TestDeriveTitleCountsRunesNotBytes(t *testing.T) {
	var s ConversationSession
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.Append(RoleUser, strings.Repeat("日", titleMaxRunes+10), now)

	got := s.DeriveTitle(now)
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != titleMaxRunes {
		t.Errorf("truncated to %d runes, want %d", n, titleMaxRunes)
	}
}

func TestDeriveTitleEmptySessionFallsBack(t *testing.T) {
	var s ConversationSession
	now := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

	if got := s.DeriveTitle(now); got != "Chat 2026-03-14 09:05" {
		t.Errorf("DeriveTitle() = %q", got)
	}
}

func TestTailTranscript(t *testing.T) {
	var s ConversationSession
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.Append(RoleUser, "question one", base)
	s.Append(RoleAssistant, "answer one", base.Add(time.Second))
	s.Append(RoleUser, "question two", base.Add(2*time.Second))

	got := s.TailTranscript(2)
	if strings.Contains(got, "question one") {
		t.Errorf("transcript should window out old turns:\n%s", got)
	}
	if !strings.Contains(got, "Assistant: answer one") || !strings.Contains(got, "User: question two") {
		t.Errorf("transcript = %q", got)
	}
}

func TestTailTranscriptZeroWindowKeepsAll(t *testing.T) {
	var s ConversationSession
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.Append(RoleUser, "turn", base.Add(time.Duration(i)*time.Second))
	}

	if got := strings.Count(s.TailTranscript(0), "User: turn"); got != 5 {
		t.Errorf("unwindowed transcript has %d turns, want 5", got)
	}
}
