package usecase

import (
	"errors"
	"strings"
	"testing"

	maildomain "replydesk/internal/mail/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryEmailRepository is an in-process stand-in for the gorm repository.
// Its ReassignSessions mirrors the SQL predicate: case-insensitive substring
// match on the raw stored sender, equality on the normalized subject.
type memoryEmailRepository struct {
	emails []*maildomain.Email
	nextID uint
	fail   error
}

func (m *memoryEmailRepository) FindByMessageID(messageID string) (*maildomain.Email, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	for _, e := range m.emails {
		if e.MessageID == messageID {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memoryEmailRepository) FindByMessageOrReplyID(id string) (*maildomain.Email, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	for _, e := range m.emails {
		if e.MessageID == id || e.InReplyTo == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memoryEmailRepository) Insert(email *maildomain.Email) (bool, error) {
	if m.fail != nil {
		return false, m.fail
	}
	for _, e := range m.emails {
		if e.MessageID == email.MessageID {
			return false, nil
		}
	}
	m.nextID++
	email.ID = m.nextID
	m.emails = append(m.emails, email)
	return true, nil
}

func (m *memoryEmailRepository) ReassignSessions(senderEmail, subjectNorm, newSessionID string, limit int) (int64, error) {
	if m.fail != nil {
		return 0, m.fail
	}
	var updated int64
	for _, e := range m.emails {
		if updated >= int64(limit) {
			break
		}
		if e.SessionID == newSessionID {
			continue
		}
		senderHit := strings.Contains(strings.ToLower(e.SenderEmail), senderEmail)
		subjectHit := subjectNorm != "" && e.SubjectNorm == subjectNorm
		if senderHit || subjectHit {
			e.SessionID = newSessionID
			updated++
		}
	}
	return updated, nil
}

func (m *memoryEmailRepository) ListAll() ([]*maildomain.Email, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	out := make([]*maildomain.Email, len(m.emails))
	copy(out, m.emails)
	return out, nil
}

// racingEmailRepository simulates losing an insert race: the dedup lookup
// sees nothing, the insert reports a conflict, and only then does the
// winner's row become visible.
type racingEmailRepository struct {
	winner        maildomain.Email
	insertTried   bool
	reassignCalls int
}

func (r *racingEmailRepository) FindByMessageID(messageID string) (*maildomain.Email, error) {
	if r.insertTried && messageID == r.winner.MessageID {
		w := r.winner
		return &w, nil
	}
	return nil, nil
}

func (r *racingEmailRepository) FindByMessageOrReplyID(id string) (*maildomain.Email, error) {
	return r.FindByMessageID(id)
}

func (r *racingEmailRepository) Insert(email *maildomain.Email) (bool, error) {
	r.insertTried = true
	return false, nil
}

func (r *racingEmailRepository) ReassignSessions(senderEmail, subjectNorm, newSessionID string, limit int) (int64, error) {
	r.reassignCalls++
	return 0, nil
}

func (r *racingEmailRepository) ListAll() ([]*maildomain.Email, error) {
	return nil, nil
}

func (m *memoryEmailRepository) sessionOf(t *testing.T, messageID string) string {
	t.Helper()
	e, err := m.FindByMessageID(messageID)
	require.NoError(t, err)
	require.NotNil(t, e, "message %s not stored", messageID)
	return e.SessionID
}

func newTestUsecase() (*memoryEmailRepository, EmailUsecase) {
	repo := &memoryEmailRepository{}
	return repo, NewEmailUsecase(repo, 0)
}

func TestIngestSeedsNewSession(t *testing.T) {
	_, uc := newTestUsecase()

	sessionID, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		Subject:     "Hi",
		Body:        "hello",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "M1", sessionID)
}

func TestIngestIsIdempotent(t *testing.T) {
	repo, uc := newTestUsecase()

	in := IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		Subject:     "Hi",
		Role:        maildomain.RoleUser,
	}
	first, err := uc.IngestEmail(in)
	require.NoError(t, err)
	second, err := uc.IngestEmail(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, repo.emails, 1)
}

func TestIngestFollowsInReplyTo(t *testing.T) {
	_, uc := newTestUsecase()

	_, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		Subject:     "Hi",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)

	sessionID, err := uc.IngestEmail(IngestInput{
		SenderEmail: "b@x.com",
		MessageID:   "M2",
		InReplyTo:   "M1",
		Subject:     "Re: Hi",
		Role:        maildomain.RoleHost,
	})
	require.NoError(t, err)
	assert.Equal(t, "M1", sessionID)
}

func TestIngestIgnoresUnresolvableInReplyTo(t *testing.T) {
	_, uc := newTestUsecase()

	sessionID, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		InReplyTo:   "never-stored",
		Subject:     "Hi",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "M1", sessionID)
}

func TestRetroactiveMergeBySender(t *testing.T) {
	repo, uc := newTestUsecase()

	_, err := uc.IngestEmail(IngestInput{
		SenderEmail: "Alice <alice@x.com>",
		MessageID:   "M1",
		Subject:     "First question",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)

	sessionID, err := uc.IngestEmail(IngestInput{
		SenderEmail: "alice@x.com",
		MessageID:   "M3",
		InReplyTo:   "unrelated",
		Subject:     "Another question",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)
	require.Equal(t, "M3", sessionID)

	assert.Equal(t, "M3", repo.sessionOf(t, "M1"))
	assert.Equal(t, "M3", repo.sessionOf(t, "M3"))
}

func TestRetroactiveMergeBySubject(t *testing.T) {
	repo, uc := newTestUsecase()

	_, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		Subject:     "Order issue",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)

	sessionID, err := uc.IngestEmail(IngestInput{
		SenderEmail: "b@y.com",
		MessageID:   "M2",
		Subject:     "Re: Order issue",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)
	require.Equal(t, "M2", sessionID)

	assert.Equal(t, "M2", repo.sessionOf(t, "M1"))
}

func TestHostRoleNeverMerges(t *testing.T) {
	repo, uc := newTestUsecase()

	_, err := uc.IngestEmail(IngestInput{
		SenderEmail: "support@host.com",
		MessageID:   "M1",
		Subject:     "Order issue",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)

	sessionID, err := uc.IngestEmail(IngestInput{
		SenderEmail: "support@host.com",
		MessageID:   "M2",
		Subject:     "Order issue",
		Role:        maildomain.RoleHost,
	})
	require.NoError(t, err)
	require.Equal(t, "M2", sessionID)

	// M1 keeps its own session even though sender and subject match.
	assert.Equal(t, "M1", repo.sessionOf(t, "M1"))
}

func TestMergeHonorsRowCap(t *testing.T) {
	repo := &memoryEmailRepository{}
	uc := NewEmailUsecase(repo, 1)

	for _, id := range []string{"M1", "M2"} {
		_, err := uc.IngestEmail(IngestInput{
			SenderEmail: "a@x.com",
			MessageID:   id,
			Subject:     "Topic " + id,
			Role:        maildomain.RoleHost, // host role so no merging between the seeds
		})
		require.NoError(t, err)
	}

	_, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M3",
		Subject:     "Topic M3",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)

	merged := 0
	for _, id := range []string{"M1", "M2"} {
		if repo.sessionOf(t, id) == "M3" {
			merged++
		}
	}
	assert.Equal(t, 1, merged)
}

func TestInsertConflictReturnsWinnerSession(t *testing.T) {
	repo := &racingEmailRepository{
		winner: maildomain.Email{
			SenderEmail: "a@x.com",
			MessageID:   "M1",
			SessionID:   "W1",
			Role:        maildomain.RoleUser,
		},
	}
	uc := NewEmailUsecase(repo, 0)

	sessionID, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		Subject:     "Hi",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)

	// The loser adopts whatever session the winner stored and must not
	// run a merge of its own.
	assert.Equal(t, "W1", sessionID)
	assert.Equal(t, 0, repo.reassignCalls)
}

func TestEmptySubjectNeverMergesBySubject(t *testing.T) {
	repo, uc := newTestUsecase()

	_, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		Subject:     "",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)

	sessionID, err := uc.IngestEmail(IngestInput{
		SenderEmail: "b@y.com",
		MessageID:   "M2",
		Subject:     "",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)
	require.Equal(t, "M2", sessionID)

	// Both subjects normalize to empty; that alone must not join them.
	assert.Equal(t, "M1", repo.sessionOf(t, "M1"))
}

func TestIngestRejectsMalformedInput(t *testing.T) {
	_, uc := newTestUsecase()

	_, err := uc.IngestEmail(IngestInput{SenderEmail: "a@x.com", Role: maildomain.RoleUser})
	assert.ErrorIs(t, err, maildomain.ErrMalformedInput)

	_, err = uc.IngestEmail(IngestInput{MessageID: "M1", Role: maildomain.RoleUser})
	assert.ErrorIs(t, err, maildomain.ErrMalformedInput)
}

func TestIngestWrapsStorageErrors(t *testing.T) {
	repo, uc := newTestUsecase()
	repo.fail = errors.New("connection refused")

	_, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		Role:        maildomain.RoleUser,
	})
	assert.ErrorIs(t, err, maildomain.ErrStorage)
}

func TestIsMessageProcessed(t *testing.T) {
	_, uc := newTestUsecase()

	_, err := uc.IngestEmail(IngestInput{
		SenderEmail: "a@x.com",
		MessageID:   "M1",
		Subject:     "Hi",
		Role:        maildomain.RoleUser,
	})
	require.NoError(t, err)

	_, err = uc.IngestEmail(IngestInput{
		SenderEmail: "support@host.com",
		MessageID:   "R1",
		InReplyTo:   "M1",
		Subject:     "Re: Hi",
		Role:        maildomain.RoleHost,
	})
	require.NoError(t, err)

	done, err := uc.IsMessageProcessed("M1")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = uc.IsMessageProcessed("M9")
	require.NoError(t, err)
	assert.False(t, done)
}
