package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/llm"
	"github.com/velaphi/legal-assist/internal/security"
)

// SubmissionState tags the ingestion workflow state machine.
type SubmissionState string

const (
	SubmissionIdle       SubmissionState = "idle"
	SubmissionProcessing SubmissionState = "processing"
	SubmissionCompleted  SubmissionState = "completed"
	SubmissionFailed     SubmissionState = "failed"
)

// Submission is the current ingestion item for a user. At most one exists at
// a time; starting a new one discards the prior preview.
type Submission struct {
	State   SubmissionState          `json:"state"`
	AgentID string                   `json:"agent_id,omitempty"`
	Source  string                   `json:"source,omitempty"`
	Preview *domain.KnowledgeContent `json:"preview,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// EducationService turns URLs and uploaded documents into structured
// knowledge entries through a schema-constrained completion call, with a
// human approval gate before anything reaches the knowledge base.
type EducationService struct {
	mu      sync.Mutex
	current map[string]*Submission

	users          domain.UserRepository
	knowledge      domain.KnowledgeRepository
	completers     llm.Factory
	requestTimeout time.Duration
}

// NewEducationService creates a new education service
func NewEducationService(
	users domain.UserRepository,
	knowledge domain.KnowledgeRepository,
	completers llm.Factory,
	requestTimeout time.Duration,
) *EducationService {
	return &EducationService{
		current:        make(map[string]*Submission),
		users:          users,
		knowledge:      knowledge,
		completers:     completers,
		requestTimeout: requestTimeout,
	}
}

// SubmitURL ingests a web source for the agent and returns the preview.
func (s *EducationService) SubmitURL(ctx context.Context, userEmail, agentID, rawURL string) (*Submission, error) {
	if err := security.ValidateSourceURL(rawURL); err != nil {
		return nil, err
	}
	return s.process(ctx, userEmail, agentID, strings.TrimSpace(rawURL))
}

// SubmitFile ingests an uploaded document by name. The file itself is not
// parsed; the name becomes a synthetic file:// locator.
func (s *EducationService) SubmitFile(ctx context.Context, userEmail, agentID, fileName string) (*Submission, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, domain.ErrInvalidURL
	}
	return s.process(ctx, userEmail, agentID, "file://"+fileName)
}

func (s *EducationService) process(ctx context.Context, userEmail, agentID, source string) (*Submission, error) {
	apiKey, err := s.resolveCredential(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	agent := domain.AgentByID(agentID)

	// Starting a new submission discards any prior preview.
	sub := &Submission{
		State:   SubmissionProcessing,
		AgentID: agent.ID,
		Source:  source,
	}
	s.setCurrent(userEmail, sub)

	callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	resp, err := s.completers(apiKey).Complete(callCtx, llm.BuildIngestionPrompt(source))
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("ingestion completion failed")
		return s.fail(userEmail, sub, (&domain.CompletionError{Err: err}).Message()), nil
	}

	var content domain.KnowledgeContent
	if err := json.Unmarshal([]byte(resp.Text), &content); err != nil {
		log.Error().Err(err).Str("source", source).Msg("ingestion response did not match schema")
		return s.fail(userEmail, sub, "The document analysis returned an unreadable result. Please try again."), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub.State = SubmissionCompleted
	sub.Preview = &content
	return sub.clone(), nil
}

// Approve commits the current preview to the knowledge base, stamped with
// the approver and time. Requires a completed, error-free preview.
func (s *EducationService) Approve(ctx context.Context, userEmail string) (*domain.KnowledgeEntry, error) {
	s.mu.Lock()
	sub := s.current[userEmail]
	if sub == nil || sub.State == SubmissionIdle || sub.State == SubmissionProcessing {
		s.mu.Unlock()
		return nil, domain.ErrNoSubmission
	}
	if sub.State == SubmissionFailed || sub.Error != "" || sub.Preview == nil {
		s.mu.Unlock()
		return nil, domain.ErrPreviewFailed
	}

	entry := &domain.KnowledgeEntry{
		ID:         uuid.New().String(),
		AgentID:    sub.AgentID,
		URL:        sub.Source,
		Content:    *sub.Preview,
		ApprovedBy: userEmail,
		ApprovedAt: time.Now(),
	}
	delete(s.current, userEmail)
	s.mu.Unlock()

	// Optimistic commit: a persistence failure is logged, not surfaced; the
	// approved entry is still returned to the caller's view.
	if err := s.knowledge.Upsert(ctx, entry); err != nil {
		log.Error().Err(err).Str("source", entry.URL).Msg("failed to persist knowledge entry")
	}

	return entry, nil
}

// Reject clears the current submission without touching the knowledge base.
func (s *EducationService) Reject(ctx context.Context, userEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current[userEmail] == nil {
		return domain.ErrNoSubmission
	}
	delete(s.current, userEmail)
	return nil
}

// Current returns the user's submission state; Idle if none.
func (s *EducationService) Current(ctx context.Context, userEmail string) *Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := s.current[userEmail]
	if sub == nil {
		return &Submission{State: SubmissionIdle}
	}
	return sub.clone()
}

func (s *EducationService) setCurrent(userEmail string, sub *Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current[userEmail] = sub
}

func (s *EducationService) fail(userEmail string, sub *Submission, msg string) *Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.State = SubmissionFailed
	sub.Error = msg
	return sub.clone()
}

func (s *EducationService) resolveCredential(ctx context.Context, userEmail string) (string, error) {
	user, err := s.users.Get(ctx, userEmail)
	if err != nil {
		return "", err
	}
	if user == nil || user.APIKeys[ProviderGemini] == "" {
		return "", domain.ErrCredentialMissing
	}
	return user.APIKeys[ProviderGemini], nil
}

func (sub *Submission) clone() *Submission {
	out := *sub
	if sub.Preview != nil {
		preview := *sub.Preview
		out.Preview = &preview
	}
	return &out
}
