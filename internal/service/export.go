package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/velaphi/legal-assist/internal/domain"
	"github.com/velaphi/legal-assist/internal/llm"
)

// Export formats.
const (
	FormatText   = "text"
	FormatLetter = "letter"
	FormatEmail  = "email"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ExportService renders the active conversation as a shareable document.
// Plain text is a local transcript; letter and email are reformatted by the
// completion service and need a credential.
type ExportService struct {
	chat           *ChatService
	users          domain.UserRepository
	completers     llm.Factory
	requestTimeout time.Duration
}

// NewExportService creates a new export service
func NewExportService(
	chat *ChatService,
	users domain.UserRepository,
	completers llm.Factory,
	requestTimeout time.Duration,
) *ExportService {
	return &ExportService{
		chat:           chat,
		users:          users,
		completers:     completers,
		requestTimeout: requestTimeout,
	}
}

// Export renders the user's active conversation in the requested format.
func (s *ExportService) Export(ctx context.Context, userEmail, format string) (string, error) {
	view := s.chat.Current(ctx, userEmail)
	transcript := BuildTranscript(view.Agent, view.Messages)

	switch format {
	case FormatText:
		return transcript, nil
	case FormatLetter, FormatEmail:
	default:
		return "", ErrUnsupportedFormat
	}

	user, err := s.users.Get(ctx, userEmail)
	if err != nil {
		return "", err
	}
	if user == nil || user.APIKeys[ProviderGemini] == "" {
		return "", domain.ErrCredentialMissing
	}

	callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	resp, err := s.completers(user.APIKeys[ProviderGemini]).Complete(callCtx, llm.BuildExportPrompt(transcript, format, view.Agent.Name))
	if err != nil {
		return "", &domain.CompletionError{Err: err}
	}
	return resp.Text, nil
}

// BuildTranscript flattens a conversation into speaker-labelled lines. User
// messages are labelled "You:", AI messages with the agent's display name.
func BuildTranscript(agent domain.Agent, messages []domain.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		label := agent.Name + ":"
		if m.Sender == domain.SenderUser {
			label = "You:"
		}
		lines = append(lines, label+" "+m.Text)
	}
	return strings.Join(lines, "\n\n")
}
