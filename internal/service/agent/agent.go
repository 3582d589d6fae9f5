package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

const (
	DefaultWindowSize   = 10
	DefaultContextLimit = 5

	// FallbackReply is sent when the model answers with nothing.
	FallbackReply = "I apologize, I'm having trouble processing that request. Please try again."

	MessageTypeSMS = "sms"
)

var (
	replyOptions      = core.CompletionOptions{Temperature: 0.7, MaxTokens: 300}
	extractionOptions = core.CompletionOptions{Temperature: 0.3, MaxTokens: 500, JSONMode: true}
	bookingOptions    = core.CompletionOptions{Temperature: 0.2, JSONMode: true}
)

type Options struct {
	WindowSize   int
	ContextLimit int
	Location     *time.Location
}

// Agent is the client-facing concierge. It turns one inbound message into a
// reply using the client's profile, semantic memory and recent conversation,
// then folds whatever it learned back into the profile.
type Agent struct {
	clients  core.ClientsRepository
	profiles core.ProfilesRepository
	messages core.MessagesRepository
	memory   core.Memory
	ai       core.Completer

	window       int
	contextLimit int
	loc          *time.Location
	now          func() time.Time
}

// Reply is the outcome of a single chat turn.
type Reply struct {
	Text   string      `json:"response"`
	Client core.Client `json:"client"`
}

func NewAgent(
	clients core.ClientsRepository,
	profiles core.ProfilesRepository,
	messages core.MessagesRepository,
	memory core.Memory,
	ai core.Completer,
	opts Options,
) *Agent {
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.ContextLimit <= 0 {
		opts.ContextLimit = DefaultContextLimit
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Agent{
		clients:      clients,
		profiles:     profiles,
		messages:     messages,
		memory:       memory,
		ai:           ai,
		window:       opts.WindowSize,
		contextLimit: opts.ContextLimit,
		loc:          opts.Location,
		now:          time.Now,
	}
}

// GenerateReply runs one chat turn for the client behind phone. A client and
// an empty profile are created on first contact. Only completion and
// relational store failures are returned; memory and profile extraction
// problems are logged and the turn carries on.
func (a *Agent) GenerateReply(ctx context.Context, phone, message string) (Reply, error) {
	ctx = log.WithComponent(ctx, "agent")
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	client, err := a.resolveClient(ctx, phone)
	if err != nil {
		return Reply{}, err
	}

	var (
		profile  *core.RagProfile
		semantic []string
		history  []core.ChatMessage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := a.loadProfile(gctx, client.ID)
		profile = p
		return err
	})
	g.Go(func() error {
		semantic = a.memory.FetchClientContext(gctx, client.ID, message, a.contextLimit)
		return nil
	})
	g.Go(func() error {
		h, err := a.messages.ListMessages(gctx, client.ID, a.window)
		if err != nil {
			return fmt.Errorf("failed to fetch history: %w", err)
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return Reply{}, err
	}

	prompt := buildSystemPrompt(renderProfile(client, profile, a.loc), renderSemantic(semantic), a.now().In(a.loc))
	msgs := make([]core.Message, 0, len(history)+2)
	msgs = append(msgs, core.Message{Role: core.RoleSystem, Content: prompt})
	msgs = append(msgs, toTurns(history)...)
	msgs = append(msgs, core.Message{Role: core.RoleUser, Content: message})

	text, err := a.ai.Complete(ctx, msgs, replyOptions)
	switch {
	case errors.Is(err, core.ErrEmptyReply):
		text = FallbackReply
	case err != nil:
		return Reply{}, fmt.Errorf("generate reply: %w", err)
	}

	if ctx.Err() == nil {
		a.learn(ctx, client.ID, message, text)
	}

	return Reply{Text: text, Client: client}, nil
}

// HandleMessage is GenerateReply plus persistence: the inbound message and the
// reply are stored and the exchange is written to semantic memory.
func (a *Agent) HandleMessage(ctx context.Context, phone, message string) (Reply, error) {
	reply, err := a.GenerateReply(ctx, phone, message)
	if err != nil {
		return Reply{}, err
	}

	userMsg, err := a.messages.AddMessage(ctx, core.ChatMessage{
		SenderID:   reply.Client.ID,
		ReceiverID: core.BotSenderID,
		Content:    message,
		Type:       MessageTypeSMS,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to save user message: %w", err)
	}

	if _, err := a.messages.AddMessage(ctx, core.ChatMessage{
		SenderID:   core.BotSenderID,
		ReceiverID: reply.Client.ID,
		Content:    reply.Text,
		Type:       MessageTypeSMS,
	}); err != nil {
		return Reply{}, fmt.Errorf("failed to save bot message: %w", err)
	}

	a.memory.IngestClientMessage(ctx, reply.Client, userMsg, reply.Text)
	return reply, nil
}

func (a *Agent) resolveClient(ctx context.Context, phone string) (core.Client, error) {
	client, err := a.clients.GetClientByPhone(ctx, phone)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Client{}, fmt.Errorf("failed to look up client: %w", err)
	}

	client, err = a.clients.CreateClient(ctx, core.Client{Name: core.NewClientName, Phone: phone})
	if err != nil {
		return core.Client{}, fmt.Errorf("failed to create client: %w", err)
	}
	if err := a.profiles.CreateProfile(ctx, core.RagProfile{
		ClientID:    client.ID,
		Summary:     core.NewClientSummary,
		Preferences: []string{},
		Notes:       []string{},
	}); err != nil {
		return core.Client{}, fmt.Errorf("failed to create profile: %w", err)
	}

	log.FromCtx(ctx).Info().Str("client_id", client.ID).Str("phone", phone).Msg("new client")
	return client, nil
}

// loadProfile returns nil when the client has no profile.
func (a *Agent) loadProfile(ctx context.Context, clientID string) (*core.RagProfile, error) {
	p, err := a.profiles.GetProfile(ctx, clientID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

func toTurns(history []core.ChatMessage) []core.Message {
	turns := make([]core.Message, 0, len(history))
	for _, m := range history {
		role := core.RoleUser
		if m.SenderID == core.BotSenderID {
			role = core.RoleAssistant
		}
		turns = append(turns, core.Message{Role: role, Content: m.Content})
	}
	return turns
}
