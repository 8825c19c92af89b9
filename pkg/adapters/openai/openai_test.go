package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	api "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/adapters/openai"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/ports"
	"github.com/aretw0/whodunit/pkg/scenario"
)

// fakeAPI serves canned chat completions and records the requests.
type fakeAPI struct {
	mu       sync.Mutex
	requests []api.ChatCompletionRequest
	auth     []string
	reply    string
	status   int
	noChoice bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req api.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	reply, status, noChoice := f.reply, f.status, f.noChoice
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream overloaded","type":"server_error"}}`))
		return
	}
	resp := api.ChatCompletionResponse{
		ID:     "cmpl-1",
		Object: "chat.completion",
		Model:  req.Model,
		Usage:  api.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
	if !noChoice {
		resp.Choices = []api.ChatCompletionChoice{{
			Index:        0,
			Message:      api.ChatCompletionMessage{Role: api.ChatMessageRoleAssistant, Content: reply},
			FinishReason: api.FinishReasonStop,
		}}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeAPI) last() api.ChatCompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func setup(t *testing.T, reply string) (*fakeAPI, *openai.Client) {
	t.Helper()
	fake := &fakeAPI{reply: reply}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := openai.New(openai.Config{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "test/model", MaxTokens: 300})
	return fake, client
}

func decisionRequest() ports.DecisionRequest {
	return ports.DecisionRequest{
		Character: domain.Character{Name: "Graves", Description: "The butler."},
		Knowledge: "You are Graves.\nYour alibi: Seeing to the fires.",
		Location:  domain.Location{ID: "hall", Name: "The Great Hall"},
		CoPresent: []string{"Mrs. Pike"},
		Adjacent:  []domain.Location{{ID: "kitchen", Name: "The Kitchen"}},
		Turn:      3,
	}
}

func TestDecide(t *testing.T) {
	fake, client := setup(t, "```json\n{\"action\": \"MOVE\", \"target\": \" kitchen \", \"internal_thought\": \"Bread.\", \"reason\": \"hungry\"}\n```")

	d, err := client.Decide(context.Background(), decisionRequest())
	require.NoError(t, err)
	assert.Equal(t, ports.Decision{Action: domain.ActionMove, Target: "kitchen", InternalThought: "Bread."}, d)

	req := fake.last()
	assert.Equal(t, "test/model", req.Model)
	assert.Equal(t, 256, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, api.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Your alibi: Seeing to the fires.")
	assert.Contains(t, req.Messages[0].Content, "Others here: Mrs. Pike")
	assert.Contains(t, req.Messages[0].Content, "kitchen (The Kitchen)")
	assert.Equal(t, "Bearer test-key", fake.auth[0])
}

func TestDecide_Malformed(t *testing.T) {
	tests := map[string]string{
		"prose":          "I think Graves should wait.",
		"unknown action": `{"action": "dance"}`,
		"missing action": `{"target": "hall"}`,
	}
	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			_, client := setup(t, reply)
			_, err := client.Decide(context.Background(), decisionRequest())
			assert.ErrorIs(t, err, domain.ErrOracleFailure)
		})
	}
}

func TestDecide_Upstream(t *testing.T) {
	fake, client := setup(t, "")
	fake.status = http.StatusServiceUnavailable
	_, err := client.Decide(context.Background(), decisionRequest())
	assert.ErrorIs(t, err, domain.ErrOracleFailure)

	fake.status = 0
	fake.noChoice = true
	_, err = client.Decide(context.Background(), decisionRequest())
	assert.ErrorIs(t, err, openai.ErrEmptyCompletion)
}

func TestConverse(t *testing.T) {
	fake, client := setup(t, "  I was seeing to the fires, sir.  ")

	reply, err := client.Converse(context.Background(), ports.DialogueRequest{
		Character: domain.Character{Name: "Graves"},
		Knowledge: "You are Graves.",
		Location:  domain.Location{ID: "hall", Name: "The Great Hall"},
		Player:    "Inspector",
		History: []ports.Exchange{
			{Role: ports.RolePlayer, Content: "Good evening."},
			{Role: ports.RoleNPC, Content: "Evening, sir."},
		},
		Message: "Where were you at ten?",
	})
	require.NoError(t, err)
	assert.Equal(t, "I was seeing to the fires, sir.", reply)

	req := fake.last()
	assert.Equal(t, 300, req.MaxTokens)
	require.Len(t, req.Messages, 4)
	assert.Contains(t, req.Messages[0].Content, "The player (Inspector) is talking to you.")
	assert.Equal(t, api.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, api.ChatMessageRoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "Where were you at ten?", req.Messages[3].Content)
}

const generated = `Here is your mystery:
{
  "title": "Murder on the Night Train",
  "setting": "A sleeper train crossing the Alps",
  "murder": {"victim": "Count Orlov", "killer": "Nadia", "time_of_death": 23},
  "locations": [
    {"id": "dining", "name": "Dining Car", "connected_to": ["sleeper"]},
    {"id": "sleeper", "name": "Sleeper Car", "connected_to": "dining"}
  ],
  "clues": [
    {"id": "ticket", "description": "A torn ticket.", "points_to": "Nadia", "difficulty": "EASY", "found_at": "dining", "type": "document"}
  ],
  "npc_knowledge": {
    "Nadia": {"alibi": "Asleep.", "secrets": "Travels under a false name."},
    "Porter": {"alibi": "Making beds."}
  },
  "opening_narration": "The train shudders to a halt."
}
Enjoy!`

func TestGenerate(t *testing.T) {
	fake, client := setup(t, generated)

	sc, err := client.Generate(context.Background(), ports.GenerationRequest{
		Player:         domain.Character{Name: "Inspector", Role: domain.RoleDetective},
		NPCs:           []domain.Character{{Name: "Nadia"}, {Name: "Porter"}},
		Victim:         domain.Character{Name: "Count Orlov"},
		LocationsCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Murder on the Night Train", sc.Title)
	assert.Equal(t, "23", sc.Murder.TimeOfDeath)
	assert.Equal(t, []string{"dining"}, sc.Locations[1].ConnectedTo)
	assert.Equal(t, []string{"Travels under a false name."}, sc.NPCKnowledge["Nadia"].Secrets)

	req := fake.last()
	assert.Equal(t, 4096, req.MaxTokens)
	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, "Use exactly 2 locations")
	assert.Contains(t, prompt, `"victim": "Count Orlov"`)
	assert.Contains(t, prompt, "Name: Porter")
}

func TestGenerate_Invalid(t *testing.T) {
	_, client := setup(t, `{"title": "", "murder": {"victim": "A", "killer": "A"}}`)
	_, err := client.Generate(context.Background(), ports.GenerationRequest{})
	require.Error(t, err)
	assert.NotEmpty(t, scenario.ValidationErrors(err))
}

func TestNarrateEnding(t *testing.T) {
	fake, client := setup(t, "The storm broke at dawn.")

	ending, err := client.NarrateEnding(context.Background(), ports.EndingRequest{
		Scenario: &scenario.Scenario{Title: "Night Train", Murder: scenario.Murder{Victim: "Count Orlov", Killer: "Nadia"}},
		Player:   domain.Character{Name: "Inspector", Role: domain.RoleDetective},
		Accused:  "Porter",
		Outcome:  domain.OutcomeWrongAccusation,
	})
	require.NoError(t, err)
	assert.Equal(t, "The storm broke at dawn.", ending)

	prompt := fake.last().Messages[1].Content
	assert.Contains(t, prompt, "accused: Porter")
	assert.Contains(t, prompt, "Outcome: wrong")
	assert.Contains(t, prompt, "No reasoning provided")
	assert.True(t, strings.Contains(prompt, "killed by Nadia"))
}

func TestNew_Defaults(t *testing.T) {
	c := openai.New(openai.Config{})
	assert.Equal(t, openai.DefaultModel, c.Model())
}
