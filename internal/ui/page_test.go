package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kbase/internal/client"
	"kbase/internal/model"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) SubmitQuestion(ctx context.Context, text, modelID string) (*model.Answer, error) {
	args := m.Called(ctx, text, modelID)
	if a := args.Get(0); a != nil {
		return a.(*model.Answer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) UploadFiles(ctx context.Context, files []client.File) (*model.UploadResult, error) {
	args := m.Called(ctx, files)
	if r := args.Get(0); r != nil {
		return r.(*model.UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func intPtr(n int) *int { return &n }

func newTestPage(t *testing.T) (*Page, *mockAPI, *MemoryStore) {
	t.Helper()
	api := &mockAPI{}
	t.Cleanup(func() { api.AssertExpectations(t) })
	store := NewMemoryStore()
	return NewPage(api, store, ""), api, store
}

func TestNewPage_Defaults(t *testing.T) {
	page, _, _ := newTestPage(t)

	assert.Equal(t, PhaseIdle, page.QuestionPhase())
	assert.Equal(t, PhaseIdle, page.UploadPhase())
	assert.Nil(t, page.Answer())
	assert.Empty(t, page.ErrorMessage())
	assert.True(t, page.CredentialPanelVisible())
	assert.False(t, page.CanSubmit())
	assert.Equal(t, dropzoneCaption, page.DropzoneCaption())
	assert.Equal(t, DefaultModel, page.model)
}

func TestPage_SubmitQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("blank text never reaches the server", func(t *testing.T) {
		for _, text := range []string{"", "   ", "\t\n"} {
			page, _, _ := newTestPage(t)
			page.SetQuestion(text)

			assert.False(t, page.CanSubmit())
			page.SubmitQuestion(ctx)
			assert.Equal(t, PhaseIdle, page.QuestionPhase())
		}
	})

	t.Run("success collapses every snippet", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		page.SetQuestion("What is X?")
		api.On("SubmitQuestion", ctx, "What is X?", DefaultModel).Return(&model.Answer{
			Answer: "X is Y.",
			Context: []model.ContextSnippet{
				{Title: "a.md", Text: strings.Repeat("a", 300)},
				{Title: "b.md", Text: "short"},
			},
			Tokens: intPtr(42),
		}, nil).Once()

		page.SubmitQuestion(ctx)

		require.Equal(t, PhaseSuccess, page.QuestionPhase())
		a := page.Answer()
		require.NotNil(t, a)
		assert.Equal(t, "X is Y.", a.Answer)
		assert.Equal(t, 42, *a.Tokens)
		require.Len(t, a.Context, 2)
		for _, s := range a.Context {
			assert.True(t, s.Collapsed)
		}
		assert.Equal(t, strings.Repeat("a", 222)+"...", a.Context[0].Body())
		assert.Equal(t, "short", a.Context[1].Body())
		assert.Empty(t, page.ErrorMessage())
	})

	t.Run("a new answer replaces the previous one wholesale", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		page.SetQuestion("first")
		api.On("SubmitQuestion", ctx, "first", DefaultModel).Return(&model.Answer{
			Answer:  "one",
			Context: []model.ContextSnippet{{Title: "a", Text: "1"}, {Title: "b", Text: "2"}},
			Tokens:  intPtr(10),
		}, nil).Once()
		page.SubmitQuestion(ctx)
		page.ToggleSnippet(0)

		page.SetQuestion("second")
		api.On("SubmitQuestion", ctx, "second", DefaultModel).Return(&model.Answer{
			Answer:  "two",
			Context: []model.ContextSnippet{{Title: "c", Text: "3"}},
		}, nil).Once()
		page.SubmitQuestion(ctx)

		a := page.Answer()
		require.NotNil(t, a)
		assert.Equal(t, "two", a.Answer)
		assert.Nil(t, a.Tokens)
		require.Len(t, a.Context, 1)
		assert.Equal(t, "c", a.Context[0].Title)
		assert.True(t, a.Context[0].Collapsed)
	})

	t.Run("failure clears the answer and shows the error", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		page.SetQuestion("first")
		api.On("SubmitQuestion", ctx, "first", DefaultModel).Return(&model.Answer{Answer: "one"}, nil).Once()
		page.SubmitQuestion(ctx)

		page.SetQuestion("second")
		api.On("SubmitQuestion", ctx, "second", DefaultModel).
			Return(nil, &client.APIError{Status: 502, Message: "The language model provider is not available."}).Once()
		page.SubmitQuestion(ctx)

		assert.Equal(t, PhaseFailure, page.QuestionPhase())
		assert.Nil(t, page.Answer())
		assert.Equal(t, "The language model provider is not available.", page.ErrorMessage())
	})

	t.Run("error without message falls back", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		page.SetQuestion("q")
		api.On("SubmitQuestion", ctx, "q", DefaultModel).Return(nil, errors.New("")).Once()

		page.SubmitQuestion(ctx)

		assert.Equal(t, PhaseFailure, page.QuestionPhase())
		assert.Equal(t, "Error asking question", page.ErrorMessage())
	})

	t.Run("missing answer falls back", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		page.SetQuestion("q")
		api.On("SubmitQuestion", ctx, "q", DefaultModel).Return(nil, nil).Once()

		page.SubmitQuestion(ctx)

		assert.Equal(t, "Error asking question", page.ErrorMessage())
	})

	t.Run("model identifier is sent with the question", func(t *testing.T) {
		api := &mockAPI{}
		page := NewPage(api, NewMemoryStore(), "llama3")
		page.SetQuestion("hi")
		api.On("SubmitQuestion", ctx, "hi", "llama3").Return(&model.Answer{}, nil).Once()

		page.SubmitQuestion(ctx)

		api.AssertExpectations(t)
	})
}

func TestPage_BeginQuestion_WhileLoading(t *testing.T) {
	page, _, _ := newTestPage(t)
	page.SetQuestion("q")

	first, ok := page.BeginQuestion()
	require.True(t, ok)
	assert.False(t, page.CanSubmit())

	_, ok = page.BeginQuestion()
	assert.False(t, ok, "a second question must not start while one is in flight")

	assert.True(t, page.FinishQuestion(first.Seq, &model.Answer{Answer: "a"}, nil))
	assert.True(t, page.CanSubmit())
}

func TestPage_FinishQuestion_DiscardsStale(t *testing.T) {
	page, _, _ := newTestPage(t)
	page.SetQuestion("q")

	pending, ok := page.BeginQuestion()
	require.True(t, ok)

	assert.False(t, page.FinishQuestion(pending.Seq+1, &model.Answer{Answer: "wrong"}, nil))
	assert.Equal(t, PhaseLoading, page.QuestionPhase())

	assert.True(t, page.FinishQuestion(pending.Seq, &model.Answer{Answer: "right"}, nil))
	assert.False(t, page.FinishQuestion(pending.Seq, &model.Answer{Answer: "again"}, nil))
	assert.Equal(t, "right", page.Answer().Answer)
}

func TestPage_HandleKey(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		focus Focus
		want  bool
	}{
		{name: "enter in question", key: "enter", focus: FocusQuestion, want: true},
		{name: "enter in credential", key: "enter", focus: FocusCredential, want: false},
		{name: "enter in dropzone", key: "enter", focus: FocusDropzone, want: false},
		{name: "enter in context", key: "enter", focus: FocusContext, want: false},
		{name: "other key in question", key: "a", focus: FocusQuestion, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, _, _ := newTestPage(t)
			page.SetQuestion("What is X?")

			pending, ok := page.HandleKey(tt.key, tt.focus)

			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, "What is X?", pending.Text)
				assert.Equal(t, PhaseLoading, page.QuestionPhase())
			} else {
				assert.Equal(t, PhaseIdle, page.QuestionPhase())
			}
		})
	}
}

func TestPage_UploadFiles(t *testing.T) {
	ctx := context.Background()
	files := []client.File{{Name: "a.txt", Content: []byte("a")}, {Name: "b.bin", Content: []byte{0}}}

	t.Run("reports successes and failures verbatim", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		api.On("UploadFiles", ctx, files).Return(&model.UploadResult{
			SuccessfulFileNames: []string{"a.txt"},
			FailedFileNames:     map[string]string{"b.bin": "unsupported file type: application/octet-stream"},
		}, nil).Once()

		page.UploadFiles(ctx, files)

		assert.Equal(t, PhaseSuccess, page.UploadPhase())
		out := page.Outcome()
		assert.Equal(t, []string{"a.txt"}, out.Successful)
		assert.Equal(t, map[string]string{"b.bin": "unsupported file type: application/octet-stream"}, out.Failed)
		assert.Empty(t, page.ErrorMessage())
	})

	t.Run("missing fields become empty", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		api.On("UploadFiles", ctx, files).Return(&model.UploadResult{}, nil).Once()

		page.UploadFiles(ctx, files)

		out := page.Outcome()
		assert.NotNil(t, out.Successful)
		assert.Empty(t, out.Successful)
		assert.NotNil(t, out.Failed)
		assert.Empty(t, out.Failed)
	})

	t.Run("server error message is shown", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		api.On("UploadFiles", ctx, files).Return(nil, &client.APIError{Status: 400, Message: "too many files"}).Once()

		page.UploadFiles(ctx, files)

		assert.Equal(t, PhaseFailure, page.UploadPhase())
		assert.Equal(t, "Error: too many files", page.ErrorMessage())
		assert.Empty(t, page.Outcome().Successful)
	})

	t.Run("error without message falls back", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		api.On("UploadFiles", ctx, files).Return(nil, &client.APIError{Status: 500}).Once()

		page.UploadFiles(ctx, files)

		assert.Equal(t, "Error uploading files", page.ErrorMessage())
	})

	t.Run("transport error is shown", func(t *testing.T) {
		page, api, _ := newTestPage(t)
		api.On("UploadFiles", ctx, files).Return(nil, errors.New("connection refused")).Once()

		page.UploadFiles(ctx, files)

		assert.Equal(t, "Error: connection refused", page.ErrorMessage())
	})

	t.Run("nothing to upload is a no-op", func(t *testing.T) {
		page, _, _ := newTestPage(t)

		page.UploadFiles(ctx, nil)

		assert.Equal(t, PhaseIdle, page.UploadPhase())
	})
}

func TestPage_BeginUpload_ClearsPreviousOutcome(t *testing.T) {
	page, _, _ := newTestPage(t)
	files := []client.File{{Name: "a.txt", Content: []byte("a")}}

	first, ok := page.BeginUpload(files)
	require.True(t, ok)
	assert.Equal(t, loadingCaption, page.DropzoneCaption())
	page.FinishUpload(first.Seq, &model.UploadResult{SuccessfulFileNames: []string{"a.txt"}}, nil)
	require.Len(t, page.Outcome().Successful, 1)

	second, ok := page.BeginUpload(files)
	require.True(t, ok)
	assert.Empty(t, page.Outcome().Successful)

	_, ok = page.BeginUpload(files)
	assert.False(t, ok, "a second upload must not start while one is in flight")

	assert.False(t, page.FinishUpload(first.Seq, &model.UploadResult{SuccessfulFileNames: []string{"stale"}}, nil))
	assert.True(t, page.FinishUpload(second.Seq, &model.UploadResult{}, nil))
	assert.Equal(t, dropzoneCaption, page.DropzoneCaption())
}

func TestPage_FlowsAreIndependent(t *testing.T) {
	page, _, _ := newTestPage(t)
	page.SetQuestion("q")

	q, ok := page.BeginQuestion()
	require.True(t, ok)
	u, ok := page.BeginUpload([]client.File{{Name: "a.txt", Content: []byte("a")}})
	require.True(t, ok)

	page.FinishUpload(u.Seq, &model.UploadResult{SuccessfulFileNames: []string{"a.txt"}}, nil)
	assert.Equal(t, PhaseSuccess, page.UploadPhase())
	assert.Equal(t, PhaseLoading, page.QuestionPhase(), "upload completion must not end the question flow")

	page.FinishQuestion(q.Seq, &model.Answer{Answer: "a"}, nil)
	assert.Equal(t, PhaseSuccess, page.QuestionPhase())
	assert.Equal(t, []string{"a.txt"}, page.Outcome().Successful)
}

func TestPage_ToggleSnippet(t *testing.T) {
	page, _, _ := newTestPage(t)
	page.SetQuestion("q")
	pending, _ := page.BeginQuestion()
	page.FinishQuestion(pending.Seq, &model.Answer{
		Context: []model.ContextSnippet{{Title: "a"}, {Title: "b"}, {Title: "c"}},
	}, nil)

	page.ToggleSnippet(1)
	a := page.Answer()
	assert.True(t, a.Context[0].Collapsed)
	assert.False(t, a.Context[1].Collapsed)
	assert.True(t, a.Context[2].Collapsed)

	page.ToggleSnippet(1)
	assert.True(t, page.Answer().Context[1].Collapsed)

	// Out of range is ignored.
	page.ToggleSnippet(-1)
	page.ToggleSnippet(3)
}

func TestPage_ApplyCredential(t *testing.T) {
	page, _, store := newTestPage(t)

	require.NoError(t, page.ApplyCredential("sk-test"))

	assert.False(t, page.CredentialPanelVisible())
	v, err := store.Get(CredentialKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", v)
}

func TestPage_Mount(t *testing.T) {
	t.Run("stored credential hides the panel", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(CredentialKey, "sk-test"))
		page := NewPage(&mockAPI{}, store, "")

		page.Mount()

		assert.False(t, page.CredentialPanelVisible())
	})

	t.Run("empty store keeps the panel", func(t *testing.T) {
		page := NewPage(&mockAPI{}, NewMemoryStore(), "")

		page.Mount()

		assert.True(t, page.CredentialPanelVisible())
	})

	t.Run("credential survives a restart", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")

		first := NewPage(&mockAPI{}, NewFileStore(path), "")
		first.Mount()
		require.True(t, first.CredentialPanelVisible())
		require.NoError(t, first.ApplyCredential("sk-test"))

		second := NewPage(&mockAPI{}, NewFileStore(path), "")
		second.Mount()
		assert.False(t, second.CredentialPanelVisible())
	})
}

func TestUploadOutcome_FailedNames(t *testing.T) {
	out := UploadOutcome{Failed: map[string]string{"c": "x", "a": "y", "b": "z"}}
	assert.Equal(t, []string{"a", "b", "c"}, out.FailedNames())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "loading", PhaseLoading.String())
	assert.Equal(t, "success", PhaseSuccess.String())
	assert.Equal(t, "failure", PhaseFailure.String())
}
