// Package ui holds the landing page: its view state, the question and upload flows,
// and the terminal renderer built on top of them.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"kbase/internal/client"
	"kbase/internal/model"
)

// DefaultModel is the model identifier questions are sent with.
const DefaultModel = "GPT Turbo"

const (
	dropzoneCaption = "Drag and drop files to add to the knowledgebase here, or click to select files"
	loadingCaption  = "Loading..."

	questionErrorFallback = "Error asking question"
	uploadErrorFallback   = "Error uploading files"
)

// Phase is the lifecycle of one request flow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "idle"
	}
}

// API is the request helper the page calls. *client.Client implements it.
type API interface {
	SubmitQuestion(ctx context.Context, text, modelID string) (*model.Answer, error)
	UploadFiles(ctx context.Context, files []client.File) (*model.UploadResult, error)
}

// AnswerView is the rendered form of a successful answer.
type AnswerView struct {
	Answer  string
	Context []SnippetView
	Tokens  *int
}

// UploadOutcome is what the server reported for the last upload batch.
type UploadOutcome struct {
	Successful []string
	Failed     map[string]string
}

// FailedNames returns the failed file names in display order.
func (o UploadOutcome) FailedNames() []string {
	names := make([]string, 0, len(o.Failed))
	for name := range o.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PendingQuestion is a question that has entered the loading phase.
type PendingQuestion struct {
	Seq   uint64
	Text  string
	Model string
}

// PendingUpload is an upload batch that has entered the loading phase.
type PendingUpload struct {
	Seq   uint64
	Files []client.File
}

// Page is the state of the landing page. The question and upload flows each have
// their own phase, so one never masks the other. All methods are safe for concurrent use.
type Page struct {
	api   API
	store CredentialStore
	model string

	mu sync.Mutex

	question      string
	questionPhase Phase
	questionSeq   uint64
	answer        *AnswerView

	uploadPhase Phase
	uploadSeq   uint64
	outcome     UploadOutcome

	errorMessage      string
	credentialApplied bool
}

// NewPage creates a page. An empty modelID means DefaultModel.
func NewPage(api API, store CredentialStore, modelID string) *Page {
	if modelID == "" {
		modelID = DefaultModel
	}
	return &Page{
		api:     api,
		store:   store,
		model:   modelID,
		outcome: emptyOutcome(),
	}
}

// Mount reads the stored credential once. A non-empty value hides the credential
// panel for the rest of the session; the value itself is never shown.
func (p *Page) Mount() {
	key, err := p.store.Get(CredentialKey)
	if err != nil {
		slog.Warn("Could not read stored credential", "error", err)
		return
	}
	if key != "" {
		p.mu.Lock()
		p.credentialApplied = true
		p.mu.Unlock()
	}
}

// SetQuestion replaces the question text on every keystroke.
func (p *Page) SetQuestion(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.question = text
}

func (p *Page) Question() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.question
}

// CanSubmit reports whether the submit control is enabled.
func (p *Page) CanSubmit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canSubmitLocked()
}

func (p *Page) canSubmitLocked() bool {
	return p.questionPhase != PhaseLoading && strings.TrimSpace(p.question) != ""
}

// BeginQuestion moves the question flow into loading. It returns ok=false, changing
// nothing, while a question is in flight or the text is blank.
func (p *Page) BeginQuestion() (PendingQuestion, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.canSubmitLocked() {
		return PendingQuestion{}, false
	}
	p.questionSeq++
	p.questionPhase = PhaseLoading
	p.errorMessage = ""
	return PendingQuestion{Seq: p.questionSeq, Text: p.question, Model: p.model}, true
}

// FinishQuestion applies the outcome of a question. A success replaces the previous
// answer wholesale with every snippet collapsed; a failure clears the answer and shows
// the error. Responses for anything but the latest request are discarded.
func (p *Page) FinishQuestion(seq uint64, resp *model.Answer, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.questionSeq || p.questionPhase != PhaseLoading {
		slog.Debug("Discarding stale question response", "seq", seq, "latest", p.questionSeq)
		return false
	}

	if err == nil && resp == nil {
		err = errors.New(questionErrorFallback)
	}
	if err != nil {
		slog.Warn("Question failed", "error", err)
		p.questionPhase = PhaseFailure
		p.answer = nil
		p.errorMessage = err.Error()
		if p.errorMessage == "" {
			p.errorMessage = questionErrorFallback
		}
		return true
	}

	view := &AnswerView{
		Answer:  resp.Answer,
		Context: make([]SnippetView, len(resp.Context)),
		Tokens:  resp.Tokens,
	}
	for i, c := range resp.Context {
		view.Context[i] = newSnippetView(c)
	}
	p.answer = view
	p.questionPhase = PhaseSuccess
	return true
}

// SubmitQuestion runs the whole question flow and blocks until it completes.
func (p *Page) SubmitQuestion(ctx context.Context) {
	pending, ok := p.BeginQuestion()
	if !ok {
		return
	}
	resp, err := p.api.SubmitQuestion(ctx, pending.Text, pending.Model)
	p.FinishQuestion(pending.Seq, resp, err)
}

// Focus names the control a key event came from.
type Focus int

const (
	FocusDropzone Focus = iota
	FocusQuestion
	FocusCredential
	FocusContext
)

// HandleKey reacts to a key pressed while focus is on the given control. Enter submits
// only from the question input; the returned question is the request to send.
func (p *Page) HandleKey(key string, focus Focus) (PendingQuestion, bool) {
	if key != "enter" || focus != FocusQuestion {
		return PendingQuestion{}, false
	}
	return p.BeginQuestion()
}

// BeginUpload clears the previous outcome and the banner and moves the upload flow into
// loading. It returns ok=false, changing nothing, while an upload is in flight or when
// there is nothing to upload.
func (p *Page) BeginUpload(files []client.File) (PendingUpload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.uploadPhase == PhaseLoading || len(files) == 0 {
		return PendingUpload{}, false
	}
	p.uploadSeq++
	p.uploadPhase = PhaseLoading
	p.outcome = emptyOutcome()
	p.errorMessage = ""
	return PendingUpload{Seq: p.uploadSeq, Files: files}, true
}

// FinishUpload applies the server's report verbatim. Omitted fields become empty.
func (p *Page) FinishUpload(seq uint64, resp *model.UploadResult, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.uploadSeq || p.uploadPhase != PhaseLoading {
		return false
	}

	p.outcome = emptyOutcome()
	if err != nil {
		slog.Warn("Upload failed", "error", err)
		p.uploadPhase = PhaseFailure
		p.errorMessage = uploadErrorMessage(err)
		return true
	}

	if resp != nil {
		if resp.SuccessfulFileNames != nil {
			p.outcome.Successful = resp.SuccessfulFileNames
		}
		if resp.FailedFileNames != nil {
			p.outcome.Failed = resp.FailedFileNames
		}
	}
	p.uploadPhase = PhaseSuccess
	return true
}

// UploadFiles runs the whole upload flow and blocks until it completes.
func (p *Page) UploadFiles(ctx context.Context, files []client.File) {
	pending, ok := p.BeginUpload(files)
	if !ok {
		return
	}
	resp, err := p.api.UploadFiles(ctx, pending.Files)
	p.FinishUpload(pending.Seq, resp, err)
}

// ApplyCredential stores value under the credential key and hides the panel.
// The value is not validated.
func (p *Page) ApplyCredential(value string) error {
	if err := p.store.Set(CredentialKey, value); err != nil {
		return err
	}
	p.mu.Lock()
	p.credentialApplied = true
	p.mu.Unlock()
	slog.Info("Credential applied")
	return nil
}

// ToggleSnippet flips the collapsed state of snippet i only.
func (p *Page) ToggleSnippet(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.answer == nil || i < 0 || i >= len(p.answer.Context) {
		return
	}
	p.answer.Context[i].Collapsed = !p.answer.Context[i].Collapsed
}

func (p *Page) CredentialPanelVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.credentialApplied
}

// DropzoneCaption is the text shown in the drop target.
func (p *Page) DropzoneCaption() string {
	if p.UploadPhase() == PhaseLoading {
		return loadingCaption
	}
	return dropzoneCaption
}

func (p *Page) QuestionPhase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.questionPhase
}

func (p *Page) UploadPhase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploadPhase
}

func (p *Page) ErrorMessage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errorMessage
}

// Answer returns a copy of the current answer, or nil when there is none.
func (p *Page) Answer() *AnswerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.answer == nil {
		return nil
	}
	cp := *p.answer
	cp.Context = append([]SnippetView(nil), p.answer.Context...)
	return &cp
}

// Outcome returns a copy of the last upload outcome.
func (p *Page) Outcome() UploadOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := UploadOutcome{
		Successful: append([]string{}, p.outcome.Successful...),
		Failed:     make(map[string]string, len(p.outcome.Failed)),
	}
	for k, v := range p.outcome.Failed {
		out.Failed[k] = v
	}
	return out
}

func emptyOutcome() UploadOutcome {
	return UploadOutcome{Successful: []string{}, Failed: map[string]string{}}
}

// uploadErrorMessage prefers the server's message and falls back to a generic text.
func uploadErrorMessage(err error) string {
	msg := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	if msg == "" {
		return uploadErrorFallback
	}
	return "Error: " + msg
}
