package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latambot/orchestrator/config"
	"github.com/latambot/orchestrator/internal/adapter/assistant"
	"github.com/latambot/orchestrator/internal/domain"
)

// errSessionDone aborts upstream reads once the session reached a terminal
// state through another path (completion, watchdog recovery, cancellation).
var errSessionDone = errors.New("session finished")

// genericStreamError is the only failure detail a client ever sees; upstream
// internals stay in the logs.
const genericStreamError = "Error during streaming"

// StreamRequest is one streamed question against a company's assistant.
type StreamRequest struct {
	ThreadID string `json:"threadId"`
	Question string `json:"question"`
	Company  string `json:"company,omitempty"`
}

// streamSession owns one streamed conversational turn: the session state,
// the outbound sink, and the watchdog. All mutation happens under mu; the
// state transition to a terminal state is the single-fire gate that keeps
// the watchdog and the upstream handler from both finishing the stream.
type streamSession struct {
	svc      *Service
	sink     EventSink
	sess     *domain.Session
	company  config.CompanyConfig
	watchdog *stallWatchdog

	mu         sync.Mutex
	pending    []domain.ToolCallRequest
	cancelRead context.CancelFunc
}

// StreamQuestion bridges one upstream assistant run onto the outbound sink.
// It guarantees the sink is closed exactly once and that the client sees a
// terminal frame (done or error) on every path except a disconnect the
// client itself initiated.
func (s *Service) StreamQuestion(ctx context.Context, req StreamRequest, sink EventSink) {
	company := config.GetCompany(req.Company)

	sess := &domain.Session{
		SessionID:   "sess_" + uuid.New().String()[:8],
		ThreadID:    req.ThreadID,
		AssistantID: company.Assistant.ID,
		Model:       company.Assistant.Model,
		Company:     req.Company,
		State:       domain.SessionStarting,
		StartedAt:   time.Now(),
	}
	log := s.logger.With("session_id", sess.SessionID, "company", company.Name)

	ss := &streamSession{svc: s, sink: sink, sess: sess, company: company}
	ss.watchdog = newStallWatchdog(s.config.StallTimeout, ss.onStall)
	defer ss.watchdog.disarm()
	defer sink.Close()

	if sess.ThreadID == "" {
		threadID, err := s.assistant.CreateThread(ctx)
		if err != nil {
			log.Error("failed to create thread", "error", err)
			ss.failWith(genericStreamError)
			return
		}
		sess.ThreadID = threadID
	}
	log = log.With("thread_id", sess.ThreadID)

	if err := s.assistant.CreateMessage(ctx, sess.ThreadID, "user", req.Question); err != nil {
		log.Error("failed to create user message", "error", err)
		ss.failWith(genericStreamError)
		return
	}

	runCtx, cancelRun := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancelRun()
	ss.setCancelRead(cancelRun)

	stream, err := s.assistant.StreamRun(runCtx, sess.ThreadID, assistant.RunParams{
		AssistantID: company.Assistant.ID,
		Model:       company.Assistant.Model,
	})
	if err != nil {
		log.Error("failed to start run stream", "error", err)
		ss.failWith(genericStreamError)
		return
	}

	err = stream.Each(ss.handleUpstream)

	// Tool rounds: the upstream stream ends at requires_action; dispatch the
	// pending calls, submit the batch, and consume the continuation stream.
	// A run may pause for tools more than once.
	for err == nil && !ss.terminal() {
		pending, runID := ss.takePending()
		if len(pending) == 0 {
			break
		}

		toolCtx, cancelTools := context.WithTimeout(context.WithoutCancel(ctx), s.config.ToolTimeout)
		results := s.dispatchToolCalls(toolCtx, sess, company, pending)
		cancelTools()

		// Submission runs on a detached context: if the client is gone the
		// batch is still delivered so the upstream run is not left stuck.
		contCtx, cancelCont := context.WithTimeout(context.WithoutCancel(ctx), s.config.RunTimeout)
		defer cancelCont()
		ss.setCancelRead(cancelCont)

		cont, submitErr := s.assistant.SubmitToolOutputs(contCtx, sess.ThreadID, runID, results)
		if submitErr != nil {
			log.Error("tool output submission failed", "run_id", runID, "error", submitErr)
			ss.failSubmission()
			return
		}
		ss.toolsExecuted()
		err = cont.Each(ss.handleUpstream)
	}

	ss.finish(ctx, err, log)

	if ss.state() == domain.SessionCompleted {
		s.persistConversation(sess, company, req.Question)
	}
}

// handleUpstream translates one upstream event into outbound frames and
// state transitions. It is the event translator of the bridge.
func (ss *streamSession) handleUpstream(ev domain.UpstreamEvent) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.sess.State.Terminal() {
		return errSessionDone
	}

	// Any upstream activity after tool submission means the run resumed.
	if ss.sess.State == domain.SessionAwaitingToolOutputs {
		ss.watchdog.disarm()
		ss.sess.State = domain.SessionResuming
	}

	switch ev.Kind {
	case domain.UpstreamRunCreated:
		if run, err := assistant.ParseRun(ev.Data); err == nil && run.ID != "" {
			ss.sess.RunID = run.ID
		}
		return ss.ensureStreaming()

	case domain.UpstreamMessageDelta:
		text, err := assistant.ParseDeltaText(ev.Data)
		if err != nil {
			ss.svc.logger.Warn("failed to parse message delta", "error", err)
			return nil
		}
		if err := ss.ensureStreaming(); err != nil {
			return err
		}
		if text == "" {
			return nil
		}
		ss.sess.AccumulatedText = append(ss.sess.AccumulatedText, text)
		return ss.sink.Send(domain.StreamingEvent(text))

	case domain.UpstreamRunRequiresAction:
		run, err := assistant.ParseRun(ev.Data)
		if err != nil {
			ss.svc.logger.Warn("failed to parse requires_action", "error", err)
			return nil
		}
		calls := assistant.ToolCallRequests(run)
		if len(calls) == 0 {
			return nil
		}
		if run.ID != "" {
			ss.sess.RunID = run.ID
		}
		ss.pending = calls
		names := make([]string, len(calls))
		for i, call := range calls {
			names[i] = call.Function
		}
		ss.sess.State = domain.SessionToolsExecuting
		return ss.sink.Send(domain.ExecutingToolsEvent(names))

	case domain.UpstreamRunCompleted:
		// A completion racing a requires_action for the same run loses:
		// unfinished tool obligations take precedence.
		if len(ss.pending) > 0 || ss.sess.State == domain.SessionToolsExecuting {
			return nil
		}
		ss.sess.State = domain.SessionCompleted
		if err := ss.sink.Send(domain.DoneEvent(ss.sess.TotalLength())); err != nil {
			return err
		}
		return errSessionDone

	case domain.UpstreamRunFailed:
		return domain.ErrUpstreamRunFailed

	case domain.UpstreamRunExpired:
		return domain.ErrUpstreamRunExpired

	case domain.UpstreamRunCancelled:
		ss.sess.State = domain.SessionCancelled
		return errSessionDone
	}

	// run.queued, run.in_progress, message.created, message.completed and
	// unrecognized kinds carry nothing the client needs.
	return nil
}

// ensureStreaming emits the initial in_progress frame the first time the run
// shows signs of life. Callers hold mu.
func (ss *streamSession) ensureStreaming() error {
	if ss.sess.State != domain.SessionStarting && ss.sess.State != domain.SessionResuming {
		return nil
	}
	starting := ss.sess.State == domain.SessionStarting
	ss.sess.State = domain.SessionStreaming
	if !starting {
		return nil
	}
	return ss.sink.Send(domain.InProgressEvent(ss.sess.ThreadID, ss.sess.AssistantID))
}

// toolsExecuted reports a successfully submitted batch and arms the watchdog
// for the resumed run.
func (ss *streamSession) toolsExecuted() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.sess.State.Terminal() {
		return
	}
	ss.sess.State = domain.SessionAwaitingToolOutputs
	if err := ss.sink.Send(domain.ToolsExecutedEvent()); err != nil {
		return
	}
	ss.watchdog.arm()
}

// onStall synthesizes a scripted completion when the upstream run never
// resumed after tool submission. The state check under mu is the single-fire
// gate: if the run resumed or finished first, the watchdog does nothing, and
// a fired watchdog makes any late upstream completion a no-op.
func (ss *streamSession) onStall() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.sess.State != domain.SessionAwaitingToolOutputs {
		return
	}
	if ss.sink.Closed() {
		return
	}

	for _, chunk := range stallFallbackChunks {
		if err := ss.sink.Send(domain.StreamingEvent(chunk)); err != nil {
			break
		}
		ss.sess.AccumulatedText = append(ss.sess.AccumulatedText, chunk)
		time.Sleep(stallChunkDelay)
	}
	ss.sess.State = domain.SessionCompleted
	_ = ss.sink.Send(domain.DoneEvent(ss.sess.TotalLength()))

	// Unblock the continuation read so the session loop can exit.
	if ss.cancelRead != nil {
		ss.cancelRead()
	}
}

// failSubmission reports a session-fatal tool submission failure.
func (ss *streamSession) failSubmission() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.sess.State.Terminal() {
		return
	}
	ss.sess.State = domain.SessionFailed
	_ = ss.sink.Send(domain.ToolErrorEvent("failed to submit tool outputs"))
	_ = ss.sink.Send(domain.ErrorEvent(genericStreamError))
}

// failWith emits the terminal error frame with a client-safe message.
func (ss *streamSession) failWith(message string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.sess.State.Terminal() {
		return
	}
	ss.sess.State = domain.SessionFailed
	_ = ss.sink.Send(domain.ErrorEvent(message))
}

// finish resolves the session's terminal state after the upstream stream
// ended, honoring the invariant that the client always sees a terminal
// frame unless it disconnected itself.
func (ss *streamSession) finish(ctx context.Context, err error, log *slog.Logger) {
	ss.mu.Lock()
	state := ss.sess.State
	ss.mu.Unlock()

	if state.Terminal() {
		if state == domain.SessionCompleted {
			log.Info("session completed", "total_length", ss.sess.TotalLength())
		} else {
			log.Info("session ended", "state", string(state))
		}
		return
	}

	switch {
	case errors.Is(err, domain.ErrUpstreamRunFailed):
		log.Error("upstream run failed")
		ss.setState(domain.SessionFailed)
		ss.emitError(genericStreamError)
	case errors.Is(err, domain.ErrUpstreamRunExpired):
		log.Error("upstream run expired")
		ss.setState(domain.SessionExpired)
		ss.emitError(genericStreamError)
	case ctx.Err() != nil:
		// Client disconnected (or the request deadline passed): stop all
		// outbound writes, nothing more to emit.
		log.Info("client disconnected before completion")
		ss.setState(domain.SessionCancelled)
	case err == nil || errors.Is(err, errSessionDone):
		// The upstream stream ended without a terminal event.
		log.Error("upstream stream ended without terminal event")
		ss.setState(domain.SessionFailed)
		ss.emitError(genericStreamError)
	default:
		log.Error("stream aborted", "error", err)
		ss.setState(domain.SessionFailed)
		ss.emitError(genericStreamError)
	}
}

func (ss *streamSession) setState(state domain.SessionState) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if !ss.sess.State.Terminal() {
		ss.sess.State = state
	}
}

func (ss *streamSession) emitError(message string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_ = ss.sink.Send(domain.ErrorEvent(message))
}

func (ss *streamSession) state() domain.SessionState {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.sess.State
}

func (ss *streamSession) terminal() bool {
	return ss.state().Terminal()
}

func (ss *streamSession) takePending() ([]domain.ToolCallRequest, string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	pending := ss.pending
	ss.pending = nil
	return pending, ss.sess.RunID
}

func (ss *streamSession) setCancelRead(cancel context.CancelFunc) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.cancelRead = cancel
}
