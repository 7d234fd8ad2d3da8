// Package advisor asks an external text-generation service for a narrative
// security review or a hardened rewrite of a Dockerfile. Its output never
// feeds the static risk score, and a failure here never blocks the static
// report.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result is the collaborator outcome. Text is surfaced verbatim when
// Available; otherwise Reason and Err explain why.
type Result struct {
	Task      Task
	Text      string
	Available bool
	Reason    FailureReason
	Err       error
	Elapsed   time.Duration
}

// Display returns the text to show the user.
func (r Result) Display() string {
	if r.Available {
		return r.Text
	}
	return fmt.Sprintf("AI analysis unavailable (%s)", r.Reason)
}

type Advisor struct {
	client  Client
	timeout time.Duration
	log     *zap.SugaredLogger
}

// New wraps client. A nil client yields an advisor whose every call is
// unavailable with ReasonDisabled.
func New(client Client, timeout time.Duration, log *zap.SugaredLogger) *Advisor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Advisor{client: client, timeout: timeout, log: log}
}

func (a *Advisor) Enabled() bool { return a.client != nil }

// Explain requests a narrative review of dockerfile.
func (a *Advisor) Explain(ctx context.Context, dockerfile string) Result {
	return a.run(ctx, newRequest(TaskExplain, dockerfile))
}

// Rewrite requests a hardened version of dockerfile. The result is
// untrusted output and is returned exactly as received.
func (a *Advisor) Rewrite(ctx context.Context, dockerfile string) Result {
	return a.run(ctx, newRequest(TaskRewrite, dockerfile))
}

func (a *Advisor) run(ctx context.Context, req Request) Result {
	res := Result{Task: req.Task}
	if a.client == nil {
		res.Reason = ReasonDisabled
		res.Err = errors.New("no advisor provider configured")
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.client.Complete(ctx, req)
	res.Elapsed = time.Since(start)
	switch {
	case err != nil:
	case ctx.Err() != nil:
		err = ctx.Err()
	case strings.TrimSpace(text) == "":
		err = ErrEmptyResponse
	}
	if err != nil {
		ue := Classify(err, a.client.Provider())
		res.Reason = ue.Reason
		res.Err = ue
		a.log.Warnw("advisor call failed",
			"task", req.Task,
			"provider", a.client.Provider(),
			"reason", ue.Reason,
			"elapsed", res.Elapsed,
			"error", err,
		)
		return res
	}

	a.log.Debugw("advisor call complete", "task", req.Task, "provider", a.client.Provider(), "elapsed", res.Elapsed)
	res.Text = text
	res.Available = true
	return res
}
