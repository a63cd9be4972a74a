package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/mailcampaign/internal/directory"
	"github.com/teemow/mailcampaign/internal/gmail"
	"github.com/teemow/mailcampaign/internal/google"
	"github.com/teemow/mailcampaign/internal/instrumentation"
	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/store"
)

// UnknownGroupName is snapshotted when the target group record is missing.
const UnknownGroupName = "Unknown"

// Sender dispatches one message. It is implemented by *gmail.Client.
type Sender interface {
	Send(ctx context.Context, token string, msg *gmail.Message) (string, error)
}

// Options configures a Workflow. Every field is optional.
type Options struct {
	Renderer Renderer
	Tracker  *Tracker
	Metrics  *instrumentation.Metrics
	Audit    *instrumentation.AuditLogger
	Logger   *slog.Logger
	Now      func() time.Time
}

// Workflow sends campaigns to directory groups.
type Workflow struct {
	dir      *directory.Directory
	tokens   google.TokenProvider
	sender   Sender
	renderer Renderer
	tracker  *Tracker
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	logger   *slog.Logger
	now      func() time.Time
	validate *validator.Validate
}

// NewWorkflow wires a Workflow. A nil tracker gets a default one.
func NewWorkflow(dir *directory.Directory, tokens google.TokenProvider, sender Sender, opts Options) *Workflow {
	w := &Workflow{
		dir:      dir,
		tokens:   tokens,
		sender:   sender,
		renderer: opts.Renderer,
		tracker:  opts.Tracker,
		metrics:  opts.Metrics,
		audit:    opts.Audit,
		logger:   opts.Logger,
		now:      opts.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if w.tracker == nil {
		w.tracker = NewTracker(DefaultResetInterval, nil)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Tracker exposes the transient send status.
func (w *Workflow) Tracker() *Tracker {
	return w.tracker
}

// Request describes one campaign send.
type Request struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	GroupID string `json:"groupId"`
	Mode    Mode   `json:"mode"`
}

// Failure is one recipient that could not be reached.
type Failure struct {
	ContactID string `json:"contactId,omitempty"`
	Email     string `json:"email"`
	Error     string `json:"error"`
}

// Result is the outcome of a send.
type Result struct {
	Mode       Mode            `json:"mode"`
	Recipients int             `json:"recipients"`
	Sent       int             `json:"sent"`
	Failed     int             `json:"failed"`
	Failures   []Failure       `json:"failures,omitempty"`
	Campaign   *store.Campaign `json:"campaign,omitempty"`
}

// Partial reports whether some, but not all, recipients failed.
func (r *Result) Partial() bool {
	return r != nil && r.Sent > 0 && r.Failed > 0
}

// Summary is a one-line human readable outcome.
func (r *Result) Summary() string {
	switch {
	case r == nil:
		return ""
	case r.Sent == 0:
		return fmt.Sprintf("Campaign failed: %d of %d emails could not be sent.", r.Failed, r.Recipients)
	case r.Partial():
		return fmt.Sprintf("Partially sent: %d emails sent, %d failed.", r.Sent, r.Failed)
	case r.Mode == ModeBulk:
		return fmt.Sprintf("Campaign sent to %d contacts via Gmail.", r.Recipients)
	default:
		return fmt.Sprintf("Campaign sent: %d individual emails sent successfully.", r.Sent)
	}
}

// Send runs one campaign. Precondition failures return before any remote
// call and leave the store and tracker untouched. When every dispatch fails
// the returned error wraps ErrAllFailed and the Result carries the tally; no
// history record is written. Otherwise exactly one "sent" record is written
// and returned in Result.Campaign.
func (w *Workflow) Send(ctx context.Context, req Request) (*Result, error) {
	mode := req.Mode
	if mode == "" {
		mode = DefaultMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidMode, req.Mode)
	}
	if w.tokens == nil || !w.tokens.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	title := strings.TrimSpace(req.Title)
	message := strings.TrimSpace(req.Message)
	groupID := strings.TrimSpace(req.GroupID)
	if title == "" || message == "" || groupID == "" {
		return nil, ErrMissingFields
	}
	if strings.ContainsAny(title, "\r\n") {
		return nil, ErrInvalidTitle
	}

	members, err := w.dir.ContactsOfGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group %s: %w", groupID, err)
	}
	if len(members) == 0 {
		return nil, ErrNoRecipients
	}

	token, err := w.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	ctx, span := instrumentation.StartSpan(ctx, "campaign.send",
		attribute.String(instrumentation.SpanAttrMode, string(mode)),
		attribute.String(instrumentation.SpanAttrGroup, groupID),
		attribute.Int(instrumentation.SpanAttrRecipients, len(members)),
	)
	defer span.End()

	w.tracker.Loading()

	res := &Result{Mode: mode, Recipients: len(members)}
	var cause error
	if mode == ModeIndividual {
		cause = w.sendIndividual(ctx, token, title, message, members, res)
	} else {
		cause = w.sendBulk(ctx, token, title, message, members, res)
	}

	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrSent, res.Sent),
		attribute.Int(instrumentation.SpanAttrFailed, res.Failed),
	)
	w.metrics.RecordCampaignRecipients(ctx, string(mode), res.Sent, res.Failed)

	if res.Sent == 0 {
		err := fmt.Errorf("%w: %w", ErrAllFailed, cause)
		w.finish(ctx, title, groupID, mode, members, res, err)
		instrumentation.SetSpanError(span, err)
		return res, err
	}

	groupName := UnknownGroupName
	if g, err := w.dir.Group(ctx, groupID); err == nil {
		groupName = g.Name
	} else if !errors.Is(err, store.ErrNotFound) {
		w.logger.Warn("failed to snapshot group name", logging.Group(groupID), logging.Err(err))
	}

	sentAt := w.now().UTC()
	rec, err := w.dir.Store().AddCampaign(ctx, store.CampaignInput{
		Title:          title,
		Message:        message,
		GroupID:        groupID,
		GroupName:      groupName,
		RecipientCount: len(members),
		Status:         store.CampaignSent,
		SentAt:         &sentAt,
	})
	if err != nil {
		err = fmt.Errorf("emails were sent but the campaign record could not be saved: %w", err)
		w.finish(ctx, title, groupID, mode, members, res, err)
		instrumentation.SetSpanError(span, err)
		return res, err
	}
	res.Campaign = &rec

	w.finish(ctx, title, groupID, mode, members, res, nil)
	instrumentation.SetSpanSuccess(span)
	return res, nil
}

func (w *Workflow) sendIndividual(ctx context.Context, token, title, message string, members []store.Contact, res *Result) error {
	var last error
	for _, c := range members {
		body, err := w.renderer.Individual(title, message, c.Name)
		if err == nil {
			_, err = w.sender.Send(ctx, token, &gmail.Message{To: []string{c.Email}, Subject: title, HTMLBody: body})
		}
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, Failure{ContactID: c.ID, Email: c.Email, Error: err.Error()})
			w.logger.Warn("recipient send failed", logging.Operation("campaign.send"), slog.String("contact_id", c.ID), logging.Err(err))
			last = err
			continue
		}
		res.Sent++
	}
	return last
}

func (w *Workflow) sendBulk(ctx context.Context, token, title, message string, members []store.Contact, res *Result) error {
	to := make([]string, 0, len(members))
	for _, c := range members {
		to = append(to, c.Email)
	}
	body, err := w.renderer.Bulk(title, message)
	if err == nil {
		_, err = w.sender.Send(ctx, token, &gmail.Message{To: to, Subject: title, HTMLBody: body})
	}
	if err != nil {
		res.Failed = len(members)
		for _, c := range members {
			res.Failures = append(res.Failures, Failure{ContactID: c.ID, Email: c.Email, Error: err.Error()})
		}
		return err
	}
	res.Sent = len(members)
	return nil
}

// finish settles the tracker, metrics, audit and log for a dispatched send.
func (w *Workflow) finish(ctx context.Context, title, groupID string, mode Mode, members []store.Contact, res *Result, err error) {
	status := instrumentation.StatusSuccess
	switch {
	case err != nil:
		status = instrumentation.StatusError
		w.tracker.Fail()
	case res.Partial():
		status = instrumentation.StatusPartial
		w.tracker.Succeed()
	default:
		w.tracker.Succeed()
	}
	w.metrics.RecordCampaignSend(ctx, string(mode), status)

	recipients := make([]string, 0, len(members))
	for _, c := range members {
		recipients = append(recipients, c.Email)
	}
	w.audit.LogCampaign(instrumentation.CampaignEvent{
		Title:      title,
		GroupID:    groupID,
		Mode:       string(mode),
		Sender:     w.senderEmail(),
		Recipients: recipients,
		Sent:       res.Sent,
		Failed:     res.Failed,
		Err:        err,
	})

	attrs := []any{
		logging.Operation("campaign.send"),
		logging.Campaign(title),
		logging.Group(groupID),
		logging.Mode(string(mode)),
		logging.Status(status),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
	}
	if err != nil {
		w.logger.Error("campaign send failed", append(attrs, logging.Err(err))...)
		return
	}
	w.logger.Info("campaign sent", attrs...)
}

func (w *Workflow) senderEmail() string {
	if p, ok := w.tokens.(interface{ UserEmail() string }); ok {
		return p.UserEmail()
	}
	return ""
}

// TestRequest describes a preview send.
type TestRequest struct {
	To      string `json:"to" validate:"required,email"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SendTest sends the preview of a campaign to a single address. The subject
// carries TestSubjectPrefix and the body a test banner. Nothing is recorded.
func (w *Workflow) SendTest(ctx context.Context, req TestRequest) (string, error) {
	if w.tokens == nil || !w.tokens.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	req.To = strings.TrimSpace(req.To)
	if req.To == "" {
		return "", ErrMissingAddress
	}
	if err := w.validate.Struct(req); err != nil {
		return "", fmt.Errorf("invalid test email address %q: %w", req.To, err)
	}
	title := strings.TrimSpace(req.Title)
	if strings.ContainsAny(title, "\r\n") {
		return "", ErrInvalidTitle
	}

	token, err := w.tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	body, err := w.renderer.Test(title, strings.TrimSpace(req.Message))
	if err != nil {
		return "", err
	}

	id, err := w.sender.Send(ctx, token, &gmail.Message{
		To:       []string{req.To},
		Subject:  TestSubjectPrefix + title,
		HTMLBody: body,
	})
	if err != nil {
		w.logger.Warn("test email failed", logging.Operation("campaign.send_test"), logging.Err(err))
		return "", fmt.Errorf("failed to send test email: %w", err)
	}
	w.logger.Info("test email sent", logging.Operation("campaign.send_test"), logging.Domain(req.To))
	return id, nil
}
