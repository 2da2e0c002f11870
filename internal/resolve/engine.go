// Package resolve implements the scan resolution engine: given a captured
// face embedding and an optional set of enrollment details, decide whether
// the person is already present (exit) or new (entry), without ever leaving
// the registry in an inconsistent state.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i-m-alive/Visitor-Log-Book/internal/facematch"
	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
)

// Action is the decision emitted for one scan.
type Action string

const (
	ActionExit          Action = "exit"
	ActionNeedDetails   Action = "need_details"
	ActionEntry         Action = "entry"
	ActionNotRecognized Action = "not_recognized"
	ActionError         Action = "error"

	// ActionNoFace is emitted by the transport layer when extraction finds
	// no face; such scans never reach the engine.
	ActionNoFace Action = "no_face"
)

// Outcome is the result of resolving one scan.
type Outcome struct {
	Action   Action `json:"action"`
	Message  string `json:"message"`
	RecordID int64  `json:"record_id,omitempty"`
	FaceID   string `json:"face_id,omitempty"`
	Name     string `json:"name,omitempty"`
}

// ErrInvalidDetails wraps enrollment validation failures so the transport
// layer can map them to a client error instead of a server fault.
var ErrInvalidDetails = errors.New("invalid enrollment details")

// ErrRaceExhausted is returned when a scan matched a present record but lost
// the departure race, and the re-resolution pass could not settle it either.
// The caller should rescan.
var ErrRaceExhausted = errors.New("scan raced with a concurrent departure")

// BlobStore persists the captured image and returns a public reference.
type BlobStore interface {
	Store(ctx context.Context, image []byte) (string, error)
}

// Notifier tells the host that their visitor has arrived. Failures never
// affect check-in correctness.
type Notifier interface {
	SendArrival(ctx context.Context, toEmail, visitorName, purpose, phone string) error
}

// Engine orchestrates scan resolution against the presence registry.
type Engine struct {
	store   registry.Store
	matcher *facematch.Matcher

	blobs    BlobStore // optional
	notifier Notifier  // optional
	logger   *slog.Logger

	reResolveLimit int
	notifyTimeout  time.Duration
	now            func() time.Time

	notifyWG sync.WaitGroup
}

// Options carries the optional collaborators of the engine.
type Options struct {
	Blobs          BlobStore
	Notifier       Notifier
	Logger         *slog.Logger
	ReResolveLimit int // defaults to 1
	NotifyTimeout  time.Duration
	Now            func() time.Time
}

// NewEngine creates a resolution engine. store and matcher are required.
func NewEngine(store registry.Store, matcher *facematch.Matcher, opts Options) *Engine {
	e := &Engine{
		store:          store,
		matcher:        matcher,
		blobs:          opts.Blobs,
		notifier:       opts.Notifier,
		logger:         opts.Logger,
		reResolveLimit: opts.ReResolveLimit,
		notifyTimeout:  opts.NotifyTimeout,
		now:            opts.Now,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.reResolveLimit <= 0 {
		e.reResolveLimit = 1
	}
	if e.notifyTimeout <= 0 {
		e.notifyTimeout = 15 * time.Second
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Scan is one checkpoint capture.
type Scan struct {
	Embedding []float32
	Image     []byte                   // raw captured image, stored on entry
	Details   *registry.VisitorDetails // nil on a plain scan
}

// Resolve maps one scan to exactly one action. A matching present record
// means exit; no match means need_details or, when details were supplied,
// entry. A lost departure race triggers one snapshot-and-match re-run and
// never silently falls through to entry.
func (e *Engine) Resolve(ctx context.Context, scan Scan) (Outcome, error) {
	if len(scan.Embedding) == 0 {
		err := errors.New("scan carries no embedding")
		return errOutcome("scan could not be resolved"), err
	}

	outcome, matched, err := e.departFirstMatch(ctx, scan.Embedding)
	if err != nil {
		return errOutcome("scan could not be resolved"), err
	}
	if matched {
		return outcome, nil
	}

	if scan.Details == nil {
		return Outcome{
			Action:  ActionNeedDetails,
			Message: "New visitor detected. Please fill details.",
		}, nil
	}
	return e.Enroll(ctx, scan)
}

// ResolveExit is the exit-only variant: a matching present record departs,
// anything else is not recognized. It never enrolls.
func (e *Engine) ResolveExit(ctx context.Context, embedding []float32) (Outcome, error) {
	if len(embedding) == 0 {
		err := errors.New("scan carries no embedding")
		return errOutcome("scan could not be resolved"), err
	}

	outcome, matched, err := e.departFirstMatch(ctx, embedding)
	if err != nil {
		return errOutcome("scan could not be resolved"), err
	}
	if matched {
		return outcome, nil
	}
	return Outcome{
		Action:  ActionNotRecognized,
		Message: "Visitor not recognized",
	}, nil
}

// departFirstMatch snapshots present visitors, finds the first record at or
// above the similarity threshold in ascending-ID order, and attempts the
// conditional departure. On a lost race it re-runs the whole snapshot-and-
// match once more; a second loss, or a match that vanished between
// snapshots, is surfaced as ErrRaceExhausted.
func (e *Engine) departFirstMatch(ctx context.Context, embedding []float32) (Outcome, bool, error) {
	raceLost := false

	for attempt := 0; ; attempt++ {
		visitors, err := e.store.SnapshotPresent(ctx)
		if err != nil {
			return Outcome{}, false, fmt.Errorf("snapshot present visitors: %w", err)
		}

		match, err := e.firstMatch(embedding, visitors)
		if err != nil {
			return Outcome{}, false, err
		}
		if match == nil {
			if raceLost {
				// The record we matched departed between snapshots. Falling
				// through to entry here would enroll a person who just left.
				return Outcome{}, false, ErrRaceExhausted
			}
			return Outcome{}, false, nil
		}

		ok, err := e.store.TryDepart(ctx, match.ID, e.now())
		if err != nil {
			return Outcome{}, false, fmt.Errorf("depart visitor %d: %w", match.ID, err)
		}
		if ok {
			return Outcome{
				Action:   ActionExit,
				Message:  fmt.Sprintf("Thank you for visiting, %s!", match.Name),
				RecordID: match.ID,
				FaceID:   match.FaceID,
				Name:     match.Name,
			}, true, nil
		}

		// Another scan closed this record first.
		raceLost = true
		if attempt >= e.reResolveLimit {
			return Outcome{}, false, ErrRaceExhausted
		}
	}
}

// firstMatch returns the first visitor, in snapshot order, whose similarity
// to the embedding reaches the threshold. First qualifying match wins; the
// globally closest record is deliberately not preferred.
func (e *Engine) firstMatch(embedding []float32, visitors []registry.Visitor) (*registry.Visitor, error) {
	for i := range visitors {
		v := &visitors[i]
		score, match, err := e.matcher.Compare(v.Embedding, embedding)
		if err != nil {
			return nil, fmt.Errorf("compare with visitor %d: %w", v.ID, err)
		}
		if match {
			e.logger.Debug("matched present visitor",
				slog.Int64("id", v.ID),
				slog.Float64("similarity", score),
			)
			return v, nil
		}
	}
	return nil, nil
}

// Enroll validates the details, stores the captured image, and durably
// creates the presence record. The arrival notification is fired in the
// background; its failure is logged and swallowed because the registry
// record, not the email, is the ground truth of the check-in.
func (e *Engine) Enroll(ctx context.Context, scan Scan) (Outcome, error) {
	if len(scan.Embedding) == 0 {
		err := errors.New("scan carries no embedding")
		return errOutcome("scan could not be resolved"), err
	}
	if scan.Details == nil {
		err := fmt.Errorf("%w: details are required for entry", ErrInvalidDetails)
		return errOutcome("visitor details are required"), err
	}
	if err := scan.Details.Validate(); err != nil {
		return errOutcome(err.Error()), fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}

	var photoURL string
	if e.blobs != nil && len(scan.Image) > 0 {
		url, err := e.blobs.Store(ctx, scan.Image)
		if err != nil {
			// Upload happens before the insert, so a failure here means no
			// record exists yet and the whole entry fails cleanly.
			return errOutcome("failed to store visitor photo"), fmt.Errorf("store photo: %w", err)
		}
		photoURL = url
	}

	record, err := e.store.Insert(ctx, registry.NewVisitor{
		FaceID:      uuid.NewString(),
		Embedding:   scan.Embedding,
		Details:     *scan.Details,
		PhotoURL:    photoURL,
		CheckInTime: e.now(),
	})
	if err != nil {
		return errOutcome("failed to create visitor record"), fmt.Errorf("insert visitor: %w", err)
	}

	if e.notifier != nil {
		e.notifyArrival(ctx, record)
	}

	return Outcome{
		Action:   ActionEntry,
		Message:  "Check-in successful",
		RecordID: record.ID,
		FaceID:   record.FaceID,
		Name:     record.Name,
	}, nil
}

// notifyArrival sends the arrival mail in a detached goroutine so a slow or
// dead mail server never blocks a check-in.
func (e *Engine) notifyArrival(ctx context.Context, record registry.Visitor) {
	e.notifyWG.Add(1)
	go func() {
		defer e.notifyWG.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.notifyTimeout)
		defer cancel()

		err := e.notifier.SendArrival(nctx, record.PersonEmail, record.Name, record.Purpose, record.Phone)
		if err != nil {
			e.logger.Warn("arrival notification failed",
				slog.String("face_id", record.FaceID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// WaitNotifications blocks until all in-flight arrival notifications have
// finished. Used on shutdown.
func (e *Engine) WaitNotifications() {
	e.notifyWG.Wait()
}

func errOutcome(message string) Outcome {
	return Outcome{Action: ActionError, Message: message}
}
