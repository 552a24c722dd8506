package samcard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gregLibert/sam-reader/pkg/iso7816"
)

// RawRecord is one successfully read record, status word stripped.
type RawRecord struct {
	SFI     int    `json:"sfi"`
	Record  int    `json:"record"`
	Payload []byte `json:"payload"`
}

// CardSession is everything one read collected from the card.
type CardSession struct {
	ID            uuid.UUID         `json:"id"`
	Authenticated bool              `json:"authenticated"`
	Records       []RawRecord       `json:"records"`
	Errors        map[string]string `json:"errors,omitempty"`
	Application   *Application      `json:"application,omitempty"`
}

// Record returns the payload of one record.
func (s *CardSession) Record(sfi, record int) ([]byte, bool) {
	for _, r := range s.Records {
		if r.SFI == sfi && r.Record == record {
			return r.Payload, true
		}
	}
	return nil, false
}

// File concatenates the records of sfi in ascending record order.
func (s *CardSession) File(sfi int) []byte {
	var recs []RawRecord
	for _, r := range s.Records {
		if r.SFI == sfi {
			recs = append(recs, r)
		}
	}
	slices.SortStableFunc(recs, func(a, b RawRecord) int { return a.Record - b.Record })

	var buf bytes.Buffer
	for _, r := range recs {
		buf.Write(r.Payload)
	}
	return buf.Bytes()
}

func (s *CardSession) setError(key string, err error) {
	if s.Errors == nil {
		s.Errors = make(map[string]string)
	}
	s.Errors[key] = err.Error()
}

// RecordOutcome classifies one READ RECORD exchange.
type RecordOutcome int

const (
	// RecordFound means '9000'.
	RecordFound RecordOutcome = iota
	// RecordMissing means '6A82' or '6A83'.
	RecordMissing
	// RecordFailed is any other status word or a transport error.
	RecordFailed
)

func (o RecordOutcome) String() string {
	switch o {
	case RecordFound:
		return "found"
	case RecordMissing:
		return "missing"
	case RecordFailed:
		return "failed"
	default:
		return fmt.Sprintf("RecordOutcome(%d)", int(o))
	}
}

// Credentials are passed to the Authenticator.
type Credentials struct {
	Password string `json:"password"`
	KeyIndex int    `json:"keyIndex"`
}

// Manager runs SELECT, authentication and enumeration against one card.
type Manager struct {
	Config Config
	Auth   Authenticator
	Logger *log.Logger

	newID func() uuid.UUID
}

// NewManager returns a Manager using NoAuthEnumeration.
func NewManager(cfg Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Manager{
		Config: cfg,
		Auth:   NoAuthEnumeration{Logger: logger},
		Logger: logger,
	}
}

// Run never fails: problems are recorded in the session's Errors, under
// "error" when nothing usable was read and under "warning" otherwise.
func (m *Manager) Run(ctx context.Context, tx iso7816.Transmitter, creds Credentials) *CardSession {
	id := uuid.New
	if m.newID != nil {
		id = m.newID
	}
	session := &CardSession{ID: id()}

	run := &sessionRun{
		cfg:     m.Config,
		logger:  m.logger(),
		client:  iso7816.NewClient(tx),
		session: session,
	}

	if err := run.selectApplication(ctx); err != nil {
		session.setError("error", err)
		return session
	}

	auth := m.Auth
	if auth == nil {
		auth = NoAuthEnumeration{Logger: run.logger}
	}

	ok, err := auth.Authenticate(ctx, run, creds)
	session.Authenticated = ok && len(session.Records) > 0

	switch {
	case session.Authenticated && err != nil:
		session.setError("warning", fmt.Errorf("read interrupted after %d records: %w", len(session.Records), err))
	case !session.Authenticated && err != nil:
		session.setError("error", err)
	case !session.Authenticated:
		session.setError("error", ErrAuthenticationFailed)
	}
	return session
}

func (m *Manager) logger() *log.Logger {
	if m.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return m.Logger
}

// sessionRun is the state of one Manager.Run. It is the Enumerator handed
// to the Authenticator.
type sessionRun struct {
	cfg     Config
	logger  *log.Logger
	client  *iso7816.Client
	session *CardSession
}

func (r *sessionRun) selectApplication(ctx context.Context) error {
	aid, err := r.cfg.AIDBytes()
	if err != nil {
		return err
	}

	cmd := iso7816.SelectByAID(iso7816.InterindustryClass, aid)
	trace, err := r.client.Send(ctx, cmd)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.logger.Printf("SELECT %X: %v", aid, err)
		return fmt.Errorf("%w: %w", ErrApplicationNotFound, err)
	}

	if status := trace.Status(); status != iso7816.SW_NO_ERROR {
		r.logger.Printf("SELECT %X: %s", aid, status.Verbose())
		return ErrApplicationNotFound
	}
	r.logger.Printf("SELECT %X: ok", aid)

	if fci := trace.Data(); len(fci) > 0 {
		app, err := ParseApplication(fci)
		if err != nil {
			r.logger.Printf("ignoring FCI %X: %v", fci, err)
		} else {
			r.session.Application = app
			r.logger.Printf("FCI:\n%s", strings.Join(describeFCI(fci), "\n"))
		}
	}
	return nil
}

// Enumerate reads records 1..MaxRecords of every configured SFI and stops
// an SFI after MaxConsecutiveFailures non-'9000' answers in a row. It
// returns early, with what it has, when ctx ends.
func (r *sessionRun) Enumerate(ctx context.Context) (int, error) {
	found := 0
	for _, sfi := range r.cfg.SFIs {
		failures, read := 0, 0
		for rec := 1; rec <= r.cfg.MaxRecords && failures < r.cfg.MaxConsecutiveFailures; rec++ {
			if err := ctx.Err(); err != nil {
				return found, err
			}

			outcome, payload := r.readRecord(ctx, sfi, rec)
			if outcome == RecordFound {
				r.session.Records = append(r.session.Records, RawRecord{SFI: sfi, Record: rec, Payload: payload})
				failures = 0
				read++
				found++
				continue
			}
			if err := ctx.Err(); err != nil {
				return found, err
			}
			failures++
		}

		if failures >= r.cfg.MaxConsecutiveFailures {
			r.logger.Printf("SFI %d: %d records, stopped after %d consecutive failures", sfi, read, failures)
		} else {
			r.logger.Printf("SFI %d: %d records", sfi, read)
		}
	}
	return found, nil
}

// readRecord is exactly one exchange. '61XX' and '6CXX' answers are failures
// like any other status, and transport errors count as RecordFailed.
func (r *sessionRun) readRecord(ctx context.Context, sfi, rec int) (RecordOutcome, []byte) {
	cmd := iso7816.ReadRecord(iso7816.InterindustryClass, byte(sfi), byte(rec))
	trace, err := r.client.Exchange(ctx, cmd)
	if err != nil {
		r.logger.Printf("READ RECORD %d/%d: %v", sfi, rec, err)
		return RecordFailed, nil
	}

	status := trace.Status()
	switch {
	case status == iso7816.SW_NO_ERROR:
		return RecordFound, bytes.Clone(trace.Data())
	case status.IsNotFound():
		return RecordMissing, nil
	default:
		r.logger.Printf("READ RECORD %d/%d: %s", sfi, rec, status.Verbose())
		return RecordFailed, nil
	}
}
