package samcard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/sam-reader/pkg/cardsim"
	"github.com/gregLibert/sam-reader/pkg/iso7816"
	"github.com/gregLibert/sam-reader/pkg/tlv"
	"github.com/gregLibert/sam-reader/pkg/transport"
)

func configWithSFIs(sfis ...int) Config {
	cfg := DefaultConfig()
	cfg.SFIs = sfis
	return cfg
}

func readRecordsOf(j []cardsim.Exchange) []cardsim.Exchange {
	var out []cardsim.Exchange
	for _, e := range j {
		if e.INS() == iso7816.INS_READ_RECORD {
			out = append(out, e)
		}
	}
	return out
}

func TestManager_AllRecordsMissing(t *testing.T) {
	card := cardsim.New(cardsim.DemoAID)
	// Every file exists, but only far beyond the records probed.
	for sfi := byte(1); sfi <= 6; sfi++ {
		card.SetRecord(sfi, 50, []byte{0x01})
	}

	s := NewManager(DefaultConfig(), nil).Run(context.Background(), card, Credentials{})

	journal := card.Journal()
	if len(journal) != 19 {
		t.Fatalf("exchanges = %d, want 19 (1 SELECT + 6 x 3 READ RECORD)", len(journal))
	}
	if journal[0].INS() != iso7816.INS_SELECT {
		t.Errorf("first exchange is %s, want SELECT", journal[0].INS())
	}

	perSFI := map[byte]int{}
	for _, e := range readRecordsOf(journal) {
		perSFI[iso7816.SFIFromP2(e.Command[3])]++
		if diff := cmp.Diff(tlv.Hex("6A 83"), e.Response); diff != "" {
			t.Errorf("unexpected response (-want +got):\n%s", diff)
		}
	}
	if diff := cmp.Diff(map[byte]int{1: 3, 2: 3, 3: 3, 4: 3, 5: 3, 6: 3}, perSFI); diff != "" {
		t.Errorf("READ RECORD per SFI (-want +got):\n%s", diff)
	}

	if s.Authenticated {
		t.Error("session without records must not be authenticated")
	}
	if got := s.Errors["error"]; got != "SAM authentication failed" {
		t.Errorf("error = %q", got)
	}
}

func TestManager_FailureCounterResets(t *testing.T) {
	card := cardsim.New(cardsim.DemoAID)
	card.SetRecord(1, 3, tlv.Hex("DF 01 01 41"))
	card.Script(1, 1, cardsim.StatusOnly(iso7816.SW_ERR_RECORD_NOT_FOUND))
	card.Script(1, 2, cardsim.StatusOnly(iso7816.SW_ERR_SECURITY_STATUS))

	s := NewManager(configWithSFIs(1), nil).Run(context.Background(), card, Credentials{})

	reads := readRecordsOf(card.Journal())
	if len(reads) != 6 {
		t.Fatalf("READ RECORD count = %d, want 6", len(reads))
	}
	for i, e := range reads {
		if rec := int(e.Command[2]); rec != i+1 {
			t.Errorf("exchange %d read record %d", i, rec)
		}
	}

	want := []RawRecord{{SFI: 1, Record: 3, Payload: tlv.Hex("DF 01 01 41")}}
	if diff := cmp.Diff(want, s.Records); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}
	if !s.Authenticated {
		t.Error("one record is enough to authenticate")
	}
}

func TestManager_TransportErrorsCountAsFailures(t *testing.T) {
	boom := errors.New("tag lost")
	card := cardsim.New(cardsim.DemoAID)
	card.SetRecord(2, 1, []byte{0xAA})
	card.SetRecord(2, 3, []byte{0xBB})
	card.Script(2, 2, cardsim.Reply{Err: boom})

	s := NewManager(configWithSFIs(2), nil).Run(context.Background(), card, Credentials{})

	// 1 ok, 2 error, 3 ok, 4-6 missing.
	if n := len(readRecordsOf(card.Journal())); n != 6 {
		t.Errorf("READ RECORD count = %d, want 6", n)
	}
	if diff := cmp.Diff([]byte{0xAA, 0xBB}, s.File(2)); diff != "" {
		t.Errorf("file 2 (-want +got):\n%s", diff)
	}
}

func TestManager_ProcedureBytesCountAsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status iso7816.StatusWord
	}{
		{"Bytes available", 0x6101},
		{"Wrong length", 0x6C10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := cardsim.New(cardsim.DemoAID)
			for sfi := byte(1); sfi <= 6; sfi++ {
				for rec := byte(1); rec <= 20; rec++ {
					card.Script(sfi, rec, cardsim.StatusOnly(tt.status))
				}
			}

			s := NewManager(DefaultConfig(), nil).Run(context.Background(), card, Credentials{})

			journal := card.Journal()
			if len(journal) != 19 {
				t.Fatalf("exchanges = %d, want 19 (1 SELECT + 6 x 3 READ RECORD)", len(journal))
			}
			if n := card.Count(iso7816.INS_GET_RESPONSE); n != 0 {
				t.Errorf("GET RESPONSE count = %d, want 0", n)
			}
			seen := map[[2]byte]bool{}
			for _, e := range readRecordsOf(journal) {
				k := [2]byte{e.Command[2], e.Command[3]}
				if seen[k] {
					t.Errorf("READ RECORD %X sent twice", k)
				}
				seen[k] = true
			}
			if s.Authenticated {
				t.Error("session without records must not be authenticated")
			}
		})
	}
}

func TestManager_SelectFailureIsTerminal(t *testing.T) {
	tests := []struct {
		name    string
		card    func() iso7816.Transmitter
		wantErr string
	}{
		{
			name: "Wrong AID",
			card: func() iso7816.Transmitter {
				return cardsim.New([]byte{0xA0, 0x00, 0x00, 0x00, 0x01})
			},
			wantErr: "SAM application not found",
		},
		{
			name: "Select refused",
			card: func() iso7816.Transmitter {
				c := cardsim.Demo()
				c.SelectStatus = iso7816.SW_ERR_COND_OF_USE
				return c
			},
			wantErr: "SAM application not found",
		},
		{
			name: "Select throws",
			card: func() iso7816.Transmitter {
				return transport.TransmitterFunc(func([]byte) ([]byte, error) {
					return nil, errors.New("no card in field")
				})
			},
			wantErr: "SAM application not found: transmission error: no card in field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent [][]byte
			card := tt.card()
			spy := transport.TransmitterFunc(func(cmd []byte) ([]byte, error) {
				sent = append(sent, cmd)
				return card.Transmit(cmd)
			})

			s := NewManager(DefaultConfig(), nil).Run(context.Background(), spy, Credentials{})

			if len(sent) != 1 || sent[0][1] != byte(iso7816.INS_SELECT) {
				t.Errorf("expected a single SELECT, sent %X", sent)
			}
			if s.Authenticated || len(s.Records) != 0 {
				t.Error("session must be empty and unauthenticated")
			}
			if got := s.Errors["error"]; got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestManager_Application(t *testing.T) {
	for _, t0 := range []bool{false, true} {
		card := cardsim.Demo()
		card.T0 = t0

		s := NewManager(DefaultConfig(), nil).Run(context.Background(), card, Credentials{})

		want := &Application{AID: "A000000077AB01", Label: "SAM ID", Priority: 1, LanguagePreference: "enfr"}
		if diff := cmp.Diff(want, s.Application); diff != "" {
			t.Errorf("T0=%v application (-want +got):\n%s", t0, diff)
		}
		if !s.Authenticated {
			t.Errorf("T0=%v: demo card should authenticate", t0)
		}
	}
}

func TestManager_Cancellation(t *testing.T) {
	t.Run("Before any record", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		card := cardsim.Demo()
		tx := transport.TransmitterFunc(func(cmd []byte) ([]byte, error) {
			resp, err := card.Transmit(cmd)
			cancel()
			return resp, err
		})

		s := NewManager(DefaultConfig(), nil).Run(ctx, tx, Credentials{})

		if s.Authenticated {
			t.Error("cancelled read without records must not be authenticated")
		}
		if got := s.Errors["error"]; got != context.Canceled.Error() {
			t.Errorf("error = %q", got)
		}
		if n := card.Count(iso7816.INS_READ_RECORD); n != 0 {
			t.Errorf("READ RECORD sent after cancellation: %d", n)
		}
	})

	t.Run("After some records", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		card := cardsim.Demo()
		tx := transport.TransmitterFunc(func(cmd []byte) ([]byte, error) {
			resp, err := card.Transmit(cmd)
			// Stop once the cardholder record is in.
			if len(cmd) > 3 && cmd[1] == 0xB2 && cmd[2] == 0x01 && cmd[3] == 0x0C {
				cancel()
			}
			return resp, err
		})

		s := NewManager(DefaultConfig(), nil).Run(ctx, tx, Credentials{})

		if !s.Authenticated || len(s.Records) != 1 {
			t.Fatalf("want the one record read before cancellation, got %d (auth=%v)", len(s.Records), s.Authenticated)
		}
		if s.Errors["warning"] == "" {
			t.Error("partial read should carry a warning")
		}
		if n := card.Count(iso7816.INS_READ_RECORD); n != 1 {
			t.Errorf("READ RECORD count = %d, want 1", n)
		}
	})
}

type countingAuth struct {
	calls int
	creds Credentials
}

func (a *countingAuth) Name() string { return "counting" }

func (a *countingAuth) Authenticate(ctx context.Context, card Enumerator, creds Credentials) (bool, error) {
	a.calls++
	a.creds = creds
	_, err := card.Enumerate(ctx)
	return false, err
}

func TestManager_CustomAuthenticator(t *testing.T) {
	auth := &countingAuth{}
	m := NewManager(DefaultConfig(), nil)
	m.Auth = auth

	creds := Credentials{Password: "1234", KeyIndex: 2}
	s := m.Run(context.Background(), cardsim.Demo(), creds)

	if auth.calls != 1 || auth.creds != creds {
		t.Errorf("authenticator called %d times with %+v", auth.calls, auth.creds)
	}
	if s.Authenticated {
		t.Error("a refusing authenticator wins over collected records")
	}
}

func TestCardSession_FileOrdersRecords(t *testing.T) {
	s := &CardSession{Records: []RawRecord{
		{SFI: 2, Record: 2, Payload: []byte{0x03, 0x04}},
		{SFI: 1, Record: 1, Payload: []byte{0xFF}},
		{SFI: 2, Record: 1, Payload: []byte{0x01, 0x02}},
	}}

	if diff := cmp.Diff([]byte{0x01, 0x02, 0x03, 0x04}, s.File(2)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if len(s.File(3)) != 0 {
		t.Error("missing file should be empty")
	}
	if _, ok := s.Record(1, 2); ok {
		t.Error("Record(1, 2) should be absent")
	}
}

func TestRecordOutcome_String(t *testing.T) {
	for o, want := range map[RecordOutcome]string{
		RecordFound:      "found",
		RecordMissing:    "missing",
		RecordFailed:     "failed",
		RecordOutcome(9): "RecordOutcome(9)",
	} {
		if got := o.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(o), got, want)
		}
	}
}
