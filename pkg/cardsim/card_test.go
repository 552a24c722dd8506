package cardsim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/sam-reader/pkg/iso7816"
	"github.com/gregLibert/sam-reader/pkg/tlv"
)

var selectDemo = tlv.Hex("00 A4 04 00 07 A0 00 00 00 77 AB 01")

func TestCard_SelectAndRead(t *testing.T) {
	c := New(DemoAID)
	c.SetRecord(1, 1, tlv.Hex("DF 01 01 41"))

	tests := []struct {
		name string
		cmd  []byte
		want []byte
	}{
		{"Read before select", tlv.Hex("00 B2 01 0C 00"), tlv.Hex("69 85")},
		{"Select wrong AID", tlv.Hex("00 A4 04 00 02 A0 00"), tlv.Hex("6A 82")},
		{"Select", selectDemo, tlv.Hex("90 00")},
		{"Read existing record", tlv.Hex("00 B2 01 0C 00"), tlv.Hex("DF 01 01 41 90 00")},
		{"Read missing record", tlv.Hex("00 B2 02 0C 00"), tlv.Hex("6A 83")},
		{"Read missing file", tlv.Hex("00 B2 01 14 00"), tlv.Hex("6A 82")},
		{"Unsupported instruction", tlv.Hex("00 B0 00 00 00"), tlv.Hex("6D 00")},
		{"Proprietary class", tlv.Hex("80 B2 01 0C 00"), tlv.Hex("6E 00")},
		{"Truncated header", tlv.Hex("00 B2"), tlv.Hex("67 00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Transmit(tt.cmd)
			if err != nil {
				t.Fatalf("Transmit: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if n := len(c.Journal()); n != len(tests) {
		t.Errorf("journal has %d entries, want %d", n, len(tests))
	}
	if n := c.Count(iso7816.INS_READ_RECORD); n != 5 {
		t.Errorf("READ RECORD count = %d, want 5", n)
	}
}

func TestCard_Script(t *testing.T) {
	boom := errors.New("field lost")
	c := New(DemoAID)
	c.SetRecord(3, 1, []byte{0xAA})
	c.Script(3, 1,
		StatusOnly(iso7816.SW_ERR_SECURITY_STATUS),
		Reply{Err: boom},
	)

	if _, err := c.Transmit(selectDemo); err != nil {
		t.Fatal(err)
	}

	read := tlv.Hex("00 B2 01 1C 00")

	resp, _ := c.Transmit(read)
	if diff := cmp.Diff(tlv.Hex("69 82"), resp); diff != "" {
		t.Errorf("first reply (-want +got):\n%s", diff)
	}
	if _, err := c.Transmit(read); !errors.Is(err, boom) {
		t.Errorf("second reply err = %v, want %v", err, boom)
	}
	resp, _ = c.Transmit(read)
	if diff := cmp.Diff(tlv.Hex("AA 90 00"), resp); diff != "" {
		t.Errorf("third reply (-want +got):\n%s", diff)
	}

	if j := c.Journal(); j[2].Err == nil {
		t.Error("journal should record the transport error")
	}
}

func TestCard_T0GetResponse(t *testing.T) {
	c := Demo()
	c.T0 = true

	client := iso7816.NewClient(c)
	trace, err := client.Send(context.Background(), iso7816.SelectByAID(iso7816.InterindustryClass, DemoAID))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(trace) != 2 || trace.Status() != iso7816.SW_NO_ERROR {
		t.Fatalf("unexpected trace:\n%s", trace.Describe())
	}
	if diff := cmp.Diff(c.FCI, trace.Data()); diff != "" {
		t.Errorf("FCI mismatch (-want +got):\n%s", diff)
	}
}

func TestCard_SelectStatusOverride(t *testing.T) {
	c := Demo()
	c.SelectStatus = iso7816.SW_ERR_FUNC_NOT_SUPPORTED

	resp, _ := c.Transmit(selectDemo)
	if diff := cmp.Diff(tlv.Hex("6A 81"), resp); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	resp, _ = c.Transmit(tlv.Hex("00 B2 01 0C 00"))
	if diff := cmp.Diff(tlv.Hex("69 85"), resp); diff != "" {
		t.Errorf("read after failed select (-want +got):\n%s", diff)
	}
}

func TestCard_SetFileAndReset(t *testing.T) {
	c := New(DemoAID)
	c.SetFile(2, []byte{1, 2, 3, 4, 5}, 2)
	_, _ = c.Transmit(selectDemo)

	var got []byte
	for rec := byte(1); rec <= 3; rec++ {
		resp, _ := c.Transmit([]byte{0x00, 0xB2, rec, 0x14, 0x00})
		got = append(got, resp[:len(resp)-2]...)
	}
	if diff := cmp.Diff([]byte{1, 2, 3, 4, 5}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	c.Reset()
	if len(c.Journal()) != 0 {
		t.Error("Reset should clear the journal")
	}
	resp, _ := c.Transmit(tlv.Hex("00 B2 01 14 00"))
	if diff := cmp.Diff(tlv.Hex("69 85"), resp); diff != "" {
		t.Errorf("Reset should drop the selection (-want +got):\n%s", diff)
	}
}

func TestCardholder(t *testing.T) {
	got := Cardholder(map[byte]string{0x02: "XY", 0x01: "ABC"})
	want := tlv.Hex("DF 01 03 414243 DF 02 02 5859")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSlot(t *testing.T) {
	s := NewSlot()

	present, err := s.Wait(context.Background(), time.Millisecond)
	if err != nil || present {
		t.Fatalf("empty slot: present=%v err=%v", present, err)
	}

	done := make(chan bool)
	go func() {
		p, _ := s.Wait(context.Background(), time.Minute)
		done <- p
	}()
	time.Sleep(10 * time.Millisecond)
	s.Insert()

	select {
	case p := <-done:
		if !p {
			t.Error("Wait should report the inserted card")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return on Insert")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Wait err = %v", err)
	}
}
