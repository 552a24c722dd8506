// Package cardsim is an in-memory SAM card that answers SELECT, READ RECORD
// and GET RESPONSE at the APDU level.
//
// A Card satisfies iso7816.Transmitter. Records, per-record status words and
// transport errors can be scripted, and every exchange is kept in a journal
// so tests can check exactly what a reader sent.
package cardsim

import (
	"bytes"
	"sync"
	"time"

	"github.com/gregLibert/sam-reader/pkg/iso7816"
)

// Reply overrides the card's answer to one READ RECORD.
// A non-nil Err is returned as a transport failure.
type Reply struct {
	Data   []byte
	Status iso7816.StatusWord
	Err    error
}

// Exchange is one journal entry.
type Exchange struct {
	Command  []byte
	Response []byte
	Err      error
}

// INS returns the instruction byte of the command.
func (e Exchange) INS() iso7816.InsCode {
	if len(e.Command) < 2 {
		return 0
	}
	return iso7816.InsCode(e.Command[1])
}

type recordKey struct {
	sfi, record byte
}

// Card is a virtual SAM. The zero value is not usable, see New.
type Card struct {
	// SelectStatus, when set, answers every SELECT of the right AID.
	SelectStatus iso7816.StatusWord
	// FCI is returned by a successful SELECT.
	FCI          []byte
	// T0 makes SELECT answer '61XX' so the FCI must be fetched with GET RESPONSE.
	T0           bool
	// Latency is slept before every answer.
	Latency      time.Duration

	aid []byte

	mu       sync.Mutex
	selected bool
	pending  []byte
	records  map[recordKey][]byte
	files    map[byte]bool
	script   map[recordKey][]Reply
	journal  []Exchange
}

// New returns an empty card holding the application aid.
func New(aid []byte) *Card {
	return &Card{
		aid:     append([]byte(nil), aid...),
		records: make(map[recordKey][]byte),
		files:   make(map[byte]bool),
		script:  make(map[recordKey][]Reply),
	}
}

// SetRecord stores one record.
func (c *Card) SetRecord(sfi, record byte, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[recordKey{sfi, record}] = append([]byte(nil), data...)
	c.files[sfi] = true
}

// SetFile splits data into records of at most chunk bytes, numbered from 1.
func (c *Card) SetFile(sfi byte, data []byte, chunk int) {
	if chunk <= 0 {
		chunk = 250
	}
	rec := byte(1)
	for off := 0; off < len(data); off += chunk {
		end := min(off+chunk, len(data))
		c.SetRecord(sfi, rec, data[off:end])
		rec++
	}
}

// Script queues replies for one record. Each READ RECORD of that record
// consumes one reply; once the queue is empty the stored record answers.
func (c *Card) Script(sfi, record byte, replies ...Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := recordKey{sfi, record}
	c.script[k] = append(c.script[k], replies...)
	c.files[sfi] = true
}

// Journal returns a copy of every exchange so far.
func (c *Card) Journal() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Exchange(nil), c.journal...)
}

// Count returns how many commands with the given INS were received.
func (c *Card) Count(ins iso7816.InsCode) int {
	n := 0
	for _, e := range c.Journal() {
		if e.INS() == ins {
			n++
		}
	}
	return n
}

// Reset forgets the selection state and clears the journal.
func (c *Card) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = false
	c.pending = nil
	c.journal = nil
}

// Transmit implements iso7816.Transmitter.
func (c *Card) Transmit(cmd []byte) ([]byte, error) {
	if c.Latency > 0 {
		time.Sleep(c.Latency)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.answer(cmd)
	c.journal = append(c.journal, Exchange{
		Command:  append([]byte(nil), cmd...),
		Response: resp,
		Err:      err,
	})
	return resp, err
}

func (c *Card) answer(cmd []byte) ([]byte, error) {
	if len(cmd) < 4 {
		return sw(iso7816.SW_ERR_WRONG_LENGTH), nil
	}
	if cmd[0] != 0x00 {
		return sw(iso7816.SW_ERR_CLA_NOT_SUPPORTED), nil
	}

	ins, p1, p2 := iso7816.InsCode(cmd[1]), cmd[2], cmd[3]
	switch ins {
	case iso7816.INS_SELECT:
		return c.selectApp(p1, cmd[4:]), nil
	case iso7816.INS_GET_RESPONSE:
		if c.pending == nil {
			return sw(iso7816.SW_ERR_COND_OF_USE), nil
		}
		data := c.pending
		c.pending = nil
		return append(append([]byte(nil), data...), 0x90, 0x00), nil
	case iso7816.INS_READ_RECORD:
		return c.readRecord(p1, p2)
	default:
		return sw(iso7816.SW_ERR_INS_INVALID), nil
	}
}

func (c *Card) selectApp(p1 byte, body []byte) []byte {
	c.selected = false
	c.pending = nil

	if p1 != byte(iso7816.SelectByDFName) || len(body) == 0 {
		return sw(iso7816.SW_ERR_INCORRECT_PARAMS_P1P2)
	}
	lc := int(body[0])
	if len(body) < 1+lc || !bytes.Equal(body[1:1+lc], c.aid) {
		return sw(iso7816.SW_ERR_FILE_NOT_FOUND)
	}
	if c.SelectStatus != 0 && c.SelectStatus != iso7816.SW_NO_ERROR {
		return sw(c.SelectStatus)
	}

	c.selected = true
	if c.T0 && len(c.FCI) > 0 {
		c.pending = c.FCI
		return []byte{0x61, byte(len(c.FCI))}
	}
	return append(append([]byte(nil), c.FCI...), 0x90, 0x00)
}

func (c *Card) readRecord(p1, p2 byte) ([]byte, error) {
	if !c.selected {
		return sw(iso7816.SW_ERR_COND_OF_USE), nil
	}
	if p2&0x07 != byte(iso7816.RefByNum_ReadP1) {
		return sw(iso7816.SW_ERR_INCORRECT_PARAMS_P1P2), nil
	}

	k := recordKey{iso7816.SFIFromP2(p2), p1}
	if queue := c.script[k]; len(queue) > 0 {
		r := queue[0]
		c.script[k] = queue[1:]
		if r.Err != nil {
			return nil, r.Err
		}
		status := r.Status
		if status == 0 {
			status = iso7816.SW_NO_ERROR
		}
		return append(append([]byte(nil), r.Data...), status.SW1(), status.SW2()), nil
	}

	if data, ok := c.records[k]; ok {
		return append(append([]byte(nil), data...), 0x90, 0x00), nil
	}
	if c.files[k.sfi] {
		return sw(iso7816.SW_ERR_RECORD_NOT_FOUND), nil
	}
	return sw(iso7816.SW_ERR_FILE_NOT_FOUND), nil
}

func sw(s iso7816.StatusWord) []byte {
	return []byte{s.SW1(), s.SW2()}
}
