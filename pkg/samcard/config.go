package samcard

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/gregLibert/sam-reader/pkg/iso7816"
)

// DefaultAID is the SAM application identifier.
const DefaultAID = "A000000077AB01"

// Capabilities selects which decoders run on the collected records.
type Capabilities struct {
	Face         bool `json:"face"`
	Fingerprints bool `json:"fingerprints"`
}

// FaceSFIs names the files scanned for a face image. GIF is only tried on
// Fallback, and a zero Fallback disables it.
type FaceSFIs struct {
	Primary  int `json:"primary"`
	Fallback int `json:"fallback"`
}

// Config drives both the session manager and the decoder.
type Config struct {
	AID                    string       `json:"aid"`
	SFIs                   []int        `json:"sfis"`
	MaxRecords             int          `json:"maxRecords"`
	MaxConsecutiveFailures int          `json:"maxConsecutiveFailures"`
	CardholderSFI          int          `json:"cardholderSFI"`
	Capabilities           Capabilities `json:"capabilities"`
	FaceSFIs               FaceSFIs     `json:"faceSFIs"`
	FingerprintSFIs        []int        `json:"fingerprintSFIs"`
}

// DefaultConfig reads SFIs 1 to 6 and decodes face and fingerprints.
func DefaultConfig() Config {
	return Config{
		AID:                    DefaultAID,
		SFIs:                   []int{1, 2, 3, 4, 5, 6},
		MaxRecords:             20,
		MaxConsecutiveFailures: 3,
		CardholderSFI:          1,
		Capabilities:           Capabilities{Face: true, Fingerprints: true},
		FaceSFIs:               FaceSFIs{Primary: 2, Fallback: 3},
		FingerprintSFIs:        []int{4, 5, 6},
	}
}

// FaceOnlyConfig is for readers that only need the photo and the cardholder
// fields: SFIs 1 to 5, no fingerprint decoding.
func FaceOnlyConfig() Config {
	c := DefaultConfig()
	c.SFIs = []int{1, 2, 3, 4, 5}
	c.Capabilities.Fingerprints = false
	c.FingerprintSFIs = nil
	return c
}

// LoadConfig reads a JSON file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// AIDBytes decodes the hex AID.
func (c Config) AIDBytes() ([]byte, error) {
	aid, err := hex.DecodeString(c.AID)
	if err != nil {
		return nil, fmt.Errorf("aid %q: %w", c.AID, err)
	}
	return aid, nil
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error

	if aid, err := c.AIDBytes(); err != nil {
		errs = append(errs, err)
	} else if len(aid) < 5 || len(aid) > 16 {
		errs = append(errs, fmt.Errorf("aid must be 5 to 16 bytes, got %d", len(aid)))
	}

	if len(c.SFIs) == 0 {
		errs = append(errs, errors.New("sfis is empty"))
	}
	for _, sfi := range c.allSFIs() {
		if sfi < 1 || sfi > iso7816.MaxSFI {
			errs = append(errs, fmt.Errorf("sfi %d out of range 1..%d", sfi, iso7816.MaxSFI))
		}
	}

	if c.MaxRecords < 1 || c.MaxRecords > 0xFE {
		errs = append(errs, fmt.Errorf("maxRecords %d out of range 1..254", c.MaxRecords))
	}
	if c.MaxConsecutiveFailures < 1 {
		errs = append(errs, fmt.Errorf("maxConsecutiveFailures must be positive, got %d", c.MaxConsecutiveFailures))
	}
	for _, sfi := range c.FingerprintSFIs {
		if sfi <= fingerIndexBase {
			errs = append(errs, fmt.Errorf("fingerprint sfi %d yields no finger index", sfi))
		}
	}

	return errors.Join(errs...)
}

func (c Config) allSFIs() []int {
	all := slices.Clone(c.SFIs)
	all = append(all, c.CardholderSFI)
	if c.Capabilities.Face {
		all = append(all, c.FaceSFIs.Primary)
		if c.FaceSFIs.Fallback != 0 {
			all = append(all, c.FaceSFIs.Fallback)
		}
	}
	all = append(all, c.FingerprintSFIs...)
	slices.Sort(all)
	return slices.Compact(all)
}
