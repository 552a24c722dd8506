package iso7816

import (
	"fmt"
)

// Class byte (CLA), ISO/IEC 7816-4 §5.4.1.
//
//	b8 = 1          proprietary class, passed through untouched
//	b7 = 0          first interindustry: b4-b3 secure messaging, b2-b1 channel 0..3
//	b7 = 1          further interindustry: b6 secure messaging, b4-b1 channel 4..19
//	b5              command chaining
//
// SAM readers in this module only ever use '00' (channel 0, no SM, no chaining),
// but the full byte is decoded so logged commands are described correctly.

// SecureMessaging defines the security level applied to the APDU.
type SecureMessaging int

const (
	SMNone         SecureMessaging = 0
	SMProprietary  SecureMessaging = 1 // first interindustry only
	SMHeaderNoProc SecureMessaging = 2
	SMHeaderAuth   SecureMessaging = 3 // first interindustry only
)

// Class represents the parsed ISO 7816-4 Class byte (CLA).
type Class struct {
	Raw             byte
	IsProprietary   bool
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8 // 0-19
}

// InterindustryClass is CLA '00'.
var InterindustryClass = Class{}

// NewClass decodes a raw CLA byte.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}
	if bitIsSet(cla, 8) {
		c.IsProprietary = true
		return c, nil
	}

	c.IsChained = bitIsSet(cla, 5)
	if !bitIsSet(cla, 7) {
		c.SecureMessaging = SecureMessaging(bitRange(cla, 4, 3))
		c.Channel = bitRange(cla, 2, 1)
		return c, nil
	}

	if bitIsSet(cla, 6) {
		c.SecureMessaging = SMHeaderNoProc
	}
	c.Channel = bitRange(cla, 4, 1) + 4
	return c, nil
}

// Encode converts the Class back to its byte representation.
func (c *Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > 19 {
		return 0, fmt.Errorf("channel %d out of range (max 19)", c.Channel)
	}

	var res byte
	if c.IsChained {
		res = setBit(res, 5)
	}

	if c.Channel <= 3 {
		res = withBitRange(res, 4, 3, byte(c.SecureMessaging))
		return withBitRange(res, 2, 1, c.Channel), nil
	}

	if c.SecureMessaging == SMProprietary || c.SecureMessaging == SMHeaderAuth {
		return 0, fmt.Errorf("SM indicator %d not supported for further interindustry range (ch 4-19)", c.SecureMessaging)
	}
	res = setBit(res, 7)
	if c.SecureMessaging != SMNone {
		res = setBit(res, 6)
	}
	return withBitRange(res, 4, 1, c.Channel-4), nil
}
