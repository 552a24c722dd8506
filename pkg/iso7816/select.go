package iso7816

// SELECT (INS 'A4'), ISO/IEC 7816-4 §11.2.2.
//
// P1 is the selection method, P2 combines the file occurrence (b2-b1) and the
// response control (b4-b3). When a data field is present no Le is sent, so the
// command stays compatible with T=0 (the card answers 61XX and the Client
// fetches the FCI through GET RESPONSE).

// SelectionMethod defines how the file is targeted (P1).
type SelectionMethod byte

const (
	SelectByFileID SelectionMethod = 0x00
	SelectByDFName SelectionMethod = 0x04 // Select by AID
)

// SelectionControl defines what data to return (Bits 3-4 of P2).
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000_00_00
	ReturnFCP    SelectionControl = 0b0000_01_00
	ReturnFMD    SelectionControl = 0b0000_10_00
	ReturnNoData SelectionControl = 0b0000_11_00
)

// NewSelectCommand creates a SELECT of the first or only occurrence.
func NewSelectCommand(cla Class, method SelectionMethod, ctrl SelectionControl, data []byte) *CommandAPDU {
	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}
	return NewCommandAPDU(cla, mustInstruction(INS_SELECT), byte(method), byte(ctrl), data, ne)
}

// SelectByAID builds `00 A4 04 00 Lc AID`.
func SelectByAID(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectByDFName, ReturnFCI, aid)
}
