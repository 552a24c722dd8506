package samcard

import (
	"maps"
)

// Decoder turns a CardSession into SecureCardData. It keeps no state, so
// decoding the same session twice gives equal results.
type Decoder struct {
	Config Config
}

// Decode runs every step whatever the outcome of the previous one.
func (d Decoder) Decode(s *CardSession) *SecureCardData {
	if !s.Authenticated {
		msg := s.Errors["error"]
		if msg == "" {
			msg = ErrAuthenticationFailed.Error()
		}
		out := failure(msg)
		out.SessionID = s.ID.String()
		return out
	}

	out := &SecureCardData{
		SessionID:        s.ID.String(),
		Fingerprints:     []FingerprintRecord{},
		AdditionalFields: make(map[string]string),
		IsAuthenticated:  true,
		Application:      s.Application,
	}

	if payload, ok := s.Record(d.Config.CardholderSFI, 1); ok {
		fields := ParseCardholder(payload)
		maps.Copy(out.AdditionalFields, fields)
		out.FirstName = fields["firstName"]
		out.Surname = fields["surname"]
		if id, ok := fields["cardId"]; ok {
			out.CardID = id
		} else {
			out.CardID = fields["documentNumber"]
		}
	}

	if d.Config.Capabilities.Face {
		out.FaceImage, out.FaceFormat = d.face(s)
	}

	if d.Config.Capabilities.Fingerprints {
		for _, sfi := range d.Config.FingerprintSFIs {
			buf := s.File(sfi)
			if len(buf) == 0 {
				continue
			}
			tpl, ok := ExtractTemplate(buf)
			if !ok {
				continue
			}
			out.Fingerprints = append(out.Fingerprints, FingerprintRecord{
				Template:    tpl,
				FingerIndex: FingerIndex(sfi),
				Format:      ClassifyTemplate(tpl),
			})
		}
	}

	if w, ok := s.Errors["warning"]; ok {
		out.AdditionalFields["warning"] = w
	}
	return out
}

// face tries JPEG on the primary file, JPEG on the fallback, then GIF on the fallback.
func (d Decoder) face(s *CardSession) ([]byte, ImageFormat) {
	if img := ExtractJPEG(s.File(d.Config.FaceSFIs.Primary)); img != nil {
		return img, ImageJPEG
	}
	if d.Config.FaceSFIs.Fallback == 0 {
		return nil, ""
	}
	fallback := s.File(d.Config.FaceSFIs.Fallback)
	if img := ExtractJPEG(fallback); img != nil {
		return img, ImageJPEG
	}
	if img := ExtractGIF(fallback); img != nil {
		return img, ImageGIF
	}
	return nil, ""
}
