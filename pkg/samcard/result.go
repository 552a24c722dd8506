package samcard

// SecureCardData is the outcome of one card read. Empty strings and a nil
// FaceImage mean absent. Surname and FirstName are the single name parts;
// the composed full name is AdditionalFields["name"]. When IsAuthenticated
// is false only AdditionalFields["error"] is set.
type SecureCardData struct {
	SessionID        string              `json:"sessionId,omitempty"`
	CardID           string              `json:"cardId,omitempty"`
	Surname          string              `json:"surname,omitempty"`
	FirstName        string              `json:"firstName,omitempty"`
	FaceImage        []byte              `json:"faceImage,omitempty"`
	FaceFormat       ImageFormat         `json:"faceFormat,omitempty"`
	Fingerprints     []FingerprintRecord `json:"fingerprints"`
	AdditionalFields map[string]string   `json:"additionalFields"`
	IsAuthenticated  bool                `json:"isAuthenticated"`
	Application      *Application        `json:"application,omitempty"`
}

// Failed builds the unauthenticated result for err.
func Failed(err error) *SecureCardData {
	return failure(err.Error())
}

func failure(msg string) *SecureCardData {
	return &SecureCardData{
		Fingerprints:     []FingerprintRecord{},
		AdditionalFields: map[string]string{"error": msg},
	}
}

// Error returns AdditionalFields["error"].
func (d *SecureCardData) Error() string {
	return d.AdditionalFields["error"]
}

// FaceDigest is the hex SHA3-256 of the face image, or "" without one.
func (d *SecureCardData) FaceDigest() string {
	if d.FaceImage == nil {
		return ""
	}
	return digest(d.FaceImage)
}

// Fingerprint returns the template for a finger index.
func (d *SecureCardData) Fingerprint(index int) (FingerprintRecord, bool) {
	for _, f := range d.Fingerprints {
		if f.FingerIndex == index {
			return f, true
		}
	}
	return FingerprintRecord{}, false
}
