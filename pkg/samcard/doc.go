/*
Package samcard reads the cardholder record, face image and fingerprint
templates stored behind a SAM application on an ID card.

A read has two stages:

  - Manager.Run selects the application, authenticates through an
    Authenticator and enumerates READ RECORD over the configured SFIs,
    giving up on an SFI after MaxConsecutiveFailures misses in a row. The
    result is a CardSession of raw records.
  - Decoder.Decode turns a CardSession into SecureCardData: 'DF xx'
    cardholder fields from SFI 1, a JPEG (or GIF) face from SFI 2 or 3, and
    fingerprint templates from SFIs 4 to 6.

Reader.ReadSecureCardData wraps both behind an exclusive transport.Channel
lease and never fails: problems end up in AdditionalFields["error"].

	ch := transport.NewChannel(pcsc)
	reader := samcard.NewReader(ch, samcard.DefaultConfig(), logger)
	data := reader.ReadSecureCardData(ctx, samcard.Credentials{})
	if !data.IsAuthenticated {
	    log.Printf("read failed: %s", data.Error())
	}
*/
package samcard
