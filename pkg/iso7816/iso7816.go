/*
Package iso7816 builds and exchanges the ISO/IEC 7816-4 commands a SAM reader
needs: SELECT by application identifier and READ RECORD by short file
identifier.

Communication with a card is strictly synchronous. The host sends a command
APDU (header plus optional body) and the card returns a response APDU
(optional body plus the SW1 SW2 trailer).

# Status Words

  - '9000': success.
  - '61XX': success, XX bytes still available. Client.Send issues GET RESPONSE.
  - '6CXX': wrong Le, XX is the right one. Client.Send re-issues the command once.
    Client.Exchange returns both as is.
  - '6A82' / '6A83': file or record not found.
  - anything else: error or warning, see StatusWord.Verbose.

# Usage

	client := iso7816.NewClient(card)

	trace, err := client.Send(ctx, iso7816.SelectByAID(iso7816.InterindustryClass, aid))
	if err != nil {
	    return err
	}
	if trace.Status() != iso7816.SW_NO_ERROR {
	    return fmt.Errorf("select failed: %s", trace.Status().Verbose())
	}

	trace, err = client.Exchange(ctx, iso7816.ReadRecord(iso7816.InterindustryClass, 1, 1))
	fmt.Println(trace.Describe())
*/
package iso7816
