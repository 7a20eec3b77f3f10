package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAPIKeyGuide writes step-by-step instructions for obtaining a Flickr
// API key pair.
func ShowAPIKeyGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "FLICKR API KEY GUIDE")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "The crawler calls the public Flickr REST API and needs an API key and secret.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 1: Sign in at https://www.flickr.com with any Flickr account")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 2: Open https://www.flickr.com/services/apps/create/")
	fmt.Fprintln(w, "   - Choose 'Apply for a Non-Commercial Key' for research use")
	fmt.Fprintln(w, "   - Describe the app, accept the terms and submit")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 3: Copy the 'Key' and 'Secret' shown on the next page")
	fmt.Fprintln(w, "   ┌────────┬──────────────────────────────────────┐")
	fmt.Fprintln(w, "   │ Key    │ 32 hexadecimal characters            │")
	fmt.Fprintln(w, "   │ Secret │ 16 hexadecimal characters            │")
	fmt.Fprintln(w, "   └────────┴──────────────────────────────────────┘")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TIPS:")
	fmt.Fprintln(w, "   • Keys are listed again at https://www.flickr.com/services/apps/by/me")
	fmt.Fprintln(w, "   • FLICKR_API_KEY and FLICKR_API_SECRET override stored credentials")
	fmt.Fprintln(w, "   • Each key is rate limited by Flickr; the crawler paces itself accordingly")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)
}
