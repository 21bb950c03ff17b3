// Package catalogue is the HTTP client for a CDLI-style catalogue service.
//
// The service exposes resource collections (periods, rulers, artifacts, ...)
// and a search endpoint, content-negotiated through the Accept header and
// paginated with RFC 8288 Link headers. The client keeps one session (cookies
// plus CSRF token) shared by every request, can log in with a two-step
// credentials + second-factor handshake, and walks the pages of a collection
// as a lazy sequence:
//
//	client, err := catalogue.New("https://cdli.earth/", catalogue.WithListener(tracker))
//	if err != nil {
//	    return err
//	}
//	pages, err := client.Pages(ctx, "periods", "csv", "periods")
//	if err != nil {
//	    return err // unsupported format, nothing was requested
//	}
//	for body, err := range pages {
//	    if err != nil {
//	        return err
//	    }
//	    out.Write(body)
//	}
//
// Gateway timeouts (504) are retried up to three times with a fixed 500ms
// backoff. Every other status >= 400 ends the sequence with an HTTP error, and
// a response whose Content-Type differs from the requested format ends it
// with a format mismatch error. For csv and tsv, every page after the first
// has its header line removed so the concatenated output has a single header.
package catalogue
