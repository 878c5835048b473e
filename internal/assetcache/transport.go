package assetcache

import (
	"bytes"
	"io"
	"log"
	"net/http"
)

// Transport serves GET requests from an active Cache before touching the
// network. Misses go to Base; 200 responses are stored for next time.
type Transport struct {
	Cache *Cache
	Base  http.RoundTripper // nil means http.DefaultTransport
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || t.Cache.State() != StateActive {
		return t.base().RoundTrip(req)
	}
	ctx := req.Context()
	key := req.URL.String()

	e, ok, err := t.Cache.Match(ctx, key)
	if err != nil {
		log.Printf("assetcache: match %s: %v", key, err)
	}
	if ok {
		return e.Response(req), nil
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, &NetworkError{URL: key, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &NetworkError{URL: key, Err: err}
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	entry := Entry{URL: key, Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body}
	if err := t.Cache.store(ctx, entry); err != nil {
		log.Printf("assetcache: store %s: %v", key, err)
	}
	return resp, nil
}
