package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// ErrBlockedAddress is returned when a download would connect to a loopback,
// private, link-local or otherwise internal address.
var ErrBlockedAddress = errors.New("images: address not allowed")

const maxRedirects = 5

// Internal ranges the net/netip predicates do not cover.
var extraBlocked = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),  // IETF protocol assignments
	netip.MustParsePrefix("198.18.0.0/15"), // benchmarking
}

// PublicAddr reports whether addr may be contacted when downloading an
// image.
func PublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() || addr.IsUnspecified() || addr.IsLoopback() || addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsMulticast() {
		return false
	}
	for _, p := range extraBlocked {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// Fetcher downloads images from data URIs and http(s) URLs. The address
// policy is enforced when the socket is dialed, so every resolved address
// and every redirect hop is checked.
type Fetcher struct {
	client *http.Client
	allow  func(netip.Addr) bool
}

// NewFetcher returns a Fetcher that only connects to public addresses.
func NewFetcher() *Fetcher {
	return newFetcher(PublicAddr, 30*time.Second)
}

func newFetcher(allow func(netip.Addr) bool, timeout time.Duration) *Fetcher {
	f := &Fetcher{allow: allow}
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: f.control}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// A proxy would dial on our behalf and bypass the check.
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	f.client = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("images: more than %d redirects", maxRedirects)
			}
			return checkScheme(req.URL)
		},
	}
	return f
}

var defaultFetcher = NewFetcher()

// Fetch loads image bytes with the default public-only Fetcher.
func Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return defaultFetcher.Fetch(ctx, rawURL)
}

// Fetch loads image bytes from rawURL. At most MaxBytes are read.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(rawURL, "data:"); ok {
		return decodeData(rest)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("images: parse url: %w", err)
	}
	if err := checkScheme(u); err != nil {
		return nil, err
	}
	// Literal addresses fail fast; host names are checked at dial time.
	if addr, err := netip.ParseAddr(u.Hostname()); err == nil && !f.allow(addr) {
		return nil, fmt.Errorf("%w: %s", ErrBlockedAddress, addr)
	}
	return f.download(ctx, u)
}

func (f *Fetcher) download(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("images: build request: %w", err)
	}
	req.Header.Set("Accept", "image/*")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("images: download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("images: download: HTTP %d", resp.StatusCode)
	}
	if resp.ContentLength > MaxBytes {
		return nil, ErrTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("images: read body: %w", err)
	}
	if len(data) > MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// control runs after name resolution, once per address the dialer tries.
func (f *Fetcher) control(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !f.allow(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ap.Addr())
	}
	return nil
}

func checkScheme(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("images: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("images: url has no host")
	}
	return nil
}

// decodeData decodes the part of a data URI after "data:". Only base64
// payloads are accepted; the declared media type is ignored because Save
// sniffs the content.
func decodeData(rest string) ([]byte, error) {
	params, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("images: data uri has no payload")
	}
	if !strings.HasSuffix(params, ";base64") {
		return nil, errors.New("images: data uri must be base64 encoded")
	}
	if len(payload) > base64.StdEncoding.EncodedLen(MaxBytes) {
		return nil, ErrTooLarge
	}
	enc := base64.StdEncoding
	if !strings.HasSuffix(payload, "=") && len(payload)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	data, err := enc.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("images: decode data uri: %w", err)
	}
	return data, nil
}
