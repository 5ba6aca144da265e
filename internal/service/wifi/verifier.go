package wifi

import (
	"context"
	"fmt"
	"strings"
)

// API is the slice of the backend the verifier needs.
type API interface {
	// ClientIP returns the backend's view of the caller's IP, possibly a
	// comma-separated list when proxies are involved.
	ClientIP(ctx context.Context) (string, error)

	// WifiAllowlist returns the IPs of the permitted office networks.
	WifiAllowlist(ctx context.Context) ([]string, error)
}

// Result is the outcome of one allow-list verification.
type Result struct {
	Allowed   bool
	PrimaryIP string
	AllIPs    []string
}

// Verifier checks whether the caller is on an allowed office network. It is
// one of the three gates AND-ed before a punch action.
type Verifier struct {
	api API
}

func NewVerifier(api API) *Verifier {
	return &Verifier{api: api}
}

// Verify fetches the caller's IP and the allow-list and compares them on
// normalized form. Any fetch failure fails closed: not allowed.
func (v *Verifier) Verify(ctx context.Context) (Result, error) {
	raw, err := v.api.ClientIP(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch client ip: %w", err)
	}

	ips := splitIPs(raw)
	if len(ips) == 0 {
		return Result{}, fmt.Errorf("backend returned no client ip")
	}
	primary := ips[0]

	allowlist, err := v.api.WifiAllowlist(ctx)
	if err != nil {
		return Result{AllIPs: ips, PrimaryIP: primary}, fmt.Errorf("failed to fetch wifi allowlist: %w", err)
	}

	res := Result{PrimaryIP: primary, AllIPs: ips}
	for _, allowed := range allowlist {
		if NormalizeIP(allowed) == primary {
			res.Allowed = true
			break
		}
	}
	return res, nil
}

// NormalizeIP strips whitespace and IPv4-mapped prefixes and folds the IPv6
// loopback onto its IPv4 form so that both sides of the comparison agree.
func NormalizeIP(ip string) string {
	ip = strings.ReplaceAll(ip, " ", "")
	ip = strings.TrimPrefix(ip, "::ffff:")
	if ip == "::1" {
		return "127.0.0.1"
	}
	return ip
}

func splitIPs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if n := NormalizeIP(part); n != "" {
			out = append(out, n)
		}
	}
	return out
}
