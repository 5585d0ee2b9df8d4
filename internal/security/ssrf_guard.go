// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// SSRFGuardService は主催者入力の画像URLを外部取得する際のSSRF防止機能。
type SSRFGuardService interface {
	// NewSafeClient はsafeurlベースのHTTPクライアントを生成する。
	// プライベートIP・ループバック・リンクローカル・メタデータIP宛の
	// リクエストはDNS解決後のIP検証も含めてブロックされる。
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client

	// ValidateURL はリクエスト送信前の静的なURL検証を行う。
	// スキーム・ホスト・IPアドレスを検査し、危険なURLにはエラーを返す。
	ValidateURL(rawURL string) error
}

// deniedCIDRs は外部取得を禁止するネットワーク範囲。
//   - RFC 1918 プライベートアドレス
//   - ループバック（IPv4/IPv6）
//   - リンクローカル（クラウドメタデータIP 169.254.169.254 を含む）
//   - カレントネットワーク、IPv6ユニークローカル
var deniedCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
}

// deniedHosts はIPアドレス以外で明示的に拒否するホスト名。
var deniedHosts = []string{
	"localhost",
	"metadata.google.internal",
}

// ssrfGuard はSSRFGuardServiceの実装。
// 拒否ネットワークは生成時に1回だけパースして保持する。
type ssrfGuard struct {
	denied []*net.IPNet
}

// NewSSRFGuard はSSRFGuardServiceの新しいインスタンスを生成する。
func NewSSRFGuard() *ssrfGuard {
	g := &ssrfGuard{}
	for _, cidr := range deniedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %q: %v", cidr, err))
		}
		g.denied = append(g.denied, network)
	}
	return g
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlがnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディング攻撃を含め、プライベート・ループバック・リンクローカル・
// メタデータ宛のリクエストは接続段階でブロックされる。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はURLの安全性を事前に検証する。
// DNS解決を伴わない静的な検証のみ行う。プロキシがリクエストを組み立てる前の
// 早期拒否用であり、DNS再バインディングはNewSafeClient側のDialer検証が防ぐ。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("disallowed scheme: %s", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if g.ipDenied(ip) {
			return fmt.Errorf("blocked IP address: %s", ip.String())
		}
		return nil
	}

	if hostDenied(host) {
		return fmt.Errorf("blocked host: %s", host)
	}
	return nil
}

// ipDenied はIPアドレスが拒否ネットワークに含まれるかを返す。
func (g *ssrfGuard) ipDenied(ip net.IP) bool {
	for _, network := range g.denied {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// hostDenied はホスト名が拒否リストに含まれるかを返す。
func hostDenied(host string) bool {
	lower := strings.ToLower(host)
	for _, denied := range deniedHosts {
		if lower == denied {
			return true
		}
	}
	return false
}
