// Package session borrows the viewer's backend session from a web browser so
// the terminal client can make credentialed requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"
)

var ErrNoSessionCookies = errors.New("no session cookies found")

// LoadBrowserCookies reads the cookies named in names that browsers hold for
// the backend host. browser restricts the lookup to one browser ("chrome",
// "firefox", ...); "any" or "" accepts all of them.
func LoadBrowserCookies(ctx context.Context, backendURL, browser string, names []string) ([]*http.Cookie, error) {
	u, err := url.Parse(backendURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid backend url %q", backendURL)
	}
	host := u.Hostname()

	cookies, err := kooky.ReadCookies(ctx, kooky.DomainHasSuffix(host))
	if err != nil && len(cookies) == 0 {
		return nil, fmt.Errorf("read cookies from browser: %w", err)
	}

	selected := selectCookies(cookies, browser, names)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoSessionCookies, host)
	}

	slog.Info("loaded backend session from browser",
		slog.String("host", host),
		slog.String("browser", browser),
		slog.Int("cookies", len(selected)))
	return selected, nil
}

// selectCookies keeps one cookie per wanted name, preferring the most
// recently created one.
func selectCookies(cookies []*kooky.Cookie, browser string, names []string) []*http.Cookie {
	browser = strings.ToLower(browser)
	if browser == "any" {
		browser = ""
	}

	candidates := make([]*kooky.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		if cookie == nil || cookie.Value == "" {
			continue
		}
		if len(names) > 0 && !slices.Contains(names, cookie.Name) {
			continue
		}
		if browser != "" && cookie.Browser != nil {
			if !strings.Contains(strings.ToLower(cookie.Browser.Browser()), browser) {
				continue
			}
		}
		candidates = append(candidates, cookie)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Creation.After(candidates[j].Creation)
	})

	seen := make(map[string]bool, len(candidates))
	var out []*http.Cookie
	for _, cookie := range candidates {
		if seen[cookie.Name] {
			continue
		}
		seen[cookie.Name] = true
		out = append(out, &http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return out
}
