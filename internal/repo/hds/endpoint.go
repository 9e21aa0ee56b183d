package hds

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildAPIEndpoint fills the service info api template ("https://{username}.domain/")
// and embeds token as the userinfo part: "https://token@username.domain/".
func BuildAPIEndpoint(apiTemplate, username, token string) (string, error) {
	raw := strings.ReplaceAll(apiTemplate, "{username}", username)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse api template %q: %w", apiTemplate, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("api template %q is not an absolute url", apiTemplate)
	}
	if token != "" {
		u.User = url.User(token)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), nil
}

// ParseAPIEndpoint splits an api endpoint into its token and the base url without
// credentials.
func ParseAPIEndpoint(endpoint string) (base, token string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", fmt.Errorf("parse api endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("api endpoint is not an absolute url")
	}
	if u.User != nil {
		token = u.User.Username()
		u.User = nil
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), token, nil
}
