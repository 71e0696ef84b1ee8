// Package nginx renders reverse-proxy site configuration and knows where it lives.
package nginx

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/fgeck/hostprep/internal/models"
)

// Standard configuration locations.
const (
	SitesAvailableDir = "/etc/nginx/sites-available"
	SitesEnabledDir   = "/etc/nginx/sites-enabled"
	ConfDir           = "/etc/nginx/conf.d"
)

// DefaultAppPort is the upstream port used when none is given.
const DefaultAppPort = 3000

// ErrInvalidSite is returned for site records that cannot be rendered safely.
var ErrInvalidSite = errors.New("invalid site configuration")

var vhostTemplate = template.Must(template.New("vhost").Parse(`server {
    listen 80;
    server_name {{ .Domain }};
    location / {
        proxy_pass http://localhost:{{ .AppPort }};
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
`))

// Validate checks that a site record can be rendered and used as a file name.
func Validate(site models.SiteConfig) error {
	if site.Domain == "" {
		return fmt.Errorf("%w: domain is required", ErrInvalidSite)
	}
	if strings.ContainsAny(site.Domain, " \t\r\n;{}/\\'\"$") {
		return fmt.Errorf("%w: domain %q contains forbidden characters", ErrInvalidSite, site.Domain)
	}
	// The domain becomes a file name under the nginx directories.
	if site.Domain == "." || site.Domain == ".." || path.Base(site.Domain) != site.Domain {
		return fmt.Errorf("%w: domain %q is not a valid file name", ErrInvalidSite, site.Domain)
	}
	if site.AppPort < 1 || site.AppPort > 65535 {
		return fmt.Errorf("%w: app port %d out of range", ErrInvalidSite, site.AppPort)
	}
	return nil
}

// Render produces the virtual-host block for site.
func Render(site models.SiteConfig) (string, error) {
	if err := Validate(site); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := vhostTemplate.Execute(&buf, site); err != nil {
		return "", fmt.Errorf("failed to render site %s: %w", site.Domain, err)
	}
	return buf.String(), nil
}

// ConfigPath is where the site file for domain is deployed.
func ConfigPath(family models.OSFamily, domain string) string {
	if family == models.FamilyAmazon {
		return path.Join(ConfDir, domain+".conf")
	}
	return path.Join(SitesAvailableDir, domain)
}

// EnabledPath is the symlink that activates the site, or "" when the layout
// has no enable step.
func EnabledPath(family models.OSFamily, domain string) string {
	if family == models.FamilyAmazon {
		return ""
	}
	return path.Join(SitesEnabledDir, domain)
}
