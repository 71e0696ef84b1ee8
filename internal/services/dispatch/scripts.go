package dispatch

import (
	"fmt"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/kballard/go-shellquote"
)

// Docker APT repository layout.
const (
	DockerKeyringDir  = "/etc/apt/keyrings"
	DockerKeyPath     = "/etc/apt/keyrings/docker.asc"
	DockerSourcesPath = "/etc/apt/sources.list.d/docker.sources"
)

var dockerDebianPackages = []string{
	"docker-ce", "docker-ce-cli", "containerd.io", "docker-buildx-plugin", "docker-compose-plugin",
}

// DockerPlan is the Docker installation script. On debian-family hosts the
// APT source file is deployed between Before and After.
type DockerPlan struct {
	Before         []models.Step
	SourcesPath    string // empty when no source file is needed
	SourcesContent string
	After          []models.Step
}

func required(description, command string) models.Step {
	return models.Step{Description: description, Command: command, Elevate: true, Severity: models.SeverityRequired}
}

func optional(description, command string) models.Step {
	return models.Step{Description: description, Command: command, Elevate: true, Severity: models.SeverityOptional}
}

func aptInstall(packages ...string) string {
	return "DEBIAN_FRONTEND=noninteractive apt-get install -y " + shellquote.Join(packages...)
}

func yumInstall(packages ...string) string {
	return "yum install -y " + shellquote.Join(packages...)
}

// bestEffort tries both package managers; whichever is absent simply fails.
func bestEffort(aptPackage, yumPackage string) []models.Step {
	return []models.Step{
		optional("Updating package list (apt)...", "apt-get update"),
		optional("Updating package list (yum)...", "yum update -y"),
		optional("Installing "+aptPackage+" (apt)...", aptInstall(aptPackage)),
		optional("Installing "+yumPackage+" (yum)...", yumInstall(yumPackage)),
	}
}

// DockerScript returns the Docker installation script for the host.
func DockerScript(info models.HostInfo) DockerPlan {
	switch info.Family {
	case models.FamilyDebian:
		distro := "ubuntu"
		if info.OSID == "debian" {
			distro = "debian"
		}
		return DockerPlan{
			Before: []models.Step{
				required("Updating package list...", "apt-get update"),
				optional("Installing prerequisites...", aptInstall("ca-certificates", "curl")),
				optional("Creating keyring directory...", "install -m 0755 -d "+DockerKeyringDir),
				optional("Downloading Docker signing key...",
					fmt.Sprintf("curl -fsSL https://download.docker.com/linux/%s/gpg -o %s", distro, DockerKeyPath)),
				optional("Making signing key readable...", "chmod a+r "+DockerKeyPath),
			},
			SourcesPath:    DockerSourcesPath,
			SourcesContent: DockerSourcesFile(distro, info.Codename),
			After: []models.Step{
				optional("Updating package list with Docker repository...", "apt-get update"),
				required("Installing Docker...", aptInstall(dockerDebianPackages...)),
			},
		}
	case models.FamilyAmazon:
		return DockerPlan{
			Before: []models.Step{
				required("Updating package list...", "yum update -y"),
				required("Installing Docker...", yumInstall("docker")),
			},
		}
	default:
		return DockerPlan{Before: bestEffort("docker.io", "docker")}
	}
}

// DockerSourcesFile renders the deb822 APT source for the Docker repository.
func DockerSourcesFile(distro, codename string) string {
	return fmt.Sprintf(`Types: deb
URIs: https://download.docker.com/linux/%s
Suites: %s
Components: stable
Signed-By: %s
`, distro, codename, DockerKeyPath)
}

// NginxScript returns the nginx installation script for an OS family.
func NginxScript(family models.OSFamily) []models.Step {
	switch family {
	case models.FamilyDebian:
		return []models.Step{
			required("Updating package list...", "apt-get update"),
			required("Installing Nginx...", aptInstall("nginx")),
		}
	case models.FamilyAmazon:
		return []models.Step{
			required("Updating package list...", "yum update -y"),
			required("Installing Nginx...", yumInstall("nginx")),
		}
	default:
		return bestEffort("nginx", "nginx")
	}
}

// FinishScript starts and enables a service after installation. When
// groupUser is set, that user is added to the service's group.
func FinishScript(service, displayName, groupUser string) []models.Step {
	steps := []models.Step{
		required("Starting "+displayName+" service...", "systemctl start "+shellquote.Join(service)),
		optional("Enabling "+displayName+" service...", "systemctl enable "+shellquote.Join(service)),
	}
	if groupUser != "" {
		steps = append(steps, optional(
			"Adding user to "+service+" group...",
			"usermod -aG "+shellquote.Join(service, groupUser),
		))
	}
	return append(steps, optional(
		"Checking "+displayName+" status...",
		"systemctl status --no-pager "+shellquote.Join(service),
	))
}

// EnableSiteScript links configPath into the enabled directory. Any existing
// link is removed first so repeated runs leave exactly one.
func EnableSiteScript(configPath, enabledPath string) []models.Step {
	return []models.Step{
		optional("Removing existing site link...", "rm -f "+shellquote.Join(enabledPath)),
		required("Enabling site...", "ln -s "+shellquote.Join(configPath, enabledPath)),
	}
}

// ConfigTestStep validates the merged nginx configuration.
func ConfigTestStep() models.Step {
	return required("Testing Nginx configuration...", "nginx -t")
}

// ReloadStep asks a running service to reload its configuration.
func ReloadStep(service, displayName string) models.Step {
	return optional("Reloading "+displayName+"...", "systemctl reload "+shellquote.Join(service))
}

// RestartStep fully restarts a service.
func RestartStep(service, displayName string) models.Step {
	return optional("Restarting "+displayName+"...", "systemctl restart "+shellquote.Join(service))
}
