// Package systemd renders and checks the hostwarden service unit.
package systemd

import (
	"fmt"
	"os"
	"path/filepath"
)

// UnitName is the installed unit file name.
const UnitName = "hostwarden.service"

// SystemUnitPath is where the system unit is installed.
const SystemUnitPath = "/etc/systemd/system/" + UnitName

// UserUnitPath returns ~/.config/systemd/user/hostwarden.service.
func UserUnitPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "systemd", "user", UnitName)
}

// UserTemplate returns the unit for `systemctl --user`. The gateway runs
// inside the operator's desktop session so audio, clipboard, screen and
// launcher providers reach the logged-in user's environment.
func UserTemplate(binary, configPath string) string {
	return fmt.Sprintf(`[Unit]
Description=hostwarden remote-operator gateway
After=graphical-session.target network-online.target
PartOf=graphical-session.target

[Service]
Type=simple
ExecStart=%s serve --config %s
Restart=on-failure
RestartSec=5
PrivateTmp=true

[Install]
WantedBy=graphical-session.target
`, binary, configPath)
}

// SystemTemplate returns a system unit running the gateway as user.
// Desktop providers report unavailable without a user session.
func SystemTemplate(binary, configPath, user string) string {
	return fmt.Sprintf(`[Unit]
Description=hostwarden remote-operator gateway
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User=%s
ExecStart=%s serve --config %s
Restart=on-failure
RestartSec=5
PrivateTmp=true
ProtectSystem=full

[Install]
WantedBy=multi-user.target
`, user, binary, configPath)
}
