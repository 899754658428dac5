package denylist

// DefaultPatterns contains the hardcoded safety patterns.
// Commands are matched as case-insensitive substrings of the whole command line.
// Extensions are matched against the lowercased filename suffix only.
var DefaultPatterns = Patterns{
	Commands: []string{
		"format",
		"del /s",
		"rd /s",
		"rmdir /s",
		":(){:|",
		":(){ :|:& };:",
		"rm -rf",
		"mkfs.",
		"dd if=/dev/zero",
		"> /dev/sda",
		"chmod -r 777 /",
	},
	Extensions: []string{
		".exe", ".bat", ".cmd", ".com", ".scr", ".pif",
		".msi", ".msp",
		".vbs", ".vbe", ".js", ".jse", ".ws", ".wsf", ".wsc", ".wsh",
		".ps1", ".psm1", ".psd1",
		".reg",
		".lnk",
		".dll", ".sys",
		".jar",
	},
}
