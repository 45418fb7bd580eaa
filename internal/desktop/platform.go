package desktop

import "strings"

// Browser families known to FindBrowser.
const (
	FamilyChrome  = "chrome"
	FamilyBrave   = "brave"
	FamilyFirefox = "firefox"
	FamilyEdge    = "edge"
)

var families = []string{FamilyChrome, FamilyBrave, FamilyFirefox, FamilyEdge}

// BrowserFamily classifies a free-form browser name by substring. It returns
// "" for names that match no family.
func BrowserFamily(name string) string {
	lower := strings.ToLower(name)
	for _, f := range families {
		if strings.Contains(lower, f) {
			return f
		}
	}
	if strings.Contains(lower, "chromium") || strings.Contains(lower, "google") {
		return FamilyChrome
	}
	return ""
}

// platform holds the per-OS details of program discovery and control.
type platform struct {
	// browserPaths are install locations probed in order. A leading "~" is
	// the user's home directory.
	browserPaths map[string][]string
	// browserBins are command names looked up on PATH.
	browserBins map[string][]string
	// appAliases maps short names onto executable names.
	appAliases map[string]string
	// opener hands a URL or path to the default handler.
	opener []string
	// search locates an executable by name.
	search string
	// shellStart is the last-resort launcher; the app name is appended.
	shellStart []string
	// kill terminates processes by image name; the name is appended.
	kill []string
	// closeWindow lists degraded window-close commands, used without input simulation.
	closeWindow [][]string
	// screenshot lists capture commands; "{path}" is replaced by the target.
	screenshot [][]string
}

var platforms = map[string]platform{
	"windows": {
		browserPaths: map[string][]string{
			FamilyChrome: {
				`~\AppData\Local\Google\Chrome\Application\chrome.exe`,
				`C:\Program Files\Google\Chrome\Application\chrome.exe`,
				`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			},
			FamilyBrave: {
				`~\AppData\Local\BraveSoftware\Brave-Browser\Application\brave.exe`,
				`C:\Program Files\BraveSoftware\Brave-Browser\Application\brave.exe`,
				`C:\Program Files (x86)\BraveSoftware\Brave-Browser\Application\brave.exe`,
			},
			FamilyFirefox: {
				`C:\Program Files\Mozilla Firefox\firefox.exe`,
				`C:\Program Files (x86)\Mozilla Firefox\firefox.exe`,
			},
			FamilyEdge: {
				`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
				`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
			},
		},
		browserBins: map[string][]string{
			FamilyChrome:  {"chrome.exe"},
			FamilyBrave:   {"brave.exe"},
			FamilyFirefox: {"firefox.exe"},
			FamilyEdge:    {"msedge.exe"},
		},
		appAliases: map[string]string{
			"chrome":        "chrome.exe",
			"firefox":       "firefox.exe",
			"edge":          "msedge.exe",
			"brave":         "brave.exe",
			"notepad":       "notepad.exe",
			"bloc de notas": "notepad.exe",
			"calc":          "calc.exe",
			"calculadora":   "calc.exe",
			"vscode":        "code",
			"explorer":      "explorer.exe",
			"spotify":       "spotify.exe",
		},
		opener:     []string{"rundll32", "url.dll,FileProtocolHandler"},
		search:     "where",
		shellStart: []string{"cmd", "/c", "start", ""},
		kill:       []string{"taskkill", "/f", "/im"},
		screenshot: [][]string{{
			"powershell", "-NoProfile", "-Command",
			"Add-Type -AssemblyName System.Windows.Forms,System.Drawing; " +
				"$b=[System.Windows.Forms.Screen]::PrimaryScreen.Bounds; " +
				"$bmp=New-Object System.Drawing.Bitmap $b.Width,$b.Height; " +
				"$g=[System.Drawing.Graphics]::FromImage($bmp); " +
				"$g.CopyFromScreen($b.Location,[System.Drawing.Point]::Empty,$b.Size); " +
				"$bmp.Save('{path}')",
		}},
	},
	"darwin": {
		browserPaths: map[string][]string{
			FamilyChrome:  {"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome", "~/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
			FamilyBrave:   {"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser"},
			FamilyFirefox: {"/Applications/Firefox.app/Contents/MacOS/firefox"},
			FamilyEdge:    {"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
		},
		browserBins: map[string][]string{
			FamilyChrome:  {"google-chrome", "chromium"},
			FamilyBrave:   {"brave-browser"},
			FamilyFirefox: {"firefox"},
			FamilyEdge:    {"microsoft-edge"},
		},
		appAliases: map[string]string{
			"chrome":      "Google Chrome",
			"firefox":     "Firefox",
			"edge":        "Microsoft Edge",
			"brave":       "Brave Browser",
			"calc":        "Calculator",
			"calculadora": "Calculator",
			"notepad":     "TextEdit",
			"vscode":      "code",
			"spotify":     "Spotify",
		},
		opener:      []string{"open"},
		search:      "which",
		shellStart:  []string{"open", "-a"},
		kill:        []string{"pkill", "-x"},
		closeWindow: [][]string{{"osascript", "-e", `tell application "System Events" to keystroke "w" using command down`}},
		screenshot:  [][]string{{"screencapture", "-x", "{path}"}},
	},
	"linux": {
		browserPaths: map[string][]string{
			FamilyChrome:  {"/usr/bin/google-chrome", "/usr/bin/google-chrome-stable", "/usr/bin/chromium", "/usr/bin/chromium-browser", "/snap/bin/chromium"},
			FamilyBrave:   {"/usr/bin/brave-browser", "/usr/bin/brave", "/snap/bin/brave"},
			FamilyFirefox: {"/usr/bin/firefox", "/snap/bin/firefox"},
			FamilyEdge:    {"/usr/bin/microsoft-edge", "/usr/bin/microsoft-edge-stable"},
		},
		browserBins: map[string][]string{
			FamilyChrome:  {"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"},
			FamilyBrave:   {"brave-browser", "brave"},
			FamilyFirefox: {"firefox"},
			FamilyEdge:    {"microsoft-edge", "microsoft-edge-stable"},
		},
		appAliases: map[string]string{
			"chrome":        "google-chrome",
			"firefox":       "firefox",
			"edge":          "microsoft-edge",
			"brave":         "brave-browser",
			"calc":          "gnome-calculator",
			"calculadora":   "gnome-calculator",
			"notepad":       "gedit",
			"bloc de notas": "gedit",
			"vscode":        "code",
			"spotify":       "spotify",
			"terminal":      "x-terminal-emulator",
		},
		opener:      []string{"xdg-open"},
		search:      "which",
		shellStart:  []string{"gtk-launch"},
		kill:        []string{"pkill", "-x"},
		closeWindow: [][]string{{"wmctrl", "-c", ":ACTIVE:"}, {"xdotool", "getactivewindow", "windowclose"}},
		screenshot: [][]string{
			{"gnome-screenshot", "-f", "{path}"},
			{"grim", "{path}"},
			{"scrot", "-o", "{path}"},
			{"import", "-window", "root", "{path}"},
		},
	},
}

// platformFor returns the table for goos; unknown systems use the Linux one.
func platformFor(goos string) platform {
	if p, ok := platforms[goos]; ok {
		return p
	}
	return platforms["linux"]
}
