package shortcuts

import "strings"

type Shortcut struct {
	ID          string   `json:"id"`
	Combination string   `json:"combination"`
	Description string   `json:"description"`
	Application string   `json:"application"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
	Tip         string   `json:"tip,omitempty"`
	Related     []string `json:"related,omitempty"`
}

// DefaultCatalog is served when the shortcuts table is empty or unreachable.
var DefaultCatalog = []Shortcut{
	// ── Basic ──
	{ID: "ctrl_c", Combination: "Ctrl + C", Description: "Copy selected text or item", Application: "Universal", Category: "basic", Difficulty: "beginner",
		Tip: "Works in almost every application. Master this first!", Related: []string{"ctrl_v", "ctrl_x"}},
	{ID: "ctrl_v", Combination: "Ctrl + V", Description: "Paste copied text or item", Application: "Universal", Category: "basic", Difficulty: "beginner",
		Tip: "Always follows Ctrl+C. These two shortcuts go hand in hand.", Related: []string{"ctrl_c", "ctrl_z"}},
	{ID: "ctrl_z", Combination: "Ctrl + Z", Description: "Undo last action", Application: "Universal", Category: "basic", Difficulty: "beginner",
		Tip: "Made a mistake? This shortcut is your best friend!", Related: []string{"ctrl_y", "ctrl_v"}},
	{ID: "ctrl_y", Combination: "Ctrl + Y", Description: "Redo last undone action", Application: "Universal", Category: "basic", Difficulty: "beginner",
		Tip: "Undo the undo! Perfect for when you change your mind.", Related: []string{"ctrl_z"}},
	{ID: "ctrl_a", Combination: "Ctrl + A", Description: "Select all text or items", Application: "Universal", Category: "basic", Difficulty: "beginner",
		Tip: "Quick way to select everything in a document or folder.", Related: []string{"ctrl_c"}},

	// ── Navigation & system ──
	{ID: "alt_tab", Combination: "Alt + Tab", Description: "Switch between open applications", Application: "Windows", Category: "navigation", Difficulty: "beginner",
		Tip: "Hold Alt and press Tab repeatedly to cycle through apps.", Related: []string{"win_tab"}},
	{ID: "win_d", Combination: "Win + D", Description: "Show desktop (minimize all windows)", Application: "Windows", Category: "navigation", Difficulty: "beginner",
		Tip: "Perfect for quickly accessing desktop icons or files."},
	{ID: "win_l", Combination: "Win + L", Description: "Lock computer screen", Application: "Windows", Category: "security", Difficulty: "beginner",
		Tip: "Lock your screen whenever you step away."},
	{ID: "win_tab", Combination: "Win + Tab", Description: "Open Task View (virtual desktops)", Application: "Windows", Category: "navigation", Difficulty: "intermediate",
		Tip: "Great for managing multiple virtual desktops and windows.", Related: []string{"alt_tab"}},
	{ID: "win_r", Combination: "Win + R", Description: "Open Run dialog", Application: "Windows", Category: "system", Difficulty: "intermediate",
		Tip: "Quick way to run programs, open folders, or system tools.", Related: []string{"win_x"}},
	{ID: "win_x", Combination: "Win + X", Description: "Open Quick Link menu", Application: "Windows", Category: "system", Difficulty: "intermediate",
		Tip: "Power user menu with quick access to system tools.", Related: []string{"win_r", "win_i"}},
	{ID: "win_i", Combination: "Win + I", Description: "Open Windows Settings", Application: "Windows", Category: "system", Difficulty: "beginner",
		Tip: "Quick access to all Windows settings.", Related: []string{"win_x"}},

	// ── Browsing ──
	{ID: "ctrl_t", Combination: "Ctrl + T", Description: "Open new tab", Application: "Chrome", Category: "browsing", Difficulty: "beginner",
		Tip: "Essential for multitasking while browsing the web.", Related: []string{"ctrl_w", "ctrl_shift_t"}},
	{ID: "ctrl_w", Combination: "Ctrl + W", Description: "Close current tab", Application: "Chrome", Category: "browsing", Difficulty: "beginner",
		Tip: "Quick way to close tabs you no longer need.", Related: []string{"ctrl_t", "ctrl_shift_t"}},
	{ID: "ctrl_shift_t", Combination: "Ctrl + Shift + T", Description: "Reopen recently closed tab", Application: "Chrome", Category: "browsing", Difficulty: "intermediate",
		Tip: "Accidentally closed a tab? This brings it back!", Related: []string{"ctrl_w"}},
	{ID: "ctrl_l", Combination: "Ctrl + L", Description: "Focus address bar", Application: "Chrome", Category: "browsing", Difficulty: "beginner",
		Tip: "Jump to the address bar to type a new URL."},
	{ID: "ctrl_shift_n", Combination: "Ctrl + Shift + N", Description: "Open incognito window", Application: "Chrome", Category: "browsing", Difficulty: "intermediate",
		Tip: "Private browsing mode. No history or cookies are saved."},

	// ── Files ──
	{ID: "win_e", Combination: "Win + E", Description: "Open File Explorer", Application: "Windows", Category: "files", Difficulty: "beginner",
		Tip: "Quick access to your files and folders."},
	{ID: "f2", Combination: "F2", Description: "Rename selected file or folder", Application: "File Explorer", Category: "files", Difficulty: "beginner",
		Tip: "Select a file and press F2 to rename it.", Related: []string{"ctrl_shift_n_explorer"}},
	{ID: "ctrl_shift_n_explorer", Combination: "Ctrl + Shift + N", Description: "Create new folder", Application: "File Explorer", Category: "files", Difficulty: "beginner",
		Tip: "Organize your files by quickly creating new folders.", Related: []string{"f2"}},
	{ID: "ctrl_s", Combination: "Ctrl + S", Description: "Save document or file", Application: "Universal", Category: "files", Difficulty: "beginner",
		Tip: "Save your work frequently to avoid losing progress!"},

	// ── Text ──
	{ID: "ctrl_f", Combination: "Ctrl + F", Description: "Find text on page or document", Application: "Universal", Category: "text", Difficulty: "beginner",
		Tip: "Search for specific text in documents, web pages, or applications.", Related: []string{"ctrl_h"}},
	{ID: "ctrl_h", Combination: "Ctrl + H", Description: "Find and replace text", Application: "Text Editors", Category: "text", Difficulty: "intermediate",
		Tip: "Replace every instance of one word with another.", Related: []string{"ctrl_f"}},

	// ── Development ──
	{ID: "ctrl_p_vscode", Combination: "Ctrl + P", Description: "Quick Open file", Application: "VS Code", Category: "development", Difficulty: "intermediate",
		Tip: "Type a filename to jump to any file in your project.", Related: []string{"ctrl_shift_p_vscode"}},
	{ID: "ctrl_shift_p_vscode", Combination: "Ctrl + Shift + P", Description: "Open Command Palette", Application: "VS Code", Category: "development", Difficulty: "intermediate",
		Tip: "Access all VS Code commands from one place.", Related: []string{"ctrl_p_vscode"}},
	{ID: "ctrl_grave", Combination: "Ctrl + `", Description: "Toggle integrated terminal", Application: "VS Code", Category: "development", Difficulty: "intermediate",
		Tip: "Open the terminal without leaving the editor."},
	{ID: "alt_shift_f_vscode", Combination: "Shift + Alt + F", Description: "Format document", Application: "VS Code", Category: "development", Difficulty: "advanced",
		Tip: "Runs the configured formatter over the whole file.", Related: []string{"ctrl_shift_p_vscode"}},
	{ID: "ctrl_d_vscode", Combination: "Ctrl + D", Description: "Add selection to next find match", Application: "VS Code", Category: "development", Difficulty: "expert",
		Tip: "Press repeatedly to edit several occurrences at once.", Related: []string{"ctrl_f"}},

	// ── Productivity ──
	{ID: "print_screen", Combination: "Print Screen", Description: "Take screenshot of entire screen", Application: "Windows", Category: "productivity", Difficulty: "beginner",
		Tip: "The screenshot goes to the clipboard. Paste it with Ctrl+V.", Related: []string{"win_shift_s"}},
	{ID: "win_shift_s", Combination: "Win + Shift + S", Description: "Take screenshot of selected area", Application: "Windows", Category: "productivity", Difficulty: "intermediate",
		Tip: "Opens Snip & Sketch for precise screenshots.", Related: []string{"print_screen"}},
	{ID: "win_v", Combination: "Win + V", Description: "Open clipboard history", Application: "Windows", Category: "productivity", Difficulty: "advanced",
		Tip: "Paste anything you copied recently, not just the last item.", Related: []string{"ctrl_v"}},

	// ── Formatting ──
	{ID: "ctrl_b", Combination: "Ctrl + B", Description: "Bold selected text", Application: "Word/Office", Category: "formatting", Difficulty: "beginner",
		Tip: "Make text stand out by making it bold.", Related: []string{"ctrl_i"}},
	{ID: "ctrl_i", Combination: "Ctrl + I", Description: "Italicize selected text", Application: "Word/Office", Category: "formatting", Difficulty: "beginner",
		Tip: "Add emphasis to text with italics.", Related: []string{"ctrl_b"}},

	// ── Email ──
	{ID: "ctrl_n_outlook", Combination: "Ctrl + N", Description: "Create new email", Application: "Outlook", Category: "email", Difficulty: "beginner",
		Tip: "Start composing a new email message.", Related: []string{"ctrl_r_outlook"}},
	{ID: "ctrl_r_outlook", Combination: "Ctrl + R", Description: "Reply to email", Application: "Outlook", Category: "email", Difficulty: "beginner",
		Tip: "Reply to the sender of the current email.", Related: []string{"ctrl_n_outlook"}},
	{ID: "f9_outlook", Combination: "F9", Description: "Send/Receive emails", Application: "Outlook", Category: "email", Difficulty: "beginner",
		Tip: "Check for new mail and send queued messages."},

	// ── Communication ──
	{ID: "space_zoom", Combination: "Spacebar", Description: "Temporarily unmute in Zoom", Application: "Zoom", Category: "communication", Difficulty: "beginner",
		Tip: "Hold spacebar to speak when muted, release to mute again.", Related: []string{"alt_a_zoom"}},
	{ID: "alt_a_zoom", Combination: "Alt + A", Description: "Toggle mute/unmute", Application: "Zoom", Category: "communication", Difficulty: "beginner",
		Tip: "Toggle your microphone during video calls.", Related: []string{"alt_v_zoom", "space_zoom"}},
	{ID: "alt_v_zoom", Combination: "Alt + V", Description: "Toggle video on/off", Application: "Zoom", Category: "communication", Difficulty: "beginner",
		Tip: "Turn your camera on or off during video calls.", Related: []string{"alt_a_zoom"}},
}

// ── Lookups ─────────────────────────────────────────────

func Find(catalog []Shortcut, id string) (Shortcut, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Shortcut{}, false
}

// Filter keeps shortcuts matching category and application. Empty arguments
// match everything; comparisons ignore case.
func Filter(catalog []Shortcut, category, application string) []Shortcut {
	out := make([]Shortcut, 0, len(catalog))
	for _, s := range catalog {
		if category != "" && !strings.EqualFold(s.Category, category) {
			continue
		}
		if application != "" && !strings.EqualFold(s.Application, application) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// RelatedTo resolves the related ids of s against catalog, skipping unknown ids.
func RelatedTo(catalog []Shortcut, s Shortcut) []Shortcut {
	var out []Shortcut
	for _, id := range s.Related {
		if r, ok := Find(catalog, id); ok {
			out = append(out, r)
		}
	}
	return out
}
