package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"stockbar/internal/config"
)

// Runner runs an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Dialogs are the interactive prompts behind the set and clear commands.
// Every method reports cancellation as false; a failing dialog counts as
// the user cancelling.
type Dialogs interface {
	// Confirm shows buttons[0] as cancel and buttons[1] as the default.
	Confirm(title, text string, buttons [2]string) bool
	Prompt(text string) (string, bool)
	Choose(text string, choices []string) (string, bool)
	Alert(title, text string)
}

// OSAScriptDialogs shows macOS dialogs through JavaScript for Automation.
type OSAScriptDialogs struct {
	runner Runner
	ctx    context.Context
}

// NewOSAScriptDialogs creates dialogs backed by osascript.
func NewOSAScriptDialogs(ctx context.Context, runner Runner) *OSAScriptDialogs {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &OSAScriptDialogs{runner: runner, ctx: ctx}
}

func (d *OSAScriptDialogs) jxa(script string) (string, bool) {
	out, err := d.runner.Run(d.ctx, "osascript", "-l", "JavaScript", "-e", script)
	if err != nil {
		return "", false
	}
	return strings.TrimRight(string(out), "\r\n"), true
}

// Confirm implements Dialogs.
func (d *OSAScriptDialogs) Confirm(title, text string, buttons [2]string) bool {
	script := fmt.Sprintf(`const app = Application.currentApplication()
app.includeStandardAdditions = true
const response = app.displayAlert(%s, {
    message: %s,
    as: 'critical',
    buttons: [%s, %s],
    defaultButton: %s,
    cancelButton: %s
})
response`, jsString(title), jsString(text),
		jsString(buttons[0]), jsString(buttons[1]), jsString(buttons[1]), jsString(buttons[0]))

	_, ok := d.jxa(script)
	return ok
}

// Prompt implements Dialogs. An empty answer is a cancel.
func (d *OSAScriptDialogs) Prompt(text string) (string, bool) {
	script := fmt.Sprintf(`const app = Application.currentApplication()
app.includeStandardAdditions = true
const response = app.displayDialog(%s, {
    defaultAnswer: '',
    buttons: ['Cancel', 'OK'],
    defaultButton: 'OK'
})
response.textReturned`, jsString(text))

	out, ok := d.jxa(script)
	if !ok || out == "" {
		return "", false
	}
	return out, true
}

// Choose implements Dialogs.
func (d *OSAScriptDialogs) Choose(text string, choices []string) (string, bool) {
	if len(choices) == 0 {
		return "", false
	}
	list, err := json.Marshal(choices)
	if err != nil {
		return "", false
	}
	script := fmt.Sprintf(`const app = Application.currentApplication()
app.includeStandardAdditions = true
var choices = %s
const response = app.chooseFromList(choices, {
    withPrompt: %s,
    defaultItems: [choices[0]]
})
response`, list, jsString(text))

	out, ok := d.jxa(script)
	if !ok || out == "false" || out == "" {
		return "", false
	}
	return out, true
}

// Alert implements Dialogs.
func (d *OSAScriptDialogs) Alert(title, text string) {
	script := fmt.Sprintf(`const app = Application.currentApplication()
app.includeStandardAdditions = true
app.displayAlert(%s, { message: %s, as: 'critical', buttons: ['OK'] })`, jsString(title), jsString(text))
	d.jxa(script)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

const systemSounds = "/System/Library/Sounds"

// DialogNotifier plays a system sound several times and then shows a dialog
// that stays up until dismissed.
type DialogNotifier struct {
	runner   Runner
	sound    string
	repeat   int
	interval time.Duration
	sleep    func(time.Duration)
}

// NewDialogNotifier creates a DialogNotifier from the alarm settings.
func NewDialogNotifier(runner Runner, cfg config.AlarmConfig) *DialogNotifier {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &DialogNotifier{
		runner:   runner,
		sound:    cfg.Sound,
		repeat:   cfg.SoundRepeat,
		interval: cfg.SoundInterval,
		sleep:    time.Sleep,
	}
}

// Name returns the name of the notifier.
func (d *DialogNotifier) Name() string {
	return "dialog"
}

// IsEnabled returns whether the notifier is enabled.
func (d *DialogNotifier) IsEnabled() bool {
	return true
}

// Send plays the sound and blocks on the dialog.
func (d *DialogNotifier) Send(ctx context.Context, n Notification) error {
	if d.sound != "" {
		sound := fmt.Sprintf("%s/%s.aiff", systemSounds, d.sound)
		for i := 0; i < d.repeat; i++ {
			// a missing sound must not suppress the dialog
			_, _ = d.runner.Run(ctx, "afplay", sound)
			d.sleep(d.interval)
		}
	}

	script := fmt.Sprintf(`display dialog %s with title %s buttons {"OK"} default button "OK" with icon caution`,
		appleScriptString(n.Body+"\n\n"+n.Subtitle), appleScriptString(n.Title))
	if _, err := d.runner.Run(ctx, "osascript", "-e", script); err != nil {
		return fmt.Errorf("showing alarm dialog: %w", err)
	}
	return nil
}
