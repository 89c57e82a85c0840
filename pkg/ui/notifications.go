package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender raises a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// commandSender shells out to the platform notification tool
type commandSender struct {
	argv func(title, message string) []string
}

func (c commandSender) Send(title, message string) error {
	args := c.argv(title, message)
	return exec.Command(args[0], args[1:]...).Run()
}

// platformSenders maps GOOS to the command that shows a notification there
var platformSenders = map[string]commandSender{
	"linux": {argv: func(title, message string) []string {
		return []string{"notify-send", "--app-name=tweetcloud", title, message}
	}},
	"darwin": {argv: func(title, message string) []string {
		return []string{"osascript", "-e", fmt.Sprintf("display notification %q with title %q", message, title)}
	}},
	"windows": {argv: func(title, message string) []string {
		quote := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
		script := "Add-Type -AssemblyName System.Windows.Forms;" +
			"$n = New-Object System.Windows.Forms.NotifyIcon;" +
			"$n.Icon = [System.Drawing.SystemIcons]::Information;" +
			"$n.Visible = $true;" +
			fmt.Sprintf("$n.ShowBalloonTip(5000, %s, %s, 'Info');", quote(title), quote(message)) +
			"Start-Sleep -Seconds 5; $n.Dispose()"
		return []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", script}
	}},
}

// Notifier echoes messages to Out and forwards them to a desktop sender
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the running platform. Unknown platforms
// only get console output.
func NewNotifier() *Notifier {
	if s, ok := platformSenders[runtime.GOOS]; ok {
		return &Notifier{sender: s}
	}
	return &Notifier{}
}

// NewNotifierWithSender creates a Notifier using sender, which may be nil
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) send(titleColor, messageColor func(string) string, title, message string) {
	fmt.Fprintf(Out, "\n%s: %s\n", titleColor(title), messageColor(message))

	// Desktop notifications are best effort.
	if n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}

// SendNotification sends a neutral notification
func (n *Notifier) SendNotification(title, message string) {
	n.send(Cyan, Yellow, title, message)
}

// SendError sends a failure notification
func (n *Notifier) SendError(title, message string) {
	n.send(Red, Red, title, message)
}

// SendSuccess sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	n.send(Green, Green, title, message)
}
