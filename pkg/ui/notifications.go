package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier announces the end of a long-running stage on the console and,
// where supported, as a desktop notification.
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a Notifier for the current platform. Platforms without
// a sender only get console output.
func NewNotifier() *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	}

	return &Notifier{sender: sender}
}

// NewNotifierWithSender creates a Notifier that delivers through sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// SendSuccess prints a success line and sends a desktop notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(writer(), "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

// SendError prints an error line and sends a desktop notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(writer(), "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n == nil || n.sender == nil {
		return
	}
	// Desktop notifications are best effort.
	_ = n.sender.Send(title, message)
}
