package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })
	return &buf
}

func TestPrintBannerAlignsLabels(t *testing.T) {
	buf := captureOutput(t)

	PrintBanner("Starting Flickr grid downloader", []Field{
		{Label: "Zone", Value: "malaga"},
		{Label: "Coordinates file", Value: "malaga_coordinates.csv"},
	})

	out := buf.String()
	assert.Contains(t, out, "Starting Flickr grid downloader")
	assert.Contains(t, out, Blue("Zone:            ")+" malaga")
	assert.Contains(t, out, Blue("Coordinates file:")+" malaga_coordinates.csv")
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOutput(t)

	PrintError("Failed", errors.New("boom"))
	PrintSuccess("Done")
	PrintInfo("Zone", "sevilla")
	PrintWarning("Careful")

	out := buf.String()
	assert.Contains(t, out, Red("✖ Failed: boom"))
	assert.Contains(t, out, Green("✔ Done"))
	assert.Contains(t, out, Cyan("Zone")+": "+Yellow("sevilla"))
	assert.Contains(t, out, Yellow("⚠ Careful"))
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return errors.New("no display")
}

func TestNotifierSendsAndPrints(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{}

	n := NewNotifierWithSender(sender)
	n.SendSuccess("flickrgrid", "Zone malaga finished")
	n.SendError("flickrgrid", "Zone malaga failed")

	assert.Equal(t, []string{"flickrgrid", "flickrgrid"}, sender.titles)
	assert.Contains(t, buf.String(), "Zone malaga finished")

	var nilNotifier *Notifier
	assert.NotPanics(t, func() { nilNotifier.send("x", "y") })
}
