package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardUIManagerOutput(t *testing.T) {
	var buf bytes.Buffer
	ui := &StandardUIManager{out: &buf}

	ui.Printf("status %d\n", 1)
	ui.Verbose("hidden\n")
	assert.Equal(t, "status 1\n", buf.String())

	buf.Reset()
	ui = &StandardUIManager{out: &buf, verbose: true, quiet: true}
	ui.Printf("hidden\n")
	ui.Verbose("debug %s\n", "on")
	assert.Equal(t, "debug on\n", buf.String())
}

func TestNewSpinnerSilentWhenNotInteractive(t *testing.T) {
	var buf bytes.Buffer
	ui := &StandardUIManager{out: &buf}

	spinner := ui.NewSpinner("working")
	assert.IsType(t, &SilentProgressBar{}, spinner)

	spinner.Describe("still working")
	spinner.Advance()
	spinner.Finish()
	assert.Empty(t, buf.String())
}
