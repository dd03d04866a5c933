package lpmctx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lodosgroup/lpm/internal/termui"
	"github.com/stretchr/testify/require"
)

func TestAskForConfirmationForceYesSkipsPrompt(t *testing.T) {
	c := &Ctx{Log: termui.New(&bytes.Buffer{}, &bytes.Buffer{}), ForceYes: true}
	require.True(t, c.AskForConfirmation(strings.NewReader(""), "proceed?"))
}

func TestAskForConfirmationReadsAnswer(t *testing.T) {
	c := &Ctx{Log: termui.New(&bytes.Buffer{}, &bytes.Buffer{})}
	require.True(t, c.AskForConfirmation(strings.NewReader("y\n"), "proceed?"))

	c2 := &Ctx{Log: termui.New(&bytes.Buffer{}, &bytes.Buffer{})}
	require.False(t, c2.AskForConfirmation(strings.NewReader("n\n"), "proceed?"))
}

func TestAskForConfirmationReprompts(t *testing.T) {
	c := &Ctx{Log: termui.New(&bytes.Buffer{}, &bytes.Buffer{})}
	require.True(t, c.AskForConfirmation(strings.NewReader("maybe\ny\n"), "proceed?"))
}
