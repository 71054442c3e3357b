package captcha

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/maltedev/shopping-price-tracker/internal/artifacts"
	"github.com/maltedev/shopping-price-tracker/internal/browser/browsertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, prompt string) error {
	args := m.Called(ctx, prompt)
	return args.Error(0)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SettleDelay = 0
	return cfg
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(p *browsertest.Page)
		expected bool
	}{
		{
			name:     "Clean product page",
			setup:    func(p *browsertest.Page) { p.BodyText = "Samsung Galaxy S23 from 2,999 SAR" },
			expected: false,
		},
		{
			name:     "Verification URL",
			setup:    func(p *browsertest.Page) { p.CurrentURL = "https://www.google.com/sorry/index?continue=x" },
			expected: true,
		},
		{
			name:     "Challenge selector",
			setup:    func(p *browsertest.Page) { p.Counts[".g-recaptcha"] = 1 },
			expected: true,
		},
		{
			name: "Structural marker",
			setup: func(p *browsertest.Page) {
				p.HTML = `<form id="captcha-form" action="/x"><input name="g-recaptcha-response"></form>`
			},
			expected: true,
		},
		{
			name:     "Form without input is not a marker",
			setup:    func(p *browsertest.Page) { p.HTML = `<form id="captcha-form"></form>` },
			expected: false,
		},
		{
			name:     "Single phrase is not enough",
			setup:    func(p *browsertest.Page) { p.BodyText = "Buyers noticed unusual traffic at the mall this weekend." },
			expected: false,
		},
		{
			name: "Two distinct phrases",
			setup: func(p *browsertest.Page) {
				p.BodyText = "Our systems have detected Unusual Traffic. Please show you're not a robot."
			},
			expected: true,
		},
		{
			name: "Arabic phrases",
			setup: func(p *browsertest.Page) {
				p.BodyText = "رصدت أنظمتنا حركة مرور غير عادية من شبكتك. يرجى تأكيد أنك لست برنامج روبوت"
			},
			expected: true,
		},
		{
			name: "French phrases",
			setup: func(p *browsertest.Page) {
				p.BodyText = "Nos systèmes ont détecté un trafic exceptionnel. Confirmez que vous n'êtes pas un robot."
			},
			expected: true,
		},
		{
			name:     "Same phrase twice counts once",
			setup:    func(p *browsertest.Page) { p.BodyText = "not a robot? not a robot!" },
			expected: false,
		},
	}

	gate := NewGate(testConfig(), nil, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.NewPage("https://www.google.com/shopping/product/1")
			tt.setup(page)
			assert.Equal(t, tt.expected, gate.Detect(page))
		})
	}
}

func TestResolve(t *testing.T) {
	recorder := artifacts.NewRecorder(t.TempDir(), nil)
	confirmer := new(MockConfirmer)
	confirmer.On("Confirm", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "press Enter")
	})).Return(nil).Once()

	gate := NewGate(testConfig(), confirmer, recorder, nil)
	page := browsertest.NewPage("https://www.google.com/sorry/index")

	resolved, err := gate.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Len(t, page.Screenshots, 1)
	confirmer.AssertExpectations(t)
}

func TestResolveConfirmationError(t *testing.T) {
	confirmer := ConfirmerFunc(func(ctx context.Context, prompt string) error {
		return errors.New("operator aborted")
	})
	gate := NewGate(testConfig(), confirmer, nil, nil)

	resolved, err := gate.Resolve(context.Background(), browsertest.NewPage("https://x.test/sorry/"))
	assert.False(t, resolved)
	assert.ErrorContains(t, err, "operator aborted")
}

func TestResolveWithoutConfirmer(t *testing.T) {
	gate := NewGate(testConfig(), nil, nil, nil)

	resolved, err := gate.Resolve(context.Background(), browsertest.NewPage("https://x.test/sorry/"))
	assert.False(t, resolved)
	assert.Error(t, err)
}

func TestCheckAndResolve(t *testing.T) {
	calls := 0
	confirmer := ConfirmerFunc(func(ctx context.Context, prompt string) error {
		calls++
		return nil
	})
	gate := NewGate(testConfig(), confirmer, nil, nil)

	clean := browsertest.NewPage("https://www.google.com/shopping/product/1")
	handled, err := gate.CheckAndResolve(context.Background(), clean)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, 0, calls)

	challenged := browsertest.NewPage("https://www.google.com/sorry/index")
	handled, err = gate.CheckAndResolve(context.Background(), challenged)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, calls)
}

func TestConsoleConfirmer(t *testing.T) {
	var out bytes.Buffer
	c := NewConsoleConfirmer(strings.NewReader("\n"), &out)

	require.NoError(t, c.Confirm(context.Background(), "press Enter"))
	assert.Equal(t, "press Enter\n", out.String())
}

func TestConsoleConfirmerClosedInput(t *testing.T) {
	c := NewConsoleConfirmer(strings.NewReader(""), io.Discard)
	assert.Error(t, c.Confirm(context.Background(), "press Enter"))
}

func TestConsoleConfirmerCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConsoleConfirmer(r, io.Discard)
	assert.ErrorIs(t, c.Confirm(ctx, "press Enter"), context.Canceled)
}

func TestConsoleConfirmerReadsLinesInOrder(t *testing.T) {
	c := NewConsoleConfirmer(strings.NewReader("\n\n"), io.Discard)

	require.NoError(t, c.Confirm(context.Background(), "first"))
	require.NoError(t, c.Confirm(context.Background(), "second"))
	assert.Error(t, c.Confirm(context.Background(), "third"))
}

func TestConsoleConfirmerLineAfterCancelReachesNextCall(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	c := NewConsoleConfirmer(r, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Confirm(ctx, "abandoned"), context.Canceled)

	go func() {
		_, _ = w.Write([]byte("\n"))
	}()

	done := make(chan error, 1)
	go func() {
		done <- c.Confirm(context.Background(), "retry")
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("line typed after a cancelled prompt was not delivered")
	}
}
