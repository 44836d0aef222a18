package desktop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingDialog records shown messages and stays open until released.
type blockingDialog struct {
	mu      sync.Mutex
	shown   []string
	release chan struct{}
}

func newBlockingDialog() *blockingDialog {
	return &blockingDialog{release: make(chan struct{})}
}

func (d *blockingDialog) show(title, msg string) bool {
	d.mu.Lock()
	d.shown = append(d.shown, title+": "+msg)
	d.mu.Unlock()
	<-d.release
	return true
}

func (d *blockingDialog) messages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.shown...)
}

func TestPopupNotifyDoesNotBlock(t *testing.T) {
	d := newBlockingDialog()
	logger, _ := test.NewNullLogger()
	p := newPopup(d.show, logger)

	done := make(chan struct{})
	go func() {
		p.Notify(context.Background(), "Fall Detected")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on an open dialog")
	}

	require.Eventually(t, func() bool { return len(d.messages()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"fallwatch: Fall Detected"}, d.messages())

	close(d.release)
	p.Wait()
}

func TestPopupOneDialogPerLabel(t *testing.T) {
	d := newBlockingDialog()
	logger, _ := test.NewNullLogger()
	p := newPopup(d.show, logger)
	ctx := context.Background()

	p.Notify(ctx, "Fall Detected")
	p.Notify(ctx, "Fall Detected")
	p.Notify(ctx, "Fall Alert Cancelled")

	require.Eventually(t, func() bool { return len(d.messages()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"fallwatch: Fall Detected", "fallwatch: Fall Alert Cancelled"}, d.messages())

	close(d.release)
	p.Wait()

	p.Notify(ctx, "Fall Detected")
	p.Wait()
	assert.Len(t, d.messages(), 3, "label can be shown again once dismissed")
}
