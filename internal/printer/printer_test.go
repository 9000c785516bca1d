package printer

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/label-engine/internal/registry"
)

// fakeConn records writes and fails the first failures calls.
type fakeConn struct {
	mu       sync.Mutex
	writes   [][]byte
	failures int
	closed   bool
}

func (c *fakeConn) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		return 0, errors.New("paper out")
	}
	c.writes = append(c.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

type staticResolver map[string]registry.Entry

func (r staticResolver) Get(id string) (registry.Entry, error) {
	e, ok := r[id]
	if !ok {
		return registry.Entry{}, registry.ErrNotFound
	}
	return e, nil
}

func checker(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestBitmap(t *testing.T) {
	bitmap, bytesPerLine, height := Bitmap(checker(10, 2))

	assert.Equal(t, 2, bytesPerLine)
	assert.Equal(t, 2, height)
	// Row 0: ink at even columns. Row 1: ink at odd columns.
	assert.Equal(t, []byte{0xAA, 0x80, 0x55, 0x40}, bitmap)
}

func TestEncodeLabels_Framing(t *testing.T) {
	data := EncodeLabels([]image.Image{checker(16, 3)})

	require.GreaterOrEqual(t, len(data), 2+8+6+3+3)
	assert.Equal(t, []byte{ESC, '@'}, data[:2])
	assert.Equal(t, []byte{GS, 'v', '0', 0, 2, 0, 3, 0}, data[2:10])
	tail := data[len(data)-6:]
	assert.Equal(t, []byte{0x0A, 0x0A, 0x0A, GS, 'V', 0}, tail)
	assert.Len(t, data, 2+8+2*3+3+3)
}

func TestPool_ConnectOnce(t *testing.T) {
	conn := &fakeConn{}
	dials := 0
	pool := NewPool(func(registry.Entry) (Connection, error) {
		dials++
		return conn, nil
	})
	entry := registry.Entry{ID: "p1", Type: registry.TypeNetwork}

	require.NoError(t, pool.Connect(entry))
	require.NoError(t, pool.Connect(entry))
	assert.Equal(t, 1, dials)
	assert.True(t, pool.IsConnected("p1"))

	require.NoError(t, pool.Print("p1", []image.Image{checker(8, 1)}))
	assert.Equal(t, 1, conn.writeCount())

	pool.DisconnectAll()
	assert.True(t, conn.closed)
	assert.False(t, pool.IsConnected("p1"))
}

func TestPool_PrintNotConnected(t *testing.T) {
	pool := NewPool(nil)
	assert.Error(t, pool.Print("missing", nil))
}

func TestDial_UnsupportedType(t *testing.T) {
	_, err := Dial(registry.Entry{Type: "usb"})
	assert.Error(t, err)
}

func waitForStatus(t *testing.T, q *Queue, id, status string) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var err error
		job, err = q.Job(id)
		return err == nil && job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestQueue_RetriesThenCompletes(t *testing.T) {
	conn := &fakeConn{failures: 1}
	pool := NewPool(func(registry.Entry) (Connection, error) { return conn, nil })
	printers := staticResolver{"p1": {ID: "p1", Type: registry.TypeNetwork}}

	var mu sync.Mutex
	var statuses []string
	q := NewQueue(pool, printers, nil, QueueOptions{
		MaxRetries:   3,
		PollInterval: time.Millisecond,
		OnUpdate: func(j Job) {
			mu.Lock()
			statuses = append(statuses, j.Status)
			mu.Unlock()
		},
	})
	defer q.Stop()

	id := q.Enqueue("p1", []image.Image{checker(8, 2), checker(8, 2)})
	job := waitForStatus(t, q, id, StatusCompleted)

	assert.Equal(t, 1, job.Retries)
	assert.Equal(t, 2, job.Labels)
	assert.Empty(t, job.Error)
	assert.Equal(t, 1, conn.writeCount())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, StatusQueued, statuses[0])
	assert.Equal(t, StatusCompleted, statuses[len(statuses)-1])
}

func TestQueue_FailsAfterMaxRetries(t *testing.T) {
	q := NewQueue(NewPool(nil), staticResolver{}, nil, QueueOptions{MaxRetries: 2, PollInterval: time.Millisecond})
	defer q.Stop()

	id := q.Enqueue("unknown", []image.Image{checker(8, 1)})
	job := waitForStatus(t, q, id, StatusFailed)

	assert.Equal(t, 2, job.Retries)
	assert.Contains(t, job.Error, "printer not found")
}

func TestQueue_JobsAndClear(t *testing.T) {
	conn := &fakeConn{}
	pool := NewPool(func(registry.Entry) (Connection, error) { return conn, nil })
	q := NewQueue(pool, staticResolver{"p1": {ID: "p1"}}, nil, QueueOptions{PollInterval: time.Millisecond})
	defer q.Stop()

	id := q.Enqueue("p1", []image.Image{checker(8, 1)})
	waitForStatus(t, q, id, StatusCompleted)
	require.Len(t, q.Jobs(), 1)

	q.ClearCompleted()
	assert.Empty(t, q.Jobs())

	_, err := q.Job(id)
	assert.ErrorIs(t, err, ErrJobNotFound)
}
