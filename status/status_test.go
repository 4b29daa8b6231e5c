package status

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	lines []string
}

func (r *recordSink) Report(line string) { r.lines = append(r.lines, line) }

func TestScriptFormatter(t *testing.T) {
	f, err := LoadScriptFormatter("status.tengo")
	require.NoError(t, err)

	cases := []struct {
		name string
		in   Snapshot
		want string
	}{
		{"stopped", Snapshot{State: "stopped", Track: "lofi_loop.wav", Index: 0, Tracks: 2}, "ready: lofi loop (1/2)"},
		{"starting", Snapshot{State: "starting", Track: "lofi_rain.wav", Index: 1, Tracks: 2}, "dropping the needle on lofi rain..."},
		{"playing", Snapshot{State: "playing", Track: "music/lofi_rain.wav", Index: 1, Tracks: 2}, "now playing: lofi rain (2/2)"},
		{"stopping", Snapshot{State: "stopping", Track: "lofi_loop.wav", Tracks: 2}, "lifting the needle..."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := f.Format(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestScriptFormatterErrors(t *testing.T) {
	_, err := NewScriptFormatter("broken", []byte("line = ("))
	assert.Error(t, err)

	_, err = LoadScriptFormatter("missing.tengo")
	assert.Error(t, err)

	_, err = NewScriptFormatter("os", []byte("os := import(\"os\")\nline = os.getenv(\"HOME\")"))
	assert.Error(t, err, "status scripts only get text and fmt")

	f, err := NewScriptFormatter("divide", []byte("line = string(tracks / index)"))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		_, err = f.Format(Snapshot{State: "playing", Tracks: 2, Index: 0})
	})
	assert.Error(t, err)

	got, err := f.Format(Snapshot{State: "playing", Tracks: 2, Index: 1})
	require.NoError(t, err, "the formatter recovers after a fault")
	assert.Equal(t, "2", got)
}

func TestReporterFallsBackAndDedupes(t *testing.T) {
	f, err := NewScriptFormatter("divide", []byte("line = string(tracks / index)"))
	require.NoError(t, err)
	sink := &recordSink{}
	r := NewReporter(f, sink, zerolog.Nop())

	snap := Snapshot{State: "stopped", Track: "lofi_loop.wav", Index: 0, Tracks: 2}
	r.Update(snap)
	r.Update(snap)
	assert.Equal(t, []string{"stopped: lofi loop (1/2)"}, sink.lines)

	snap.Index = 1
	r.Update(snap)
	assert.Equal(t, "2", r.Line())
	assert.Len(t, sink.lines, 2)
}

func TestMulti(t *testing.T) {
	a, b := &recordSink{}, &recordSink{}
	Multi{a, nil, b}.Report("hi")
	assert.Equal(t, []string{"hi"}, a.lines)
	assert.Equal(t, []string{"hi"}, b.lines)
}

func TestPlainFormatter(t *testing.T) {
	got, _ := PlainFormatter{}.Format(Snapshot{State: "stopped"})
	assert.Equal(t, "stopped", got)
}

func readLine(t *testing.T, c *websocket.Conn) string {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ReadMessage()
	require.NoError(t, err)
	var msg message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg.Line
}

func TestHubBroadcasts(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	hub.Report("ready")

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "ready", readLine(t, conn), "new clients get the latest line")

	hub.Report("now playing")
	assert.Equal(t, "now playing", readLine(t, conn))
	assert.Equal(t, 1, hub.Clients())
}

func TestHubListen(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	require.NoError(t, hub.Listen("127.0.0.1:0"))
	assert.NoError(t, hub.Close())
	assert.NoError(t, hub.Close())
}

func TestHubReportDoesNotWaitOnClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	hub.Report("ready")
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "ready", readLine(t, conn))

	start := time.Now()
	for i := 0; i < 10*sendBuffer; i++ {
		hub.Report(strings.Repeat("x", i+1))
	}
	assert.Less(t, time.Since(start), writeWait, "report only queues lines")

	assert.Equal(t, "x", readLine(t, conn), "queued lines arrive in order")
	assert.Equal(t, 1, hub.Clients())
}
