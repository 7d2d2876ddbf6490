package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/stagehand/internal/config"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()

	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}
	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})
	return server
}

func TestNATSEmitPublishesPerStageSubject(t *testing.T) {
	server := startTestNATSServer(t)

	sub, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer sub.Close()
	inbox, err := sub.SubscribeSync("stagehand.reports.pr")
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	emitter, err := NewNATS(config.NATSConfig{
		URL:           server.ClientURL(),
		SubjectPrefix: "stagehand.reports",
		Timeout:       config.Duration(2 * time.Second),
	}, nil)
	require.NoError(t, err)
	defer emitter.Close()

	require.NoError(t, emitter.Emit(context.Background(), sampleReport()))

	msg, err := inbox.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var decoded StageReport
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "a1b2c3d4", decoded.RunID)
	require.Len(t, decoded.Results, 2)
}

func TestNewNATSRequiresURL(t *testing.T) {
	_, err := NewNATS(config.NATSConfig{}, nil)
	assert.Error(t, err)
}
