package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/yashhsm/morpho-on-solana/internal/config"
	"github.com/yashhsm/morpho-on-solana/internal/readmodel"
)

func TestWebsocketPayloadRouting(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	readModel := &fakeReadModel{
		protocol:  readmodel.ProtocolView{MarketCount: 2},
		markets:   []readmodel.MarketView{{LltvBps: 8600}},
		positions: []readmodel.PositionView{{BorrowShares: "9"}},
	}
	service := newTestService(readModel, nil)
	ctx := context.Background()

	t.Run("protocol", func(t *testing.T) {
		payload, err := service.getWebsocketPayload(ctx, "protocol")
		require.NoError(t, err)
		view, ok := payload.(readmodel.ProtocolView)
		require.True(t, ok)
		require.Equal(t, uint64(2), view.MarketCount)
	})

	t.Run("markets", func(t *testing.T) {
		payload, err := service.getWebsocketPayload(ctx, "markets")
		require.NoError(t, err)
		response, ok := payload.(marketListResponse)
		require.True(t, ok)
		require.Len(t, response.Items, 1)
	})

	t.Run("positions", func(t *testing.T) {
		payload, err := service.getWebsocketPayload(ctx, positionChannelPrefix+owner.String())
		require.NoError(t, err)
		response, ok := payload.(positionListResponse)
		require.True(t, ok)
		require.Equal(t, owner.String(), response.Owner)
		require.Len(t, response.Items, 1)
	})

	t.Run("bad owner is idle", func(t *testing.T) {
		payload, err := service.getWebsocketPayload(ctx, positionChannelPrefix+"not-a-key")
		require.NoError(t, err)
		require.Nil(t, payload)
	})

	t.Run("unknown channel is idle", func(t *testing.T) {
		payload, err := service.getWebsocketPayload(ctx, "orderbook")
		require.NoError(t, err)
		require.Nil(t, payload)
	})
}

func TestWebsocketSubscribePushUnsubscribe(t *testing.T) {
	readModel := &fakeReadModel{markets: []readmodel.MarketView{{LltvBps: 8600}}}
	service := New(config.GatewayConfig{PushInterval: 20 * time.Millisecond},
		readModel, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	server := httptest.NewServer(http.HandlerFunc(service.handleWebsocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(websocketSubscribeRequest{Type: "subscribe", Channel: "markets"}))

	var envelope websocketEnvelope
	require.NoError(t, conn.ReadJSON(&envelope))
	require.Equal(t, "event", envelope.Type)
	require.Equal(t, "markets", envelope.Channel)

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var pushed marketListResponse
	require.NoError(t, json.Unmarshal(raw, &pushed))
	require.Len(t, pushed.Items, 1)
	require.Equal(t, uint64(8600), pushed.Items[0].LltvBps)

	require.NoError(t, conn.WriteJSON(websocketSubscribeRequest{Type: "unsubscribe", Channel: "markets"}))

	// Drain anything already in flight; once the unsubscribe lands the
	// stream goes quiet and the read deadline fires. A stream that keeps
	// pushing delivers ~15 events inside the deadline.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	stray := 0
	for {
		if err := conn.ReadJSON(&envelope); err != nil {
			var netErr net.Error
			require.ErrorAs(t, err, &netErr)
			require.True(t, netErr.Timeout(), "expected the push stream to stop after unsubscribe, got %v", err)
			break
		}
		stray++
	}
	require.Less(t, stray, 5, "push stream kept delivering after unsubscribe")
}
